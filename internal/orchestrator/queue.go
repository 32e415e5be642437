package orchestrator

import (
	"context"
	"errors"

	"codecrew/internal/message"
)

// ErrQueueFull is returned when a priority lane has no capacity left.
var ErrQueueFull = errors.New("task queue full")

// TaskQueue orders pending tasks by priority. Each priority gets its
// own buffered lane; dequeue always drains higher lanes first.
type TaskQueue struct {
	high   chan *message.Task
	medium chan *message.Task
	low    chan *message.Task
}

// NewTaskQueue creates a queue with the given per-lane capacity.
func NewTaskQueue(capacity int) *TaskQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &TaskQueue{
		high:   make(chan *message.Task, capacity),
		medium: make(chan *message.Task, capacity),
		low:    make(chan *message.Task, capacity),
	}
}

func (q *TaskQueue) lane(p message.Priority) chan *message.Task {
	switch p {
	case message.PriorityHigh:
		return q.high
	case message.PriorityLow:
		return q.low
	default:
		return q.medium
	}
}

// Enqueue places the task on its priority lane without blocking.
func (q *TaskQueue) Enqueue(task *message.Task) error {
	select {
	case q.lane(task.Priority) <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue returns the next task, preferring high over medium over low.
// It blocks until a task arrives or the context is cancelled.
func (q *TaskQueue) Dequeue(ctx context.Context) (*message.Task, error) {
	// drain strictly by priority before falling back to a blocking
	// wait across all lanes
	select {
	case task := <-q.high:
		return task, nil
	default:
	}
	select {
	case task := <-q.high:
		return task, nil
	case task := <-q.medium:
		return task, nil
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case task := <-q.high:
		return task, nil
	case task := <-q.medium:
		return task, nil
	case task := <-q.low:
		return task, nil
	}
}

// Len reports the number of queued tasks across all lanes.
func (q *TaskQueue) Len() int {
	return len(q.high) + len(q.medium) + len(q.low)
}
