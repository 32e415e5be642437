package orchestrator

import (
	"sync"
	"time"

	"codecrew/internal/message"
)

// TaskRecord is the orchestrator's view of one task's lifecycle.
type TaskRecord struct {
	Task       *message.Task
	Status     message.TaskStatus
	AssignedTo string
	Attempts   int
	Progress   int
	Stage      string
	Result     *message.Result
	UpdatedAt  time.Time
}

// WorkflowSummary rolls up the state of a parent task's subtasks.
type WorkflowSummary struct {
	Total     int
	Completed int
	Failed    int
	Pending   int
}

// Done reports whether every subtask reached a terminal state.
func (s WorkflowSummary) Done() bool { return s.Pending == 0 }

// WorkflowState tracks every submitted task and the parent/child links
// produced by decomposition.
type WorkflowState struct {
	mu       sync.RWMutex
	tasks    map[string]*TaskRecord
	children map[string][]string
}

// NewWorkflowState creates an empty tracker.
func NewWorkflowState() *WorkflowState {
	return &WorkflowState{
		tasks:    make(map[string]*TaskRecord),
		children: make(map[string][]string),
	}
}

// Track registers a freshly submitted task.
func (w *WorkflowState) Track(task *message.Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasks[task.TaskID] = &TaskRecord{
		Task:      task,
		Status:    message.StatusSubmitted,
		UpdatedAt: time.Now().UTC(),
	}
	if task.ParentID != "" {
		w.children[task.ParentID] = append(w.children[task.ParentID], task.TaskID)
	}
}

// Get returns a copy of the record for the task, if tracked.
func (w *WorkflowState) Get(taskID string) (TaskRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rec, ok := w.tasks[taskID]
	if !ok {
		return TaskRecord{}, false
	}
	return *rec, true
}

// SetStatus transitions the task to the given status.
func (w *WorkflowState) SetStatus(taskID string, status message.TaskStatus) {
	w.update(taskID, func(rec *TaskRecord) { rec.Status = status })
}

// Assign records which agent a task was handed to and bumps the
// attempt counter.
func (w *WorkflowState) Assign(taskID, agent string) int {
	attempts := 0
	w.update(taskID, func(rec *TaskRecord) {
		rec.AssignedTo = agent
		rec.Status = message.StatusInProgress
		rec.Attempts++
		attempts = rec.Attempts
	})
	return attempts
}

// SetProgress records an agent's status update.
func (w *WorkflowState) SetProgress(taskID string, progress int, stage string) {
	w.update(taskID, func(rec *TaskRecord) {
		rec.Progress = progress
		rec.Stage = stage
	})
}

// Complete marks the task finished and stores its result.
func (w *WorkflowState) Complete(taskID string, result *message.Result) {
	w.update(taskID, func(rec *TaskRecord) {
		rec.Status = message.StatusCompleted
		rec.Progress = 100
		rec.Result = result
	})
}

// Fail marks the task terminally failed.
func (w *WorkflowState) Fail(taskID string, result *message.Result) {
	w.update(taskID, func(rec *TaskRecord) {
		rec.Status = message.StatusFailed
		rec.Result = result
	})
}

// Attempts returns how many times the task has been dispatched.
func (w *WorkflowState) Attempts(taskID string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if rec, ok := w.tasks[taskID]; ok {
		return rec.Attempts
	}
	return 0
}

// Summary rolls up the subtasks of a parent. A task with no children
// summarizes itself.
func (w *WorkflowState) Summary(parentID string) WorkflowSummary {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ids := w.children[parentID]
	if len(ids) == 0 {
		ids = []string{parentID}
	}
	var sum WorkflowSummary
	for _, id := range ids {
		rec, ok := w.tasks[id]
		if !ok {
			continue
		}
		sum.Total++
		switch rec.Status {
		case message.StatusCompleted:
			sum.Completed++
		case message.StatusFailed:
			sum.Failed++
		default:
			sum.Pending++
		}
	}
	return sum
}

func (w *WorkflowState) update(taskID string, fn func(*TaskRecord)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec, ok := w.tasks[taskID]
	if !ok {
		return
	}
	fn(rec)
	rec.UpdatedAt = time.Now().UTC()
}
