package message

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Payload carries the task-type-specific inputs an agent needs. Only
// the fields relevant to a given task type are populated.
type Payload struct {
	Requirements  []string       `json:"requirements,omitempty"`
	Constraints   []string       `json:"constraints,omitempty"`
	Model         string         `json:"model,omitempty"`
	ComponentName string         `json:"component_name,omitempty"`
	Components    []string       `json:"components,omitempty"`
	Code          string         `json:"code,omitempty"`
	Specification map[string]any `json:"specification,omitempty"`
	Metrics       []string       `json:"metrics,omitempty"`
	BugReport     map[string]any `json:"bug_report,omitempty"`
}

// Task is a unit of work dispatched to an agent.
type Task struct {
	Envelope
	TaskID   string            `json:"task_id"`
	TaskType string            `json:"task_type"`
	Payload  Payload           `json:"payload"`
	Metadata map[string]string `json:"metadata,omitempty"`
	ParentID string            `json:"parent_id,omitempty"`
	Deadline time.Time         `json:"deadline,omitzero"`
}

// NewTask creates a task message with fresh IDs.
func NewTask(taskType string, payload Payload) *Task {
	return &Task{
		Envelope: NewEnvelope(TypeTask, "orchestrator"),
		TaskID:   uuid.NewString(),
		TaskType: taskType,
		Payload:  payload,
	}
}

// DecodeTask parses a task from JSON, defaulting any missing envelope
// fields and task ID. Missing keys are tolerated, not errors.
func DecodeTask(data []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	t.normalize(TypeTask)
	if t.TaskID == "" {
		t.TaskID = uuid.NewString()
	}
	return &t, nil
}

// Result is what an agent hands back after executing a task.
type Result struct {
	Status    TaskStatus     `json:"status"`
	ModelUsed string         `json:"model_used,omitempty"`
	Artifacts map[string]any `json:"artifacts,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Succeeded reports whether the task completed.
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusCompleted
}
