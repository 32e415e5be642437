// Package message defines the typed envelopes exchanged between the
// orchestrator and agents. All exchange is in-process; the JSON shape
// exists for logging, inspection, and tests.
package message

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type discriminates message envelopes.
type Type string

const (
	TypeTask     Type = "task"
	TypeResponse Type = "response"
	TypeStatus   Type = "status"
	TypeError    Type = "error"
)

// Priority orders tasks in the orchestrator queue.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// TaskStatus tracks a task through its lifecycle.
type TaskStatus string

const (
	StatusSubmitted  TaskStatus = "submitted"
	StatusQueued     TaskStatus = "queued"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	StatusRetrying   TaskStatus = "retrying"
)

// ErrorSeverity grades error messages.
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "critical"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityInfo     ErrorSeverity = "info"
)

// RecoveryStrategy names the orchestrator's reaction to a failed task.
type RecoveryStrategy string

const (
	RecoveryRetry     RecoveryStrategy = "retry"
	RecoveryReassign  RecoveryStrategy = "reassign"
	RecoveryDecompose RecoveryStrategy = "decompose"
	RecoveryEscalate  RecoveryStrategy = "escalate"
	RecoveryRollback  RecoveryStrategy = "rollback"
)

// Envelope is the header common to every message.
type Envelope struct {
	ID        string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Type      Type      `json:"message_type"`
	Priority  Priority  `json:"priority"`
}

// NewEnvelope creates a header with a fresh ID, a UTC timestamp, and
// medium priority.
func NewEnvelope(t Type, sender string) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Sender:    sender,
		Type:      t,
		Priority:  PriorityMedium,
	}
}

// normalize fills the defaults a decoded envelope may be missing.
func (e *Envelope) normalize(t Type) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Type == "" {
		e.Type = t
	}
	if e.Priority == "" {
		e.Priority = PriorityMedium
	}
}

// Encode renders any message as JSON.
func Encode(m any) ([]byte, error) {
	return json.Marshal(m)
}
