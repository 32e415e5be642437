package message

// Response reports the outcome of a task back to the orchestrator.
type Response struct {
	Envelope
	TaskID string         `json:"task_id"`
	Status TaskStatus     `json:"status"`
	Result map[string]any `json:"result,omitempty"`
}

// NewResponse creates a response message for a task.
func NewResponse(sender, taskID string, status TaskStatus, result map[string]any) *Response {
	return &Response{
		Envelope: NewEnvelope(TypeResponse, sender),
		TaskID:   taskID,
		Status:   status,
		Result:   result,
	}
}

// StatusUpdate reports progress on a task still in flight. Progress is
// a percentage in [0, 100].
type StatusUpdate struct {
	Envelope
	TaskID              string `json:"task_id"`
	Progress            int    `json:"progress"`
	Stage               string `json:"stage,omitempty"`
	EstimatedCompletion string `json:"estimated_completion,omitempty"`
}

// NewStatusUpdate creates a progress message for a task.
func NewStatusUpdate(sender, taskID string, progress int, stage string) *StatusUpdate {
	return &StatusUpdate{
		Envelope: NewEnvelope(TypeStatus, sender),
		TaskID:   taskID,
		Progress: progress,
		Stage:    stage,
	}
}

// ErrorMessage reports a task execution failure with enough context for
// the orchestrator to pick a recovery strategy.
type ErrorMessage struct {
	Envelope
	TaskID             string         `json:"task_id"`
	Code               string         `json:"error_code,omitempty"`
	Severity           ErrorSeverity  `json:"severity"`
	Description        string         `json:"description,omitempty"`
	Context            map[string]any `json:"context,omitempty"`
	RecoverySuggestion string         `json:"recovery_suggestion,omitempty"`
}

// NewErrorMessage creates an error message for a task.
func NewErrorMessage(sender, taskID, code string, severity ErrorSeverity, description string) *ErrorMessage {
	return &ErrorMessage{
		Envelope:    NewEnvelope(TypeError, sender),
		TaskID:      taskID,
		Code:        code,
		Severity:    severity,
		Description: description,
	}
}
