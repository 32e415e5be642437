// Package orchestrator coordinates the task lifecycle: it accepts
// submitted tasks, decomposes composite ones, attaches a model to each
// via the selector, routes them to registered agents by task type, and
// applies recovery strategies when execution fails.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"codecrew/internal/agent"
	"codecrew/internal/message"
	"codecrew/internal/registry"
	"codecrew/internal/selector"
)

// typedAgent is implemented by agents that advertise their own task
// types, sparing the caller from listing them at registration.
type typedAgent interface {
	TaskTypes() []string
}

// Callback receives the terminal response for a task.
type Callback func(*message.Response)

// Orchestrator owns the queue, the workflow state, and the agent
// routing table.
type Orchestrator struct {
	registry *registry.Registry
	selector *selector.Selector
	queue    *TaskQueue
	state    *WorkflowState
	logger   *zap.Logger

	mu     sync.RWMutex
	agents map[string]agent.Agent
	routes map[string]string

	cbMu      sync.RWMutex
	callbacks []Callback

	statusCh chan *message.StatusUpdate
	errorCh  chan *message.ErrorMessage

	autoSelect bool
	maxRetries int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxRetries bounds how often a failing task is re-dispatched
// before escalation.
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithQueueSize sets the per-priority lane capacity.
func WithQueueSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.queue = NewTaskQueue(n)
		}
	}
}

// WithAutoSelect toggles automatic model selection for tasks that do
// not name a model.
func WithAutoSelect(enabled bool) Option {
	return func(o *Orchestrator) { o.autoSelect = enabled }
}

// New creates an orchestrator over the given registry and selector.
func New(reg *registry.Registry, sel *selector.Selector, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:   reg,
		selector:   sel,
		queue:      NewTaskQueue(64),
		state:      NewWorkflowState(),
		logger:     zap.NewNop(),
		agents:     make(map[string]agent.Agent),
		routes:     make(map[string]string),
		statusCh:   make(chan *message.StatusUpdate, 128),
		errorCh:    make(chan *message.ErrorMessage, 128),
		autoSelect: true,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("orchestrator")
	return o
}

// Reporter returns the feedback sink agents should be constructed with.
func (o *Orchestrator) Reporter() *agent.Reporter {
	return agent.NewReporter(o.statusCh, o.errorCh)
}

// RegisterAgent adds an agent and routes the given task types to it.
// When no types are passed, agents advertising their own are asked.
func (o *Orchestrator) RegisterAgent(a agent.Agent, taskTypes ...string) {
	if len(taskTypes) == 0 {
		if t, ok := a.(typedAgent); ok {
			taskTypes = t.TaskTypes()
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.agents[a.Name()] = a
	for _, tt := range taskTypes {
		o.routes[tt] = a.Name()
	}
	o.logger.Info("agent registered",
		zap.String("agent", a.Name()),
		zap.Strings("task_types", taskTypes))
}

// RegisterCallback adds a listener for terminal task responses.
func (o *Orchestrator) RegisterCallback(cb Callback) {
	if cb == nil {
		return
	}
	o.cbMu.Lock()
	o.callbacks = append(o.callbacks, cb)
	o.cbMu.Unlock()
}

// SubmitTask accepts a task for execution. Composite implement_system
// tasks are decomposed into design, implementation, and test subtasks;
// everything else is queued directly. The returned ID identifies the
// submitted task in status queries.
func (o *Orchestrator) SubmitTask(task *message.Task) (string, error) {
	o.state.Track(task)
	if task.TaskType == "implement_system" {
		if err := o.decompose(task); err != nil {
			return "", err
		}
		o.state.SetStatus(task.TaskID, message.StatusInProgress)
		return task.TaskID, nil
	}
	if err := o.enqueue(task); err != nil {
		return "", err
	}
	return task.TaskID, nil
}

// decompose expands a composite task into the standard three-phase
// workflow. Subtasks inherit the parent's requirements, constraints,
// and priority.
func (o *Orchestrator) decompose(parent *message.Task) error {
	component := parent.Payload.ComponentName
	if component == "" {
		component = "system"
	}
	phases := []struct {
		taskType string
		payload  message.Payload
	}{
		{"system_design", message.Payload{
			Requirements: parent.Payload.Requirements,
			Constraints:  parent.Payload.Constraints,
		}},
		{"implement_component", message.Payload{
			Requirements:  parent.Payload.Requirements,
			Constraints:   parent.Payload.Constraints,
			ComponentName: component,
			Specification: parent.Payload.Specification,
		}},
		{"test_component", message.Payload{
			Constraints:   parent.Payload.Constraints,
			ComponentName: component,
		}},
	}
	o.logger.Info("decomposing task",
		zap.String("task_id", parent.TaskID),
		zap.Int("subtasks", len(phases)))
	for _, phase := range phases {
		sub := message.NewTask(phase.taskType, phase.payload)
		sub.ParentID = parent.TaskID
		sub.Priority = parent.Priority
		o.state.Track(sub)
		if err := o.enqueue(sub); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) enqueue(task *message.Task) error {
	o.assignModel(task)
	if err := o.queue.Enqueue(task); err != nil {
		o.state.Fail(task.TaskID, &message.Result{Status: message.StatusFailed, Error: err.Error()})
		return fmt.Errorf("enqueue task %s: %w", task.TaskID, err)
	}
	o.state.SetStatus(task.TaskID, message.StatusQueued)
	o.logger.Debug("task queued",
		zap.String("task_id", task.TaskID),
		zap.String("task_type", task.TaskType),
		zap.String("priority", string(task.Priority)),
		zap.String("model", task.Payload.Model))
	return nil
}

// assignModel settles which model the executing agent should use.
func (o *Orchestrator) assignModel(task *message.Task) {
	if !o.autoSelect {
		if task.Payload.Model == "" {
			task.Payload.Model = o.registry.Default()
		}
		return
	}
	task.Payload.Model = o.selector.Select(selector.TaskDescriptor{
		TaskType:     task.TaskType,
		Requirements: task.Payload.Requirements,
		Constraints:  task.Payload.Constraints,
		Model:        task.Payload.Model,
	})
}

// Start launches the dispatch and feedback loops. Call Shutdown to
// stop them.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)
	o.wg.Add(2)
	go o.dispatchLoop(ctx)
	go o.feedbackLoop(ctx)
	o.logger.Info("orchestrator started", zap.Int("max_retries", o.maxRetries))
}

// Shutdown stops the loops and waits for in-flight work to settle.
func (o *Orchestrator) Shutdown() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.logger.Info("orchestrator stopped")
}

// ProcessPending drains the queue synchronously until it is empty or
// the context is cancelled. Useful for one-shot runs.
func (o *Orchestrator) ProcessPending(ctx context.Context) error {
	for o.queue.Len() > 0 {
		task, err := o.queue.Dequeue(ctx)
		if err != nil {
			return err
		}
		o.dispatch(ctx, task)
	}
	return nil
}

func (o *Orchestrator) dispatchLoop(ctx context.Context) {
	defer o.wg.Done()
	for {
		task, err := o.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		o.dispatch(ctx, task)
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, task *message.Task) {
	o.mu.RLock()
	name, routed := o.routes[task.TaskType]
	a := o.agents[name]
	o.mu.RUnlock()
	if !routed || a == nil {
		result := &message.Result{
			Status: message.StatusFailed,
			Error:  fmt.Sprintf("no agent registered for task type %q", task.TaskType),
		}
		o.logger.Error("routing failed",
			zap.String("task_id", task.TaskID),
			zap.String("task_type", task.TaskType))
		o.finish(task, result)
		return
	}

	attempt := o.state.Assign(task.TaskID, name)
	o.logger.Info("dispatching task",
		zap.String("task_id", task.TaskID),
		zap.String("task_type", task.TaskType),
		zap.String("agent", name),
		zap.Int("attempt", attempt))

	result, err := a.ExecuteTask(ctx, task)
	if err != nil {
		o.recover(task, &message.Result{Status: message.StatusFailed, Error: err.Error()})
		return
	}
	if result == nil {
		result = &message.Result{Status: message.StatusFailed, Error: "agent returned no result"}
	}
	if !result.Succeeded() {
		o.recover(task, result)
		return
	}
	o.state.Complete(task.TaskID, result)
	o.notify(task, result)
	o.logger.Info("task completed",
		zap.String("task_id", task.TaskID),
		zap.String("agent", name),
		zap.String("model", result.ModelUsed))
}

// recover applies the retry-then-escalate policy. A failing task is
// re-queued until the attempt budget runs out, then marked failed and
// surfaced to callbacks.
func (o *Orchestrator) recover(task *message.Task, result *message.Result) {
	attempts := o.state.Attempts(task.TaskID)
	if attempts < o.maxRetries {
		o.state.SetStatus(task.TaskID, message.StatusRetrying)
		o.logger.Warn("task failed, retrying",
			zap.String("task_id", task.TaskID),
			zap.Int("attempt", attempts),
			zap.String("strategy", string(message.RecoveryRetry)),
			zap.String("error", result.Error))
		if err := o.queue.Enqueue(task); err == nil {
			return
		}
		// queue full: fall through to escalation
	}
	o.logger.Error("task escalated after retries",
		zap.String("task_id", task.TaskID),
		zap.Int("attempts", attempts),
		zap.String("strategy", string(message.RecoveryEscalate)),
		zap.String("error", result.Error))
	o.finish(task, result)
}

// finish records a terminal failure and notifies listeners.
func (o *Orchestrator) finish(task *message.Task, result *message.Result) {
	o.state.Fail(task.TaskID, result)
	o.notify(task, result)
}

func (o *Orchestrator) notify(task *message.Task, result *message.Result) {
	payload := map[string]any{
		"model_used": result.ModelUsed,
		"artifacts":  result.Artifacts,
	}
	if result.Error != "" {
		payload["error"] = result.Error
	}
	resp := message.NewResponse("orchestrator", task.TaskID, result.Status, payload)
	o.cbMu.RLock()
	callbacks := o.callbacks
	o.cbMu.RUnlock()
	for _, cb := range callbacks {
		cb(resp)
	}
	if task.ParentID != "" {
		o.rollup(task.ParentID)
	}
}

// rollup promotes a parent task when all of its subtasks finished.
func (o *Orchestrator) rollup(parentID string) {
	sum := o.state.Summary(parentID)
	if !sum.Done() {
		return
	}
	status := message.StatusCompleted
	if sum.Failed > 0 {
		status = message.StatusFailed
	}
	o.state.SetStatus(parentID, status)
	o.logger.Info("workflow finished",
		zap.String("task_id", parentID),
		zap.Int("completed", sum.Completed),
		zap.Int("failed", sum.Failed))
}

func (o *Orchestrator) feedbackLoop(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-o.statusCh:
			o.state.SetProgress(update.TaskID, update.Progress, update.Stage)
			o.logger.Debug("progress",
				zap.String("task_id", update.TaskID),
				zap.String("sender", update.Sender),
				zap.Int("progress", update.Progress),
				zap.String("stage", update.Stage))
		case errMsg := <-o.errorCh:
			o.logger.Warn("agent error",
				zap.String("task_id", errMsg.TaskID),
				zap.String("sender", errMsg.Sender),
				zap.String("code", errMsg.Code),
				zap.String("severity", string(errMsg.Severity)),
				zap.String("description", errMsg.Description))
		}
	}
}

// TaskStatus returns the tracked record for a task.
func (o *Orchestrator) TaskStatus(taskID string) (TaskRecord, bool) {
	return o.state.Get(taskID)
}

// WorkflowStatus rolls up a composite task's subtasks.
func (o *Orchestrator) WorkflowStatus(taskID string) WorkflowSummary {
	return o.state.Summary(taskID)
}

// QueueDepth reports how many tasks are waiting.
func (o *Orchestrator) QueueDepth() int { return o.queue.Len() }

// SetDefaultModel changes the fallback model at runtime.
func (o *Orchestrator) SetDefaultModel(name string) bool {
	ok := o.registry.SetDefault(name)
	if ok {
		o.logger.Info("default model changed", zap.String("model", name))
	} else {
		o.logger.Warn("default model rejected, not registered", zap.String("model", name))
	}
	return ok
}
