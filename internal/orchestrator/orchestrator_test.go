package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"codecrew/internal/message"
	"codecrew/internal/registry"
	"codecrew/internal/selector"
)

// stubAgent is a scriptable agent for orchestrator tests.
type stubAgent struct {
	name  string
	types []string

	mu       sync.Mutex
	calls    int
	failures int
	execErr  error
	models   []string
}

func (s *stubAgent) Name() string        { return s.name }
func (s *stubAgent) TaskTypes() []string { return s.types }

func (s *stubAgent) ExecuteTask(_ context.Context, task *message.Task) (*message.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.models = append(s.models, task.Payload.Model)
	if s.execErr != nil {
		return nil, s.execErr
	}
	if s.calls <= s.failures {
		return &message.Result{Status: message.StatusFailed, Error: "scripted failure"}, nil
	}
	return &message.Result{
		Status:    message.StatusCompleted,
		ModelUsed: task.Payload.Model,
		Artifacts: map[string]any{"done": true},
	}, nil
}

func (s *stubAgent) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestOrchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()
	reg := registry.New("")
	sel := selector.New(reg)
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return New(reg, sel, opts...)
}

func TestSubmitAndProcess(t *testing.T) {
	orch := newTestOrchestrator(t)
	stub := &stubAgent{name: "debugger", types: []string{"fix_bug"}}
	orch.RegisterAgent(stub)

	var responses []*message.Response
	orch.RegisterCallback(func(r *message.Response) { responses = append(responses, r) })

	task := message.NewTask("fix_bug", message.Payload{})
	id, err := orch.SubmitTask(task)
	require.NoError(t, err)
	require.Equal(t, 1, orch.QueueDepth())

	require.NoError(t, orch.ProcessPending(context.Background()))

	rec, ok := orch.TaskStatus(id)
	require.True(t, ok)
	assert.Equal(t, message.StatusCompleted, rec.Status)
	assert.Equal(t, "debugger", rec.AssignedTo)

	require.Len(t, responses, 1)
	assert.Equal(t, id, responses[0].TaskID)
	assert.Equal(t, message.StatusCompleted, responses[0].Status)
}

func TestAutoSelectAssignsModel(t *testing.T) {
	orch := newTestOrchestrator(t)
	stub := &stubAgent{name: "architect", types: []string{"system_design"}}
	orch.RegisterAgent(stub)

	_, err := orch.SubmitTask(message.NewTask("system_design", message.Payload{}))
	require.NoError(t, err)
	require.NoError(t, orch.ProcessPending(context.Background()))

	require.Len(t, stub.models, 1)
	assert.Equal(t, "Claude-3.5-Opus", stub.models[0])
}

func TestAutoSelectDisabledUsesDefault(t *testing.T) {
	orch := newTestOrchestrator(t, WithAutoSelect(false))
	stub := &stubAgent{name: "architect", types: []string{"system_design"}}
	orch.RegisterAgent(stub)

	_, err := orch.SubmitTask(message.NewTask("system_design", message.Payload{}))
	require.NoError(t, err)
	require.NoError(t, orch.ProcessPending(context.Background()))

	require.Len(t, stub.models, 1)
	assert.Equal(t, "Claude-3.7-Sonnet", stub.models[0])
}

func TestRetryThenEscalate(t *testing.T) {
	orch := newTestOrchestrator(t, WithMaxRetries(2))
	stub := &stubAgent{name: "coder", types: []string{"refactor_code"}, execErr: errors.New("boom")}
	orch.RegisterAgent(stub)

	var responses []*message.Response
	orch.RegisterCallback(func(r *message.Response) { responses = append(responses, r) })

	id, err := orch.SubmitTask(message.NewTask("refactor_code", message.Payload{Code: "x"}))
	require.NoError(t, err)
	require.NoError(t, orch.ProcessPending(context.Background()))

	assert.Equal(t, 2, stub.callCount(), "one initial attempt plus one retry")
	rec, ok := orch.TaskStatus(id)
	require.True(t, ok)
	assert.Equal(t, message.StatusFailed, rec.Status)
	assert.Equal(t, 2, rec.Attempts)

	// only the terminal escalation produces a response
	require.Len(t, responses, 1)
	assert.Equal(t, message.StatusFailed, responses[0].Status)
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	orch := newTestOrchestrator(t, WithMaxRetries(3))
	stub := &stubAgent{name: "coder", types: []string{"refactor_code"}, failures: 1}
	orch.RegisterAgent(stub)

	id, err := orch.SubmitTask(message.NewTask("refactor_code", message.Payload{Code: "x"}))
	require.NoError(t, err)
	require.NoError(t, orch.ProcessPending(context.Background()))

	assert.Equal(t, 2, stub.callCount())
	rec, _ := orch.TaskStatus(id)
	assert.Equal(t, message.StatusCompleted, rec.Status)
}

func TestNoAgentRegistered(t *testing.T) {
	orch := newTestOrchestrator(t)

	var responses []*message.Response
	orch.RegisterCallback(func(r *message.Response) { responses = append(responses, r) })

	id, err := orch.SubmitTask(message.NewTask("fix_bug", message.Payload{}))
	require.NoError(t, err)
	require.NoError(t, orch.ProcessPending(context.Background()))

	rec, _ := orch.TaskStatus(id)
	assert.Equal(t, message.StatusFailed, rec.Status)
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Result["error"], "no agent registered")
}

func TestDecomposeWorkflow(t *testing.T) {
	orch := newTestOrchestrator(t)
	orch.RegisterAgent(&stubAgent{name: "architect", types: []string{"system_design"}})
	orch.RegisterAgent(&stubAgent{name: "coder", types: []string{"implement_component"}})
	orch.RegisterAgent(&stubAgent{name: "debugger", types: []string{"test_component"}})

	parent := message.NewTask("implement_system", message.Payload{
		Requirements:  []string{"users shall authenticate"},
		ComponentName: "auth_service",
	})
	parent.Priority = message.PriorityHigh

	id, err := orch.SubmitTask(parent)
	require.NoError(t, err)
	assert.Equal(t, 3, orch.QueueDepth(), "composite task expands to three subtasks")

	require.NoError(t, orch.ProcessPending(context.Background()))

	sum := orch.WorkflowStatus(id)
	assert.Equal(t, WorkflowSummary{Total: 3, Completed: 3}, sum)

	rec, ok := orch.TaskStatus(id)
	require.True(t, ok)
	assert.Equal(t, message.StatusCompleted, rec.Status, "parent rolls up once subtasks finish")
}

func TestDecomposeSubtaskFailureFailsWorkflow(t *testing.T) {
	orch := newTestOrchestrator(t, WithMaxRetries(1))
	orch.RegisterAgent(&stubAgent{name: "architect", types: []string{"system_design"}})
	orch.RegisterAgent(&stubAgent{name: "coder", types: []string{"implement_component"}, execErr: errors.New("boom")})
	orch.RegisterAgent(&stubAgent{name: "debugger", types: []string{"test_component"}})

	id, err := orch.SubmitTask(message.NewTask("implement_system", message.Payload{}))
	require.NoError(t, err)
	require.NoError(t, orch.ProcessPending(context.Background()))

	sum := orch.WorkflowStatus(id)
	assert.Equal(t, WorkflowSummary{Total: 3, Completed: 2, Failed: 1}, sum)
	rec, _ := orch.TaskStatus(id)
	assert.Equal(t, message.StatusFailed, rec.Status)
}

func TestStartShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	orch := newTestOrchestrator(t)
	stub := &stubAgent{name: "debugger", types: []string{"fix_bug"}}
	orch.RegisterAgent(stub)

	done := make(chan *message.Response, 1)
	orch.RegisterCallback(func(r *message.Response) { done <- r })

	orch.Start(context.Background())

	id, err := orch.SubmitTask(message.NewTask("fix_bug", message.Payload{}))
	require.NoError(t, err)

	select {
	case resp := <-done:
		assert.Equal(t, id, resp.TaskID)
		assert.Equal(t, message.StatusCompleted, resp.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("task never completed")
	}

	orch.Shutdown()
}

func TestFeedbackLoopRecordsProgress(t *testing.T) {
	defer goleak.VerifyNone(t)

	orch := newTestOrchestrator(t)
	stub := &stubAgent{name: "debugger", types: []string{"fix_bug"}}
	orch.RegisterAgent(stub)
	orch.Start(context.Background())
	defer orch.Shutdown()

	task := message.NewTask("fix_bug", message.Payload{})
	id, err := orch.SubmitTask(task)
	require.NoError(t, err)

	reporter := orch.Reporter()
	reporter.Status(message.NewStatusUpdate("debugger", id, 50, "diagnosing"))

	require.Eventually(t, func() bool {
		rec, ok := orch.TaskStatus(id)
		return ok && rec.Progress == 100 || (ok && rec.Stage == "diagnosing")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetDefaultModel(t *testing.T) {
	orch := newTestOrchestrator(t)
	assert.True(t, orch.SetDefaultModel("GPT-4o"))
	assert.False(t, orch.SetDefaultModel("ghost"))
}
