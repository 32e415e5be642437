package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"codecrew/internal/message"
)

func TestArchitectSystemDesign(t *testing.T) {
	a := NewArchitect(nil, zaptest.NewLogger(t))

	task := message.NewTask("system_design", message.Payload{
		Requirements: []string{
			"users shall authenticate with the api before checkout",
			"the system must meet strict performance targets",
		},
		Model: "Claude-3.5-Opus",
	})
	result, err := a.ExecuteTask(context.Background(), task)
	require.NoError(t, err)
	require.True(t, result.Succeeded())
	assert.Equal(t, "Claude-3.5-Opus", result.ModelUsed)

	design, ok := result.Artifacts["design"].(Design)
	require.True(t, ok)
	assert.Equal(t, "layered", design.Pattern)

	var names []string
	for _, c := range design.Components {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "frontend")
	assert.Contains(t, names, "backend")
	assert.Contains(t, names, "database")
	assert.Contains(t, names, "auth_service", "authentication requirement adds an auth service")
	assert.Contains(t, names, "api_gateway", "api requirement adds a gateway")
	assert.Contains(t, names, "cache", "performance requirement adds a cache")

	assert.NotEmpty(t, design.Implications)

	specs, ok := result.Artifacts["specifications"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, specs, "backend")
}

func TestArchitectRequirementClassification(t *testing.T) {
	a := NewArchitect(nil, zaptest.NewLogger(t))

	analysis := a.analyzeRequirements([]string{
		"the system shall store orders",
		"response time is a key performance goal",
		"security audits must pass quarterly",
	})
	assert.Equal(t, []string{"the system shall store orders"}, analysis.Functional)
	assert.Len(t, analysis.NonFunctional, 2)
}

func TestArchitectInterfaceDesign(t *testing.T) {
	a := NewArchitect(nil, zaptest.NewLogger(t))

	task := message.NewTask("interface_design", message.Payload{
		Components:   []string{"frontend", "backend", "database"},
		Requirements: []string{"components communicate via an event queue"},
	})
	result, err := a.ExecuteTask(context.Background(), task)
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	specs, ok := result.Artifacts["interfaces"].([]string)
	require.True(t, ok)
	assert.Len(t, specs, 3, "one contract per component pair")
	for _, spec := range specs {
		assert.Contains(t, spec, "event-driven")
	}
}

func TestArchitectRejectsUnknownTaskType(t *testing.T) {
	errCh := make(chan *message.ErrorMessage, 1)
	a := NewArchitect(NewReporter(nil, errCh), zaptest.NewLogger(t))

	task := message.NewTask("implement_component", message.Payload{})
	result, err := a.ExecuteTask(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, message.StatusFailed, result.Status)

	select {
	case errMsg := <-errCh:
		assert.Equal(t, "unsupported_task_type", errMsg.Code)
		assert.Equal(t, message.SeverityWarning, errMsg.Severity)
	default:
		t.Fatal("expected an error message on the reporter channel")
	}
}

func TestArchitectHonorsCancelledContext(t *testing.T) {
	a := NewArchitect(nil, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.ExecuteTask(ctx, message.NewTask("system_design", message.Payload{}))
	require.ErrorIs(t, err, context.Canceled)
}

func TestReporterDoesNotBlockWhenFull(t *testing.T) {
	statusCh := make(chan *message.StatusUpdate, 1)
	r := NewReporter(statusCh, nil)
	r.Status(message.NewStatusUpdate("architect", "t-1", 10, "a"))
	// channel is full now; the second send must be dropped, not block
	r.Status(message.NewStatusUpdate("architect", "t-1", 20, "b"))
	assert.Len(t, statusCh, 1)

	// nil channels are a no-op
	r.Error(message.NewErrorMessage("architect", "t-1", "x", message.SeverityInfo, ""))
}
