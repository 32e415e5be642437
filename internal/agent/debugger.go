package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"codecrew/internal/message"
)

// Debugger handles verification work: bug fixing, component testing,
// interface validation, and performance checks.
type Debugger struct {
	Base
}

// NewDebugger creates the verification agent.
func NewDebugger(reporter *Reporter, logger *zap.Logger) *Debugger {
	return &Debugger{Base: NewBase("debugger", reporter, logger)}
}

// TaskTypes lists the task types the debugger accepts.
func (d *Debugger) TaskTypes() []string {
	return []string{"fix_bug", "test_component", "validate_interface", "performance_test"}
}

// Diagnosis records what the debugger found in a bug report and how it
// proposes to address it.
type Diagnosis struct {
	Issues []string `json:"issues"`
	Fixes  []string `json:"fixes"`
}

// TestReport summarizes a test or validation run.
type TestReport struct {
	Total  int      `json:"total"`
	Passed int      `json:"passed"`
	Failed []string `json:"failed"`
}

// ExecuteTask dispatches on the task type.
func (d *Debugger) ExecuteTask(ctx context.Context, task *message.Task) (*message.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model := modelFor(task, "")
	d.logger.Info("executing task",
		zap.String("task_id", task.TaskID),
		zap.String("task_type", task.TaskType),
		zap.String("model", model))

	artifacts := map[string]any{}
	switch task.TaskType {
	case "fix_bug":
		if len(task.Payload.BugReport) == 0 {
			d.reportError(task.TaskID, "missing_bug_report", message.SeverityWarning,
				"fix_bug task carried no bug report")
			return &message.Result{Status: message.StatusFailed, Error: "no bug report"}, nil
		}
		d.progress(task.TaskID, 30, "diagnosing")
		diagnosis := d.diagnose(task.Payload.BugReport)
		d.progress(task.TaskID, 70, "applying fixes")
		artifacts["diagnosis"] = diagnosis
		if task.Payload.Code != "" {
			artifacts["code"] = d.patch(task.Payload.Code, diagnosis)
		}
	case "test_component":
		name := task.Payload.ComponentName
		if name == "" {
			name = "component"
		}
		d.progress(task.TaskID, 50, "running component tests")
		artifacts["report"] = d.testComponent(name, task.Payload.Code)
	case "validate_interface":
		d.progress(task.TaskID, 50, "validating interfaces")
		artifacts["report"] = d.validateInterfaces(task.Payload.Components)
	case "performance_test":
		d.progress(task.TaskID, 50, "measuring")
		artifacts["metrics"] = d.performanceMetrics(task.Payload.Metrics)
	default:
		d.reportError(task.TaskID, "unsupported_task_type", message.SeverityWarning,
			fmt.Sprintf("debugger cannot handle task type %q", task.TaskType))
		return &message.Result{
			Status: message.StatusFailed,
			Error:  fmt.Sprintf("unsupported task type %q", task.TaskType),
		}, nil
	}

	d.progress(task.TaskID, 100, "complete")
	return &message.Result{
		Status:    message.StatusCompleted,
		ModelUsed: model,
		Artifacts: artifacts,
	}, nil
}

// diagnose scans the report's text fields for known failure signatures
// and proposes a fix for each.
func (d *Debugger) diagnose(report map[string]any) Diagnosis {
	type signature struct {
		cue   string
		issue string
		fix   string
	}
	table := []signature{
		{"nil pointer", "nil dereference", "guard the receiver before use"},
		{"index out of range", "out-of-bounds access", "bound the index against the slice length"},
		{"deadlock", "lock ordering conflict", "acquire locks in a single global order"},
		{"race", "unsynchronized shared state", "protect the shared field with a mutex"},
		{"timeout", "operation exceeds its deadline", "propagate a context with a timeout"},
		{"leak", "resource not released", "close the resource in a deferred call"},
	}
	var parts []string
	for _, v := range report {
		if s, ok := v.(string); ok {
			parts = append(parts, s)
		}
	}
	lower := strings.ToLower(strings.Join(parts, " "))
	var diag Diagnosis
	for _, sig := range table {
		if strings.Contains(lower, sig.cue) {
			diag.Issues = append(diag.Issues, sig.issue)
			diag.Fixes = append(diag.Fixes, sig.fix)
		}
	}
	if len(diag.Issues) == 0 {
		diag.Issues = []string{"no known signature matched"}
		diag.Fixes = []string{"reproduce with verbose logging enabled"}
	}
	return diag
}

// patch annotates the code with the proposed fixes. Real patching is
// delegated to the selected model at inference time; the scaffold
// records intent.
func (d *Debugger) patch(code string, diag Diagnosis) string {
	var b strings.Builder
	for _, fix := range diag.Fixes {
		fmt.Fprintf(&b, "// FIX: %s\n", fix)
	}
	b.WriteString(code)
	return b.String()
}

// testComponent exercises basic structural checks on the artifact.
func (d *Debugger) testComponent(name, code string) TestReport {
	checks := []struct {
		name string
		pass bool
	}{
		{"artifact present", code != ""},
		{"component named", name != ""},
		{"no panic markers", !strings.Contains(code, "panic(")},
	}
	report := TestReport{Total: len(checks)}
	for _, c := range checks {
		if c.pass {
			report.Passed++
		} else {
			report.Failed = append(report.Failed, c.name)
		}
	}
	return report
}

// validateInterfaces confirms each named component declares a contract.
func (d *Debugger) validateInterfaces(components []string) TestReport {
	report := TestReport{Total: len(components)}
	for _, name := range components {
		if strings.TrimSpace(name) == "" {
			report.Failed = append(report.Failed, "unnamed component")
			continue
		}
		report.Passed++
	}
	return report
}

// performanceMetrics echoes the requested metric names with baseline
// placeholders so downstream tooling has a stable shape to fill in.
func (d *Debugger) performanceMetrics(requested []string) map[string]float64 {
	if len(requested) == 0 {
		requested = []string{"latency_ms", "throughput"}
	}
	metrics := make(map[string]float64, len(requested))
	for _, name := range requested {
		metrics[name] = 0
	}
	return metrics
}
