package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"codecrew/internal/message"
)

// Coder handles implementation work: turning component specifications
// into source skeletons and refactoring existing code.
type Coder struct {
	Base
}

// NewCoder creates the implementation agent.
func NewCoder(reporter *Reporter, logger *zap.Logger) *Coder {
	return &Coder{Base: NewBase("coder", reporter, logger)}
}

// TaskTypes lists the task types the coder accepts.
func (c *Coder) TaskTypes() []string {
	return []string{"implement_component", "implement_interface", "refactor_code"}
}

// ExecuteTask dispatches on the task type and reports progress while
// generating code artifacts.
func (c *Coder) ExecuteTask(ctx context.Context, task *message.Task) (*message.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model := modelFor(task, "")
	c.logger.Info("executing task",
		zap.String("task_id", task.TaskID),
		zap.String("task_type", task.TaskType),
		zap.String("model", model))

	artifacts := map[string]any{}
	switch task.TaskType {
	case "implement_component":
		name := task.Payload.ComponentName
		if name == "" {
			name = "component"
		}
		c.progress(task.TaskID, 30, "generating component skeleton")
		code := c.implementComponent(name, task.Payload.Specification)
		c.progress(task.TaskID, 80, "writing documentation")
		artifacts["code"] = code
		artifacts["documentation"] = c.document(name, task.Payload.Specification)
	case "implement_interface":
		c.progress(task.TaskID, 50, "generating interface stubs")
		artifacts["code"] = c.implementInterface(task.Payload.Components)
	case "refactor_code":
		if task.Payload.Code == "" {
			c.reportError(task.TaskID, "missing_code", message.SeverityWarning,
				"refactor_code task carried no source code")
			return &message.Result{Status: message.StatusFailed, Error: "no code to refactor"}, nil
		}
		c.progress(task.TaskID, 50, "refactoring")
		code, notes := c.refactor(task.Payload.Code)
		artifacts["code"] = code
		artifacts["refactoring_notes"] = notes
	default:
		c.reportError(task.TaskID, "unsupported_task_type", message.SeverityWarning,
			fmt.Sprintf("coder cannot handle task type %q", task.TaskType))
		return &message.Result{
			Status: message.StatusFailed,
			Error:  fmt.Sprintf("unsupported task type %q", task.TaskType),
		}, nil
	}

	c.progress(task.TaskID, 100, "complete")
	return &message.Result{
		Status:    message.StatusCompleted,
		ModelUsed: model,
		Artifacts: artifacts,
	}, nil
}

// implementComponent renders a type skeleton with one method per
// responsibility named in the specification.
func (c *Coder) implementComponent(name string, spec map[string]any) string {
	var b strings.Builder
	typeName := exportedName(name)
	fmt.Fprintf(&b, "// %s implements the %s component.\n", typeName, name)
	fmt.Fprintf(&b, "type %s struct {}\n", typeName)
	for _, resp := range stringSlice(spec["responsibilities"]) {
		method := exportedName(resp)
		fmt.Fprintf(&b, "\n// %s: %s.\nfunc (c *%s) %s() error {\n\treturn nil\n}\n",
			method, resp, typeName, method)
	}
	return b.String()
}

// implementInterface emits one interface declaration per component.
func (c *Coder) implementInterface(components []string) string {
	var b strings.Builder
	for i, name := range components {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "// %sService is the contract exposed by %s.\n", exportedName(name), name)
		fmt.Fprintf(&b, "type %sService interface {\n\tHealthy() bool\n}\n", exportedName(name))
	}
	return b.String()
}

// refactor applies mechanical cleanups and reports what changed.
func (c *Coder) refactor(code string) (string, []string) {
	var notes []string
	lines := strings.Split(code, "\n")
	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed != line {
			notes = append(notes, "stripped trailing whitespace")
		}
		out = append(out, trimmed)
	}
	// collapse runs of blank lines
	var cleaned []string
	blank := 0
	for _, line := range out {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				notes = append(notes, "collapsed consecutive blank lines")
				continue
			}
		} else {
			blank = 0
		}
		cleaned = append(cleaned, line)
	}
	notes = dedupe(notes)
	sort.Strings(notes)
	return strings.Join(cleaned, "\n"), notes
}

func (c *Coder) document(name string, spec map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)
	if resp := stringSlice(spec["responsibilities"]); len(resp) > 0 {
		b.WriteString("Responsibilities:\n")
		for _, r := range resp {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	if ifaces := stringSlice(spec["interfaces"]); len(ifaces) > 0 {
		b.WriteString("\nInterfaces:\n")
		for _, i := range ifaces {
			fmt.Fprintf(&b, "- %s\n", i)
		}
	}
	return b.String()
}

// exportedName converts free text like "render user interface" into a
// Go exported identifier.
func exportedName(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	})
	var b strings.Builder
	for _, w := range words {
		b.WriteString(strings.ToUpper(w[:1]))
		if len(w) > 1 {
			b.WriteString(strings.ToLower(w[1:]))
		}
	}
	if b.Len() == 0 {
		return "Component"
	}
	return b.String()
}

// stringSlice coerces spec payload values, which arrive as decoded
// JSON, into a string slice.
func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
