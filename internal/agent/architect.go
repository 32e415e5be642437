package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"codecrew/internal/message"
)

// Architect handles system design work: analyzing requirements,
// sketching component topologies, and producing interface
// specifications for downstream implementation tasks.
type Architect struct {
	Base
}

// NewArchitect creates the design agent.
func NewArchitect(reporter *Reporter, logger *zap.Logger) *Architect {
	return &Architect{Base: NewBase("architect", reporter, logger)}
}

// TaskTypes lists the task types the architect accepts.
func (a *Architect) TaskTypes() []string {
	return []string{"system_design", "component_design", "interface_design", "analyze_requirements"}
}

// Component is one node of a proposed system design.
type Component struct {
	Name             string   `json:"name"`
	Responsibilities []string `json:"responsibilities"`
	Interfaces       []string `json:"interfaces"`
	Layer            string   `json:"layer"`
}

// Design is the architect's output for a system design task.
type Design struct {
	Pattern       string      `json:"pattern"`
	Components    []Component `json:"components"`
	Communication []string    `json:"communication"`
	Implications  []string    `json:"design_implications"`
}

// RequirementAnalysis splits requirements into functional and
// non-functional groups.
type RequirementAnalysis struct {
	Functional    []string `json:"functional"`
	NonFunctional []string `json:"non_functional"`
}

// ExecuteTask dispatches on the task type and reports progress as the
// design phases complete.
func (a *Architect) ExecuteTask(ctx context.Context, task *message.Task) (*message.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model := modelFor(task, "")
	a.logger.Info("executing task",
		zap.String("task_id", task.TaskID),
		zap.String("task_type", task.TaskType),
		zap.String("model", model))

	a.progress(task.TaskID, 10, "analyzing requirements")
	analysis := a.analyzeRequirements(task.Payload.Requirements)

	artifacts := map[string]any{"requirement_analysis": analysis}

	switch task.TaskType {
	case "system_design":
		a.progress(task.TaskID, 40, "identifying components")
		components := a.identifyComponents(task.Payload.Requirements)
		a.progress(task.TaskID, 70, "defining architecture")
		design := a.defineArchitecture(components, task.Payload.Requirements)
		artifacts["design"] = design
		artifacts["specifications"] = a.createSpecifications(design)
	case "component_design":
		name := task.Payload.ComponentName
		if name == "" {
			name = "component"
		}
		a.progress(task.TaskID, 60, "designing component")
		artifacts["component"] = a.designComponent(name, task.Payload.Requirements)
	case "interface_design":
		a.progress(task.TaskID, 60, "defining interfaces")
		artifacts["interfaces"] = a.interfaceSpecs(task.Payload.Components, task.Payload.Requirements)
	case "analyze_requirements":
		// analysis alone is the deliverable
	default:
		a.reportError(task.TaskID, "unsupported_task_type", message.SeverityWarning,
			fmt.Sprintf("architect cannot handle task type %q", task.TaskType))
		return &message.Result{
			Status: message.StatusFailed,
			Error:  fmt.Sprintf("unsupported task type %q", task.TaskType),
		}, nil
	}

	a.progress(task.TaskID, 100, "complete")
	return &message.Result{
		Status:    message.StatusCompleted,
		ModelUsed: model,
		Artifacts: artifacts,
	}, nil
}

// analyzeRequirements classifies each requirement. Statements phrased
// with shall/must/will are functional; quality keywords mark
// non-functional ones. Anything else defaults to functional.
func (a *Architect) analyzeRequirements(requirements []string) RequirementAnalysis {
	nonFunctionalCues := []string{"performance", "security", "usability", "reliability", "scalability", "maintainability"}
	var analysis RequirementAnalysis
	for _, req := range requirements {
		lower := strings.ToLower(req)
		nonFunctional := false
		for _, cue := range nonFunctionalCues {
			if strings.Contains(lower, cue) {
				nonFunctional = true
				break
			}
		}
		if nonFunctional {
			analysis.NonFunctional = append(analysis.NonFunctional, req)
		} else {
			analysis.Functional = append(analysis.Functional, req)
		}
	}
	return analysis
}

// identifyComponents seeds the standard three-tier split, then adds
// components the requirements call for.
func (a *Architect) identifyComponents(requirements []string) []string {
	components := []string{"frontend", "backend", "database"}
	joined := strings.ToLower(strings.Join(requirements, " "))
	if strings.Contains(joined, "authenticat") || strings.Contains(joined, "login") {
		components = append(components, "auth_service")
	}
	if strings.Contains(joined, "api") {
		components = append(components, "api_gateway")
	}
	if strings.Contains(joined, "cache") || strings.Contains(joined, "performance") {
		components = append(components, "cache")
	}
	return components
}

// defineArchitecture assigns each component to a layer and settles the
// communication style.
func (a *Architect) defineArchitecture(names []string, requirements []string) Design {
	design := Design{Pattern: "layered"}
	for _, name := range names {
		design.Components = append(design.Components, Component{
			Name:             name,
			Responsibilities: responsibilitiesFor(name),
			Interfaces:       interfacesFor(name),
			Layer:            layerFor(name),
		})
	}
	design.Communication = a.communicationPatterns(requirements)
	design.Implications = a.designImplications(requirements)
	return design
}

// designComponent produces a single component's specification.
func (a *Architect) designComponent(name string, requirements []string) Component {
	return Component{
		Name:             name,
		Responsibilities: responsibilitiesFor(name),
		Interfaces:       interfacesFor(name),
		Layer:            layerFor(name),
	}
}

// interfaceSpecs writes one interface contract per component pair.
func (a *Architect) interfaceSpecs(components []string, requirements []string) []string {
	async := false
	joined := strings.ToLower(strings.Join(requirements, " "))
	for _, cue := range []string{"async", "asynchronous", "event", "queue"} {
		if strings.Contains(joined, cue) {
			async = true
			break
		}
	}
	style := "request/response"
	if async {
		style = "event-driven"
	}
	var specs []string
	for i := 0; i < len(components); i++ {
		for j := i + 1; j < len(components); j++ {
			specs = append(specs, fmt.Sprintf("%s <-> %s: %s", components[i], components[j], style))
		}
	}
	return specs
}

func (a *Architect) communicationPatterns(requirements []string) []string {
	patterns := []string{"synchronous request/response"}
	joined := strings.ToLower(strings.Join(requirements, " "))
	for _, cue := range []string{"async", "asynchronous", "event", "queue"} {
		if strings.Contains(joined, cue) {
			patterns = append(patterns, "asynchronous messaging")
			break
		}
	}
	return patterns
}

// designImplications maps requirement keywords to the architectural
// consequences they carry.
func (a *Architect) designImplications(requirements []string) []string {
	type implication struct {
		cue  string
		note string
	}
	table := []implication{
		{"performance", "introduce caching and measure critical paths"},
		{"security", "isolate authentication and validate all inputs at boundaries"},
		{"scalability", "keep components stateless so they can scale horizontally"},
		{"reliability", "add retries and health checks between components"},
	}
	joined := strings.ToLower(strings.Join(requirements, " "))
	var notes []string
	for _, imp := range table {
		if strings.Contains(joined, imp.cue) {
			notes = append(notes, imp.note)
		}
	}
	return notes
}

// createSpecifications turns a design into per-component implementation
// briefs keyed by component name.
func (a *Architect) createSpecifications(design Design) map[string]any {
	specs := make(map[string]any, len(design.Components))
	for _, c := range design.Components {
		specs[c.Name] = map[string]any{
			"responsibilities": c.Responsibilities,
			"interfaces":       c.Interfaces,
			"layer":            c.Layer,
		}
	}
	return specs
}

func responsibilitiesFor(name string) []string {
	switch name {
	case "frontend":
		return []string{"render user interface", "collect user input"}
	case "backend":
		return []string{"execute business logic", "coordinate data access"}
	case "database":
		return []string{"persist application data", "enforce data integrity"}
	case "auth_service":
		return []string{"authenticate users", "issue and validate sessions"}
	case "api_gateway":
		return []string{"route external requests", "enforce rate limits"}
	case "cache":
		return []string{"serve hot data", "reduce backend load"}
	default:
		return []string{"fulfill " + name + " duties"}
	}
}

func interfacesFor(name string) []string {
	switch name {
	case "frontend":
		return []string{"HTTP UI"}
	case "backend":
		return []string{"service API"}
	case "database":
		return []string{"query interface"}
	case "auth_service":
		return []string{"token API"}
	case "api_gateway":
		return []string{"public API"}
	case "cache":
		return []string{"key lookup"}
	default:
		return []string{name + " API"}
	}
}

func layerFor(name string) string {
	switch name {
	case "frontend", "api_gateway":
		return "presentation"
	case "backend", "auth_service", "cache":
		return "business"
	case "database":
		return "data"
	default:
		return "business"
	}
}
