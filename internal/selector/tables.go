package selector

import (
	"strings"

	"codecrew/internal/registry"
)

// taskCapabilities maps a task type to the base capability tags a model
// must carry to be a candidate. Unknown task types fall back to
// defaultCapabilities. Centralized here so new task types are table
// additions, not logic edits.
var taskCapabilities = map[string][]string{
	"system_design":        {registry.CapReasoning, registry.CapCodeGeneration},
	"component_design":     {registry.CapReasoning, registry.CapCodeGeneration},
	"interface_design":     {registry.CapReasoning, registry.CapCodeGeneration},
	"analyze_requirements": {registry.CapReasoning},
	"implement_component":  {registry.CapCodeGeneration},
	"implement_interface":  {registry.CapCodeGeneration},
	"refactor_code":        {registry.CapCodeGeneration},
	"fix_bug":              {registry.CapCodeGeneration, registry.CapDebugging},
	"test_component":       {registry.CapCodeGeneration, registry.CapDebugging},
	"validate_interface":   {registry.CapCodeGeneration, registry.CapDebugging},
	"performance_test":     {registry.CapDebugging},
	"debugging":            {registry.CapReasoning, registry.CapCodeGeneration},
}

// defaultCapabilities is the minimal requirement for task types the
// table does not know.
var defaultCapabilities = []string{registry.CapInstructionFollowing}

// taskMetrics maps a task type to the performance metrics that matter
// when ranking candidates for it. Unknown task types score on the
// generic `quality` metric.
var taskMetrics = map[string][]string{
	"system_design":        {"system_design", "reasoning"},
	"component_design":     {"system_design", "reasoning"},
	"interface_design":     {"system_design", "reasoning"},
	"analyze_requirements": {"reasoning"},
	"implement_component":  {"code_generation"},
	"implement_interface":  {"code_generation"},
	"refactor_code":        {"code_generation"},
	"fix_bug":              {"debugging", "code_generation"},
	"test_component":       {"debugging", "code_generation"},
	"validate_interface":   {"debugging", "code_generation"},
	"performance_test":     {"debugging"},
}

var defaultMetrics = []string{"quality"}

// requirementCue adds a capability when a cue word appears in a
// free-text requirement (already lowercased).
type requirementCue struct {
	words      []string
	capability string
}

var requirementCues = []requirementCue{
	{words: []string{"complex", "reasoning"}, capability: registry.CapReasoning},
	{words: []string{"optimize", "performance"}, capability: registry.CapCodeGeneration},
	{words: []string{"security"}, capability: registry.CapSecurity},
}

func baseCapabilities(taskType string) []string {
	if caps, ok := taskCapabilities[taskType]; ok {
		return caps
	}
	return defaultCapabilities
}

func relevantMetrics(taskType string) []string {
	if metrics, ok := taskMetrics[taskType]; ok {
		return metrics
	}
	return defaultMetrics
}

func (c requirementCue) matches(requirement string) bool {
	for _, w := range c.words {
		if strings.Contains(requirement, w) {
			return true
		}
	}
	return false
}
