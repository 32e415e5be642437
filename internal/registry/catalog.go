package registry

// builtinDefaultModel is the terminal fallback for every selection
// failure path when no catalog file overrides it.
const builtinDefaultModel = "Claude-3.7-Sonnet"

// Capability tags used by the built-in catalog and the selector's
// inference tables.
const (
	CapReasoning            = "reasoning"
	CapCodeGeneration       = "code_generation"
	CapDebugging            = "debugging"
	CapSecurity             = "security"
	CapInstructionFollowing = "instruction_following"
	CapSystemDesign         = "system_design"
)

// builtinCatalog returns the default model set. The `quality` metric is
// a generic overall score used for ranking task types that have no
// dedicated metric set.
func builtinCatalog() []Record {
	return []Record{
		{
			Name:         "Claude-3.7-Sonnet",
			Provider:     "anthropic",
			Version:      "3.7",
			Size:         SizeMedium,
			Capabilities: []string{CapReasoning, CapCodeGeneration, CapDebugging, CapInstructionFollowing, CapSystemDesign, CapSecurity},
			Performance: map[string]float64{
				"reasoning":       0.90,
				"code_generation": 0.85,
				"system_design":   0.90,
				"debugging":       0.80,
				"quality":         0.87,
			},
			Cost:          Cost{InputTokens: 0.00000325, OutputTokens: 0.0000155},
			ContextWindow: 200000,
			Description:   "Strong reasoning and code generation at mid-tier cost.",
		},
		{
			Name:         "Claude-3.5-Sonnet",
			Provider:     "anthropic",
			Version:      "3.5",
			Size:         SizeMedium,
			Capabilities: []string{CapReasoning, CapCodeGeneration, CapDebugging, CapInstructionFollowing, CapSystemDesign},
			Performance: map[string]float64{
				"reasoning":       0.85,
				"code_generation": 0.80,
				"system_design":   0.85,
				"debugging":       0.75,
				"quality":         0.81,
			},
			Cost:          Cost{InputTokens: 0.000003, OutputTokens: 0.000015},
			ContextWindow: 200000,
			Description:   "Balanced performance across a range of tasks.",
		},
		{
			Name:         "Claude-3.5-Haiku",
			Provider:     "anthropic",
			Version:      "3.5",
			Size:         SizeSmall,
			Capabilities: []string{CapReasoning, CapCodeGeneration, CapInstructionFollowing},
			Performance: map[string]float64{
				"reasoning":       0.80,
				"code_generation": 0.75,
				"system_design":   0.70,
				"debugging":       0.65,
				"quality":         0.72,
			},
			Cost:          Cost{InputTokens: 0.00000025, OutputTokens: 0.00000125},
			ContextWindow: 200000,
			Description:   "Fast and cost-effective for simpler tasks.",
		},
		{
			Name:         "Claude-3.5-Opus",
			Provider:     "anthropic",
			Version:      "3.5",
			Size:         SizeLarge,
			Capabilities: []string{CapReasoning, CapCodeGeneration, CapDebugging, CapInstructionFollowing, CapSystemDesign, CapSecurity},
			Performance: map[string]float64{
				"reasoning":       0.95,
				"code_generation": 0.90,
				"system_design":   0.95,
				"debugging":       0.90,
				"quality":         0.92,
			},
			Cost:          Cost{InputTokens: 0.000015, OutputTokens: 0.000075},
			ContextWindow: 200000,
			Description:   "Highest-capability tier for complex problem solving.",
		},
		{
			Name:         "GPT-4o",
			Provider:     "openai",
			Version:      "4o",
			Size:         SizeMedium,
			Capabilities: []string{CapReasoning, CapCodeGeneration, CapDebugging, CapInstructionFollowing, CapSystemDesign},
			Performance: map[string]float64{
				"reasoning":       0.90,
				"code_generation": 0.90,
				"system_design":   0.85,
				"debugging":       0.85,
				"quality":         0.87,
			},
			Cost:          Cost{InputTokens: 0.00001, OutputTokens: 0.00003},
			ContextWindow: 128000,
			Description:   "Versatile general-purpose model.",
		},
	}
}
