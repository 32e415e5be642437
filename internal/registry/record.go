package registry

// SizeClass buckets models by parameter-count tier. Larger tiers are
// preferred by the selector when performance ties.
type SizeClass string

const (
	SizeLarge  SizeClass = "large"
	SizeMedium SizeClass = "medium"
	SizeSmall  SizeClass = "small"
)

// Cost holds per-token pricing for a model. Values are USD per token.
type Cost struct {
	InputTokens  float64 `yaml:"input_tokens" json:"input_tokens"`
	OutputTokens float64 `yaml:"output_tokens" json:"output_tokens"`
}

// Record describes one model in the catalog: its identity, what it can
// do, how well it scores on each metric, and what it costs to run.
type Record struct {
	Name          string             `yaml:"name" json:"name"`
	Provider      string             `yaml:"provider" json:"provider"`
	Version       string             `yaml:"version,omitempty" json:"version,omitempty"`
	Size          SizeClass          `yaml:"size" json:"size"`
	Capabilities  []string           `yaml:"capabilities" json:"capabilities"`
	Performance   map[string]float64 `yaml:"performance" json:"performance"`
	Cost          Cost               `yaml:"cost" json:"cost"`
	ContextWindow int                `yaml:"context_window,omitempty" json:"context_window,omitempty"`
	Description   string             `yaml:"description,omitempty" json:"description,omitempty"`
}

// HasCapability reports whether the record carries the given capability tag.
func (r Record) HasCapability(capability string) bool {
	for _, c := range r.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// HasAllCapabilities reports whether the record carries every tag in required.
func (r Record) HasAllCapabilities(required []string) bool {
	for _, c := range required {
		if !r.HasCapability(c) {
			return false
		}
	}
	return true
}

// AveragePerformance returns the mean of all performance metrics, or 0
// when the record has none.
func (r Record) AveragePerformance() float64 {
	if len(r.Performance) == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.Performance {
		sum += v
	}
	return sum / float64(len(r.Performance))
}
