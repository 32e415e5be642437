// Package selector picks the most appropriate model for a task based on
// inferred capability requirements, free-text constraints, and weighted
// performance ranking against the model registry.
//
// Select is a total function: every anomaly degrades to a fallback and
// the only trouble signal is a log record plus an optional Decision
// event. The returned name always resolves against the registry.
package selector

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"codecrew/internal/registry"
)

// TaskDescriptor is the only call shape the selector accepts. Callers
// build it from their own task objects.
type TaskDescriptor struct {
	TaskType     string   `json:"task_type"`
	Requirements []string `json:"requirements,omitempty"`
	Constraints  []string `json:"constraints,omitempty"`
	// Model, when set, names a registry entry to use verbatim,
	// bypassing inference, constraints, and ranking.
	Model string `json:"model,omitempty"`
}

// DecisionKind identifies a decision point in the selection pipeline.
type DecisionKind string

const (
	// DecisionExplicitHonored: task.Model named a registry entry.
	DecisionExplicitHonored DecisionKind = "explicit_honored"
	// DecisionExplicitMiss: task.Model named an unknown entry; selection re-entered the pipeline.
	DecisionExplicitMiss DecisionKind = "explicit_miss"
	// DecisionNoCapabilityMatch: no model covered the requirement set; hard fallback.
	DecisionNoCapabilityMatch DecisionKind = "no_capability_match"
	// DecisionConstraintsRelaxed: constraints eliminated every candidate; soft fallback.
	DecisionConstraintsRelaxed DecisionKind = "constraints_relaxed"
	// DecisionRankingEmpty: nothing left to rank; hard fallback.
	DecisionRankingEmpty DecisionKind = "ranking_empty"
	// DecisionSelected: the pipeline produced a ranked winner.
	DecisionSelected DecisionKind = "selected"
)

// Decision is the structured record of one decision point. The selector
// never fails hard; observers watching these events see the full degrade
// path of every call.
type Decision struct {
	Kind         DecisionKind
	TaskType     string
	Model        string
	Capabilities []string
}

// Observer receives Decision events. It is called synchronously on the
// selection goroutine and must not block.
type Observer func(Decision)

// Thresholds are the tunable cutoffs used by constraint rules. The
// values carry no principled derivation; they are configuration.
type Thresholds struct {
	// LowCostOutputTokens is the maximum per-token output cost a model
	// may have and still satisfy a "low cost"/"budget" constraint.
	LowCostOutputTokens float64
	// HighPerformanceAverage is the minimum mean performance a model
	// needs to satisfy a "high performance" constraint.
	HighPerformanceAverage float64
}

// SizeWeights are multiplicative ranking factors per size class, a
// preference weight applied after metric scoring. Larger classes weigh
// above smaller ones so flagship models win performance ties.
type SizeWeights struct {
	Large  float64
	Medium float64
	Small  float64
}

// DefaultThresholds returns the stock constraint cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowCostOutputTokens:    0.00003,
		HighPerformanceAverage: 0.85,
	}
}

// DefaultSizeWeights returns the stock size-class ranking factors.
func DefaultSizeWeights() SizeWeights {
	return SizeWeights{Large: 1.1, Medium: 1.0, Small: 0.9}
}

// Selector chooses models for tasks against an injected registry. Safe
// for concurrent use: a Select call touches only its own locals and the
// registry's read side.
type Selector struct {
	registry   *registry.Registry
	logger     *zap.Logger
	observer   Observer
	thresholds Thresholds
	weights    SizeWeights
}

// Option configures a Selector.
type Option func(*Selector)

// WithLogger sets the logger for decision-point events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver installs a Decision event callback.
func WithObserver(obs Observer) Option {
	return func(s *Selector) { s.observer = obs }
}

// WithThresholds overrides the constraint cutoffs.
func WithThresholds(t Thresholds) Option {
	return func(s *Selector) { s.thresholds = t }
}

// WithSizeWeights overrides the size-class ranking factors.
func WithSizeWeights(w SizeWeights) Option {
	return func(s *Selector) { s.weights = w }
}

// New creates a selector over the given registry.
func New(reg *registry.Registry, opts ...Option) *Selector {
	s := &Selector{
		registry:   reg,
		logger:     zap.NewNop(),
		thresholds: DefaultThresholds(),
		weights:    DefaultSizeWeights(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the name of the most appropriate model for the task.
// It never fails: every anomaly degrades through fallback tiers and the
// result is always resolvable against the registry.
func (s *Selector) Select(task TaskDescriptor) string {
	// Explicit override has highest priority. A miss re-enters the
	// pipeline rather than falling straight to the default.
	if task.Model != "" {
		if _, ok := s.registry.Get(task.Model); ok {
			s.logger.Info("using explicitly requested model",
				zap.String("model", task.Model),
				zap.String("task_type", task.TaskType))
			s.observe(Decision{Kind: DecisionExplicitHonored, TaskType: task.TaskType, Model: task.Model})
			return task.Model
		}
		s.logger.Warn("requested model not found, falling back to selection",
			zap.String("model", task.Model),
			zap.String("task_type", task.TaskType))
		s.observe(Decision{Kind: DecisionExplicitMiss, TaskType: task.TaskType, Model: task.Model})
	}

	required := s.requiredCapabilities(task.TaskType, task.Requirements)
	candidates := s.findCandidates(required)
	if len(candidates) == 0 {
		def := s.registry.Default()
		s.logger.Warn("no model has the required capabilities, using default",
			zap.Strings("capabilities", required),
			zap.String("default", def))
		s.observe(Decision{Kind: DecisionNoCapabilityMatch, TaskType: task.TaskType, Model: def, Capabilities: required})
		return def
	}

	filtered := s.applyConstraints(candidates, task.Constraints)
	if len(filtered) == 0 {
		// Constraints are advisory: revert rather than fall to default.
		s.logger.Warn("no candidate satisfies constraints, relaxing them",
			zap.Strings("constraints", task.Constraints),
			zap.Strings("candidates", candidates))
		s.observe(Decision{Kind: DecisionConstraintsRelaxed, TaskType: task.TaskType, Capabilities: required})
		filtered = candidates
	}

	ranked := s.rank(filtered, task.TaskType)
	if len(ranked) == 0 {
		def := s.registry.Default()
		s.logger.Warn("ranking produced no candidates, using default",
			zap.String("default", def))
		s.observe(Decision{Kind: DecisionRankingEmpty, TaskType: task.TaskType, Model: def})
		return def
	}

	selected := ranked[0]
	s.logger.Info("model selected",
		zap.String("model", selected),
		zap.String("task_type", task.TaskType),
		zap.Strings("capabilities", required))
	s.observe(Decision{Kind: DecisionSelected, TaskType: task.TaskType, Model: selected, Capabilities: required})
	return selected
}

// requiredCapabilities unions the task type's base capabilities with
// cue-derived ones from the requirement strings. Dedup keeps first
// occurrence so the result is deterministic for tests.
func (s *Selector) requiredCapabilities(taskType string, requirements []string) []string {
	seen := make(map[string]struct{})
	var required []string
	add := func(capability string) {
		if _, dup := seen[capability]; dup {
			return
		}
		seen[capability] = struct{}{}
		required = append(required, capability)
	}

	for _, capability := range baseCapabilities(taskType) {
		add(capability)
	}
	for _, req := range requirements {
		req = strings.ToLower(strings.TrimSpace(req))
		if req == "" {
			continue
		}
		for _, cue := range requirementCues {
			if cue.matches(req) {
				add(cue.capability)
			}
		}
	}
	return required
}

// findCandidates returns, in registry enumeration order, every model
// whose capability set is a superset of required.
func (s *Selector) findCandidates(required []string) []string {
	var candidates []string
	for _, name := range s.registry.List() {
		rec, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		if rec.HasAllCapabilities(required) {
			candidates = append(candidates, name)
		}
	}
	return candidates
}

// constraintRule pairs a cue matcher with the predicate a model must
// satisfy when the cue fires. New constraint kinds are rule additions.
type constraintRule struct {
	name    string
	matches func(constraint string) bool
	keep    func(rec registry.Record, constraint string) bool
}

func (s *Selector) constraintRules() []constraintRule {
	return []constraintRule{
		{
			name: "low_cost",
			matches: func(c string) bool {
				return strings.Contains(c, "low cost") || strings.Contains(c, "budget")
			},
			keep: func(rec registry.Record, _ string) bool {
				return rec.Cost.OutputTokens <= s.thresholds.LowCostOutputTokens
			},
		},
		{
			name: "high_performance",
			matches: func(c string) bool {
				return strings.Contains(c, "high performance")
			},
			keep: func(rec registry.Record, _ string) bool {
				return len(rec.Performance) > 0 && rec.AveragePerformance() >= s.thresholds.HighPerformanceAverage
			},
		},
		{
			name: "provider",
			matches: func(c string) bool {
				return strings.Contains(c, "provider:")
			},
			keep: func(rec registry.Record, c string) bool {
				want := strings.TrimSpace(c[strings.Index(c, "provider:")+len("provider:"):])
				return strings.EqualFold(rec.Provider, want)
			},
		},
	}
}

// applyConstraints keeps the candidates that satisfy every constraint
// string, short-circuiting per model on the first failing rule. Blank
// constraints and constraints matching no rule are no-ops.
func (s *Selector) applyConstraints(candidates, constraints []string) []string {
	if len(constraints) == 0 {
		return candidates
	}
	rules := s.constraintRules()
	var kept []string
	for _, name := range candidates {
		rec, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		if s.satisfiesAll(rec, constraints, rules) {
			kept = append(kept, name)
		}
	}
	return kept
}

func (s *Selector) satisfiesAll(rec registry.Record, constraints []string, rules []constraintRule) bool {
	for _, constraint := range constraints {
		constraint = strings.ToLower(strings.TrimSpace(constraint))
		if constraint == "" {
			continue
		}
		for _, rule := range rules {
			if rule.matches(constraint) && !rule.keep(rec, constraint) {
				return false
			}
		}
	}
	return true
}

// rank sorts candidates by mean performance over the task type's
// relevant metrics, weighted by size class. The sort is stable so equal
// scores keep registry enumeration order.
func (s *Selector) rank(candidates []string, taskType string) []string {
	metrics := relevantMetrics(taskType)
	scores := make(map[string]float64, len(candidates))
	for _, name := range candidates {
		rec, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		scores[name] = s.score(rec, metrics)
	}
	ranked := make([]string, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})
	return ranked
}

// score averages the record's values for exactly the relevant metrics;
// metrics the record lacks contribute 0, and an empty metric set scores
// a neutral 0, leaving the size factor to break ties.
func (s *Selector) score(rec registry.Record, metrics []string) float64 {
	var avg float64
	if len(metrics) > 0 {
		var sum float64
		for _, m := range metrics {
			sum += rec.Performance[m]
		}
		avg = sum / float64(len(metrics))
	}
	return avg * s.sizeFactor(rec.Size)
}

func (s *Selector) sizeFactor(size registry.SizeClass) float64 {
	switch size {
	case registry.SizeLarge:
		return s.weights.Large
	case registry.SizeMedium:
		return s.weights.Medium
	case registry.SizeSmall:
		return s.weights.Small
	default:
		return 1.0
	}
}

func (s *Selector) observe(d Decision) {
	if s.observer != nil {
		s.observer(d)
	}
}
