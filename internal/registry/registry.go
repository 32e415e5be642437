// Package registry maintains the catalog of known AI models. The
// catalog is populated once at startup (built-in defaults, optionally
// replaced from a YAML file) and read concurrently by the selector.
package registry

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Registry is the process-wide model catalog. Enumeration order is
// insertion order, which keeps selection deterministic across runs.
type Registry struct {
	mu           sync.RWMutex
	records      map[string]Record
	order        []string
	defaultModel string
	logger       *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registry events.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a registry pre-loaded with the built-in catalog. The
// default model falls back to the built-in default when defaultModel
// is empty or unknown.
func New(defaultModel string, opts ...Option) *Registry {
	r := &Registry{
		records: make(map[string]Record),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, rec := range builtinCatalog() {
		r.register(rec)
	}
	r.defaultModel = builtinDefaultModel
	if defaultModel != "" {
		if _, ok := r.records[defaultModel]; ok {
			r.defaultModel = defaultModel
		} else {
			r.logger.Warn("requested default model not in catalog, keeping built-in default",
				zap.String("requested", defaultModel),
				zap.String("default", r.defaultModel))
		}
	}
	r.logger.Info("model registry initialized",
		zap.Int("models", len(r.order)),
		zap.String("default", r.defaultModel))
	return r
}

// Empty creates a registry with no records and no default. Intended
// for tests and for callers that load a catalog file themselves.
func Empty(opts ...Option) *Registry {
	r := &Registry{
		records: make(map[string]Record),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a record to the catalog. Registering an existing name
// updates it in place and keeps its enumeration position.
func (r *Registry) Register(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(rec)
}

func (r *Registry) register(rec Record) {
	if _, exists := r.records[rec.Name]; exists {
		r.logger.Warn("model already registered, updating", zap.String("model", rec.Name))
	} else {
		r.order = append(r.order, rec.Name)
	}
	r.records[rec.Name] = rec
	if r.defaultModel == "" {
		r.defaultModel = rec.Name
	}
}

// Get looks up a record by exact name. A miss is a normal outcome, not
// an error; callers fall back on their own policy.
func (r *Registry) Get(name string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[name]
	return rec, ok
}

// List returns all model names in insertion order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Default returns the name of the guaranteed-resolvable fallback model.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultModel
}

// SetDefault switches the fallback model. It refuses names that are
// not registered, preserving the "default is always resolvable"
// invariant.
func (r *Registry) SetDefault(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[name]; !ok {
		r.logger.Warn("cannot set default model: not registered", zap.String("model", name))
		return false
	}
	r.defaultModel = name
	r.logger.Info("default model set", zap.String("model", name))
	return true
}

// FindByCapability returns the names of all models carrying the given
// capability tag, in enumeration order.
func (r *Registry) FindByCapability(capability string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []string
	for _, name := range r.order {
		if r.records[name].HasCapability(capability) {
			matches = append(matches, name)
		}
	}
	return matches
}

// Criteria selects models by exact-match metadata fields. Zero-valued
// fields are ignored.
type Criteria struct {
	Provider string
	Size     SizeClass
	Version  string
}

// FindByCriteria returns the names of all models matching every
// non-zero criterion, in enumeration order.
func (r *Registry) FindByCriteria(c Criteria) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []string
	for _, name := range r.order {
		rec := r.records[name]
		if c.Provider != "" && rec.Provider != c.Provider {
			continue
		}
		if c.Size != "" && rec.Size != c.Size {
			continue
		}
		if c.Version != "" && rec.Version != c.Version {
			continue
		}
		matches = append(matches, name)
	}
	return matches
}

// catalogFile is the on-disk YAML shape for a model catalog.
type catalogFile struct {
	DefaultModel string   `yaml:"default_model"`
	Models       []Record `yaml:"models"`
}

// LoadFile replaces the registry contents with the catalog in the
// given YAML file. The swap happens under the write lock so concurrent
// readers observe either the old or the new catalog, never a mix.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(file.Models) == 0 {
		return fmt.Errorf("catalog %s contains no models", path)
	}
	records := make(map[string]Record, len(file.Models))
	order := make([]string, 0, len(file.Models))
	for _, rec := range file.Models {
		if rec.Name == "" {
			return fmt.Errorf("catalog %s contains a model without a name", path)
		}
		if _, dup := records[rec.Name]; dup {
			return fmt.Errorf("catalog %s registers %s twice", path, rec.Name)
		}
		records[rec.Name] = rec
		order = append(order, rec.Name)
	}
	def := file.DefaultModel
	if def == "" {
		def = order[0]
	}
	if _, ok := records[def]; !ok {
		return fmt.Errorf("catalog %s default model %s is not in the catalog", path, def)
	}

	r.mu.Lock()
	r.records = records
	r.order = order
	r.defaultModel = def
	r.mu.Unlock()

	r.logger.Info("model catalog loaded",
		zap.String("path", path),
		zap.Int("models", len(order)),
		zap.String("default", def))
	return nil
}
