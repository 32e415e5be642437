// Package config loads codecrew configuration from YAML with
// environment-variable overrides (CODECREW_ prefix).
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all codecrew configuration.
type Config struct {
	Name string `yaml:"name"`

	Model        ModelConfig        `yaml:"model"`
	Selector     SelectorConfig     `yaml:"selector"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ModelConfig configures the registry and default model policy.
type ModelConfig struct {
	// Default names the terminal fallback model. Empty keeps the
	// built-in catalog default.
	Default string `yaml:"default"`
	// AutoSelect enables per-task model selection; when false every
	// task runs on the default model.
	AutoSelect bool `yaml:"auto_select"`
	// CatalogPath optionally points at a YAML model catalog that
	// replaces the built-in one.
	CatalogPath string `yaml:"catalog_path"`
	// WatchCatalog reloads the catalog file when it changes on disk.
	WatchCatalog bool `yaml:"watch_catalog"`
}

// SelectorConfig tunes the selection thresholds and ranking weights.
type SelectorConfig struct {
	LowCostThreshold         float64     `yaml:"low_cost_threshold"`
	HighPerformanceThreshold float64     `yaml:"high_performance_threshold"`
	SizeWeights              SizeWeights `yaml:"size_weights"`
}

// SizeWeights are the per-size-class ranking factors.
type SizeWeights struct {
	Large  float64 `yaml:"large"`
	Medium float64 `yaml:"medium"`
	Small  float64 `yaml:"small"`
}

// OrchestratorConfig bounds the orchestration loop.
type OrchestratorConfig struct {
	MaxRetries int `yaml:"max_retries"`
	QueueSize  int `yaml:"queue_size"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Name: "codecrew",
		Model: ModelConfig{
			AutoSelect: true,
		},
		Selector: SelectorConfig{
			LowCostThreshold:         0.00003,
			HighPerformanceThreshold: 0.85,
			SizeWeights:              SizeWeights{Large: 1.1, Medium: 1.0, Small: 0.9},
		},
		Orchestrator: OrchestratorConfig{
			MaxRetries: 3,
			QueueSize:  64,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path (optional), then applies
// environment overrides. A missing file is not an error; a malformed
// one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnvOverrides applies CODECREW_* environment variables on top of
// file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODECREW_MODEL_DEFAULT"); v != "" {
		c.Model.Default = v
	}
	if v := os.Getenv("CODECREW_MODEL_AUTO_SELECT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Model.AutoSelect = b
		}
	}
	if v := os.Getenv("CODECREW_MODEL_CATALOG"); v != "" {
		c.Model.CatalogPath = v
	}
	if v := os.Getenv("CODECREW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CODECREW_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Orchestrator.MaxRetries = n
		}
	}
}

// applyDefaults backfills zero values a config file may have left out.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Selector.LowCostThreshold <= 0 {
		c.Selector.LowCostThreshold = d.Selector.LowCostThreshold
	}
	if c.Selector.HighPerformanceThreshold <= 0 {
		c.Selector.HighPerformanceThreshold = d.Selector.HighPerformanceThreshold
	}
	if c.Selector.SizeWeights.Large <= 0 {
		c.Selector.SizeWeights.Large = d.Selector.SizeWeights.Large
	}
	if c.Selector.SizeWeights.Medium <= 0 {
		c.Selector.SizeWeights.Medium = d.Selector.SizeWeights.Medium
	}
	if c.Selector.SizeWeights.Small <= 0 {
		c.Selector.SizeWeights.Small = d.Selector.SizeWeights.Small
	}
	if c.Orchestrator.MaxRetries <= 0 {
		c.Orchestrator.MaxRetries = d.Orchestrator.MaxRetries
	}
	if c.Orchestrator.QueueSize <= 0 {
		c.Orchestrator.QueueSize = d.Orchestrator.QueueSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}
