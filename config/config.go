package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sailq/rakeflow/core/metrics"
)

// Config is the application configuration tree. Every section has working
// defaults so an empty file is a valid configuration.
type Config struct {
	Sourcing      SourcingConfig      `json:"sourcing"`
	Allocation    AllocationConfig    `json:"allocation"`
	Consolidation ConsolidationConfig `json:"consolidation"`
	Optimizer     OptimizerConfig     `json:"optimizer"`
	Scenario      ScenarioConfig      `json:"scenario"`
	Metrics       metrics.Config      `json:"metrics"`
	Logging       LoggingConfig       `json:"logging"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// Load reads a YAML or JSON configuration file, applies RF_ environment
// overrides (RF_OPTIMIZER__SEED=7 sets optimizer.seed), then defaults and
// validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("RF_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "rf_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	c.Sourcing.SetDefaults()
	c.Allocation.SetDefaults()
	c.Consolidation.SetDefaults()
	c.Optimizer.SetDefaults()
	c.Scenario.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Sourcing.Validate(); err != nil {
		return fmt.Errorf("sourcing: %w", err)
	}
	if err := c.Allocation.Validate(); err != nil {
		return fmt.Errorf("allocation: %w", err)
	}
	if err := c.Consolidation.Validate(); err != nil {
		return fmt.Errorf("consolidation: %w", err)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	if err := c.Scenario.Validate(); err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
