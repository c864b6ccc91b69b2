package config

import "fmt"

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the minimum level emitted: debug, info, warn or error.
	Level string `json:"level"`
	// Format selects "console" or "json" output.
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %s", c.Level)
	}
	if c.Format != "console" && c.Format != "json" {
		return fmt.Errorf("unknown format %s", c.Format)
	}
	return nil
}
