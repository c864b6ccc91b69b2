package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sailq/rakeflow/core/model"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
sourcing:
  top_n: 3
  default_freight_rate: 1.2
consolidation:
  club_wagons: 6
optimizer:
  seed: 7
  weights:
    cost: 0.5
    sla: 0.5
metrics:
  prometheus: true
logging:
  level: debug
  format: console
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Sourcing.TopN)
	assert.Equal(t, 1.2, cfg.Sourcing.DefaultFreightRate)
	assert.Equal(t, 6, cfg.Consolidation.ClubWagons)
	assert.Equal(t, int64(7), cfg.Optimizer.Seed)
	assert.Equal(t, 0.5, cfg.Optimizer.Weights.Cost)
	assert.True(t, cfg.Metrics.Prometheus)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset sections still carry defaults.
	assert.Equal(t, 59, cfg.Allocation.MaxWagonsPerRake)
	assert.Equal(t, 50.0, cfg.Consolidation.MinTonnage)
	assert.Equal(t, 0.022, cfg.Metrics.EmissionFactorKgPerTonKm)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RF_OPTIMIZER__SEED", "42")
	path := writeConfig(t, "config.yaml", "optimizer:\n  seed: 7\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Optimizer.Seed)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
optimizer:
  weights:
    cost: -1
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "optimizer")
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p := cfg.Sourcing.Params()
	assert.Equal(t, 5, p.TopN)
	assert.Equal(t, 96.0, p.PromiseHours[model.PriorityNormal])
}
