package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scarter4work/bayesianastro/domain/entities"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "ConfidenceWeighted", cfg.Fusion.Strategy)
	assert.Equal(t, 3.0, cfg.Fusion.OutlierSigma)
	assert.Equal(t, 0.1, cfg.Fusion.ConfidenceThreshold)
	assert.Equal(t, 1024, cfg.Fusion.TileSize)
	assert.True(t, cfg.Fusion.UseGPU)
	assert.True(t, cfg.Fusion.ConfidenceMap)
	assert.Equal(t, "bayesian", cfg.Output.Prefix)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Empty(t, cfg.Validate())
}

func TestProcessingConfig(t *testing.T) {
	cfg := Default()
	cfg.Fusion.Strategy = "multiscale"
	cfg.Fusion.TileSize = 512

	pc, err := cfg.ProcessingConfig()
	require.NoError(t, err)
	assert.Equal(t, entities.StrategyMultiScale, pc.FusionStrategy)
	assert.Equal(t, 512, pc.TileWidth)
	assert.Equal(t, 512, pc.TileHeight)
}

func TestProcessingConfigRejectsUnknownStrategy(t *testing.T) {
	cfg := Default()
	cfg.Fusion.Strategy = "median"

	_, err := cfg.ProcessingConfig()
	assert.Error(t, err)
}

func TestValidateWarnings(t *testing.T) {
	cfg := Default()
	cfg.Fusion.Strategy = "nope"
	cfg.Fusion.OutlierSigma = 42
	cfg.Fusion.ConfidenceThreshold = 1.5
	cfg.Fusion.TileSize = 0

	warnings := cfg.Validate()
	assert.Len(t, warnings, 4)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, warnings, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "bayesian", cfg.Output.Prefix)
	assert.Equal(t, "ConfidenceWeighted", cfg.Fusion.Strategy)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
runtime:
  home: /opt/astro
output:
  dir: /data/out
  prefix: ngc7000
fusion:
  strategy: lucky
  tile_size: 256
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, warnings, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "/opt/astro", cfg.Runtime.Home)
	assert.Equal(t, "/data/out", cfg.Output.Dir)
	assert.Equal(t, "ngc7000", cfg.Output.Prefix)
	assert.Equal(t, "lucky", cfg.Fusion.Strategy)
	assert.Equal(t, 256, cfg.Fusion.TileSize)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unset keys keep their defaults.
	assert.Equal(t, 3.0, cfg.Fusion.OutlierSigma)
	assert.True(t, cfg.Fusion.UseGPU)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BAYESIANASTRO_FUSION_STRATEGY", "maximum_likelihood")
	t.Setenv("BAYESIANASTRO_RUNTIME_HOME", "/srv/runtime")

	cfg, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "maximum_likelihood", cfg.Fusion.Strategy)
	assert.Equal(t, "/srv/runtime", cfg.Runtime.Home)
}
