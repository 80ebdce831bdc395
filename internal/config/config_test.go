package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "mangroves.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "./data", cfg.Input.Root)
	assert.Equal(t, "dep_s2_geomad", cfg.Input.Collection)
	assert.Equal(t, "dep", cfg.Output.Prefix)
	assert.Equal(t, "s2", cfg.Output.Sensor)
	assert.Equal(t, "ammi", cfg.Output.DatasetID)
	assert.Equal(t, "wcs", cfg.Elevation.Provider)
	assert.Equal(t, "cop-dem-glo-30", cfg.Elevation.Coverage)
	assert.InDelta(t, 65535, cfg.Elevation.NoData, 0)
	assert.InDelta(t, 1, cfg.Elevation.Scale, 0)
	assert.Equal(t, 3, cfg.Elevation.MaxAttempts)
	assert.False(t, cfg.Elevation.Signed)
	assert.InDelta(t, 30, cfg.Classifier.ElevationThreshold, 0)
	assert.Equal(t, 4, cfg.Classifier.AMMIMin)
	assert.Equal(t, 20, cfg.Classifier.AMMIMax)
	assert.Equal(t, 5, cfg.Classifier.MorphRadius)
	assert.False(t, cfg.Classifier.SkipEmptyElevation)
	assert.Equal(t, 2, cfg.Batch.MaxConcurrentTasks)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/mangroves
log:
  level: debug
  format: console
elevation:
  provider: dir
  dir: /srv/dem
classifier:
  morph_radius: 3
batch:
  max_concurrent_tasks: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "dir", cfg.Elevation.Provider)
	assert.Equal(t, "/srv/dem", cfg.Elevation.Dir)
	assert.Equal(t, 3, cfg.Classifier.MorphRadius)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrentTasks)
	// Defaults still apply for unset values
	assert.Equal(t, 20, cfg.Classifier.AMMIMax)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))

	t.Setenv("MANGROVES_LOG_LEVEL", "warn")
	t.Setenv("MANGROVES_CLASSIFIER_ELEVATION_THRESHOLD", "12.5")
	t.Setenv("MANGROVES_SERVER_PORT", "3000")
	t.Setenv("MANGROVES_ELEVATION_SIGNED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.InDelta(t, 12.5, cfg.Classifier.ElevationThreshold, 0)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Elevation.Signed)
}

func TestLoadExplicitPath(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "prod.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch:\n  max_concurrent_tasks: 16\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Batch.MaxConcurrentTasks)
	assert.Equal(t, "sqlite", cfg.Store.Driver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0o644))

	_, err := Load("")
	assert.Error(t, err)
}

func loaded(t *testing.T) *Config {
	t.Helper()
	chdirTemp(t)
	cfg, err := Load("")
	require.NoError(t, err)
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := loaded(t)
	for _, mode := range []string{"classify", "batch", "tasks", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mode   string
		mutate func(*Config)
		want   string
	}{
		{"provider", "classify", func(c *Config) { c.Elevation.Provider = "ftp" }, `elevation.provider "ftp"`},
		{"dir provider", "classify", func(c *Config) { c.Elevation.Provider = "dir"; c.Elevation.Dir = "" }, "elevation.dir is required"},
		{"range", "classify", func(c *Config) { c.Classifier.AMMIMin = 20 }, "ammi_min must be below"},
		{"radius", "batch", func(c *Config) { c.Classifier.MorphRadius = -1 }, "morph_radius"},
		{"concurrency", "batch", func(c *Config) { c.Batch.MaxConcurrentTasks = 0 }, "max_concurrent_tasks"},
		{"tile index", "tasks", func(c *Config) { c.Grid.TileIndex = "" }, "grid.tile_index"},
		{"port", "serve", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"driver", "serve", func(c *Config) { c.Store.Driver = "mysql" }, `store.driver "mysql"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loaded(t)
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
