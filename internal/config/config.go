// Package config loads mangroves configuration from config.yaml and the
// environment.
package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Elevation  ElevationConfig  `yaml:"elevation" mapstructure:"elevation"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Grid       GridConfig       `yaml:"grid" mapstructure:"grid"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// InputConfig locates the annual composites.
type InputConfig struct {
	Root       string `yaml:"root" mapstructure:"root"`
	Collection string `yaml:"collection" mapstructure:"collection"`
}

// OutputConfig names and locates the written product.
type OutputConfig struct {
	Root      string `yaml:"root" mapstructure:"root"`
	Prefix    string `yaml:"prefix" mapstructure:"prefix"`
	Sensor    string `yaml:"sensor" mapstructure:"sensor"`
	DatasetID string `yaml:"dataset_id" mapstructure:"dataset_id"`
}

// ElevationConfig selects and tunes the DEM source.
type ElevationConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // "wcs" or "dir"
	URL         string  `yaml:"url" mapstructure:"url"`
	Coverage    string  `yaml:"coverage" mapstructure:"coverage"`
	Dir         string  `yaml:"dir" mapstructure:"dir"`
	Scale       float64 `yaml:"scale" mapstructure:"scale"`
	Offset      float64 `yaml:"offset" mapstructure:"offset"`
	NoData      float64 `yaml:"nodata" mapstructure:"nodata"`
	Signed      bool    `yaml:"signed" mapstructure:"signed"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ClassifierConfig tunes the AMMI classifier.
type ClassifierConfig struct {
	ElevationThreshold float64 `yaml:"elevation_threshold" mapstructure:"elevation_threshold"`
	AMMIMin            int     `yaml:"ammi_min" mapstructure:"ammi_min"`
	AMMIMax            int     `yaml:"ammi_max" mapstructure:"ammi_max"` // exclusive
	MorphRadius        int     `yaml:"morph_radius" mapstructure:"morph_radius"`
	SkipEmptyElevation bool    `yaml:"skip_empty_elevation" mapstructure:"skip_empty_elevation"`
}

// GridConfig points at the tile index shapefile.
type GridConfig struct {
	TileIndex string `yaml:"tile_index" mapstructure:"tile_index"`
}

// BatchConfig bounds batch concurrency.
type BatchConfig struct {
	MaxConcurrentTasks int `yaml:"max_concurrent_tasks" mapstructure:"max_concurrent_tasks"`
}

// ServerConfig configures the status API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. With an empty path
// an optional config.yaml in the working directory is used; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	// Environment
	v.SetEnvPrefix("MANGROVES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "mangroves.db")
	v.SetDefault("input.root", "./data")
	v.SetDefault("input.collection", "dep_s2_geomad")
	v.SetDefault("output.root", "./output")
	v.SetDefault("output.prefix", "dep")
	v.SetDefault("output.sensor", "s2")
	v.SetDefault("output.dataset_id", "ammi")
	v.SetDefault("elevation.provider", "wcs")
	v.SetDefault("elevation.url", "https://elevation.example.org/wcs")
	v.SetDefault("elevation.coverage", "cop-dem-glo-30")
	v.SetDefault("elevation.dir", "./dem")
	v.SetDefault("elevation.scale", 1.0)
	v.SetDefault("elevation.offset", 0.0)
	v.SetDefault("elevation.nodata", 65535.0)
	v.SetDefault("elevation.signed", false)
	v.SetDefault("elevation.rate_limit", 5.0)
	v.SetDefault("elevation.timeout_secs", 60)
	v.SetDefault("elevation.max_attempts", 3)
	v.SetDefault("classifier.elevation_threshold", 30.0)
	v.SetDefault("classifier.ammi_min", 4)
	v.SetDefault("classifier.ammi_max", 20)
	v.SetDefault("classifier.morph_radius", 5)
	v.SetDefault("classifier.skip_empty_elevation", false)
	v.SetDefault("grid.tile_index", "./tiles.shp")
	v.SetDefault("batch.max_concurrent_tasks", 2)
	v.SetDefault("server.port", 8080)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "classify", "batch", "tasks" and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "classify", "batch":
		require(c.Input.Root != "", "input.root is required")
		require(c.Output.Root != "", "output.root is required")
		require(c.Output.Prefix != "" && c.Output.Sensor != "" && c.Output.DatasetID != "",
			"output.prefix, output.sensor and output.dataset_id are required")
		switch c.Elevation.Provider {
		case "wcs":
			require(c.Elevation.URL != "", "elevation.url is required for the wcs provider")
		case "dir":
			require(c.Elevation.Dir != "", "elevation.dir is required for the dir provider")
		default:
			problems = append(problems, fmt.Sprintf("elevation.provider %q must be wcs or dir", c.Elevation.Provider))
		}
		require(c.Classifier.AMMIMin < c.Classifier.AMMIMax, "classifier.ammi_min must be below classifier.ammi_max")
		require(c.Classifier.MorphRadius >= 0, "classifier.morph_radius must not be negative")
		if mode == "batch" {
			require(c.Batch.MaxConcurrentTasks > 0, "batch.max_concurrent_tasks must be positive")
			require(c.Grid.TileIndex != "", "grid.tile_index is required")
		}
	case "tasks":
		require(c.Grid.TileIndex != "", "grid.tile_index is required")
	case "serve":
		require(c.Server.Port > 0 && c.Server.Port < 65536, "server.port must be between 1 and 65535")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		require(c.Store.DatabaseURL != "", "store.database_url is required")
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
