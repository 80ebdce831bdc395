package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mangroves/internal/config"
)

var cfg *config.Config

// globalFlags override the matching config keys when set.
var globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

var rootCmd = &cobra.Command{
	Use:   "mangroves",
	Short: "Mangrove density mapping from annual Sentinel-2 composites",
	Long: "Classifies mangrove canopy density per grid tile from the AMMI index, " +
		"masking open water and high ground, and writes per-band TIFFs with a STAC item.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalFlags.configPath, "config", "", "config file (default ./config.yaml if present)")
	pf.StringVar(&globalFlags.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	pf.StringVar(&globalFlags.logFormat, "log-format", "", "override log.format (json or console)")
}

// setup loads the config, applies flag overrides and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(globalFlags.configPath)
	if err != nil {
		return eris.Wrap(err, "load config")
	}
	applyLogFlags(cmd, &c.Log)

	if err := config.InitLogger(c.Log); err != nil {
		return eris.Wrap(err, "init logger")
	}
	cfg = c

	zap.L().Debug("config loaded",
		zap.String("command", cmd.Name()),
		zap.String("store", cfg.Store.Driver),
		zap.String("elevation", cfg.Elevation.Provider),
	)
	return nil
}

func applyLogFlags(cmd *cobra.Command, lc *config.LogConfig) {
	if cmd.Flags().Changed("log-level") {
		lc.Level = globalFlags.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		lc.Format = globalFlags.logFormat
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
