package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/mangroves/internal/model"
	"github.com/sells-group/mangroves/internal/task"
)

var (
	classifyTileID    string
	classifyYear      string
	classifyVersion   string
	classifyDebug     bool
	classifyDecimated bool
	classifyOverwrite bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify mangrove density for one tile and year",
	Long: "Loads the annual composite of a tile, classifies mangrove density, " +
		"writes the result and records the run. A tile without input data " +
		"exits successfully.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initRunner(ctx, "classify")
		if err != nil {
			return err
		}
		defer env.Close()

		t := model.Task{TileID: classifyTileID, Year: classifyYear, Version: classifyVersion}
		run, err := env.Runner.Run(ctx, t, task.RunOptions{
			Debug:     classifyDebug,
			Decimated: classifyDecimated,
			Overwrite: classifyOverwrite,
		})
		if run != nil {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(run)
		}
		return err
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyTileID, "tile-id", "", "grid tile as x,y (e.g. 66,22)")
	classifyCmd.Flags().StringVar(&classifyYear, "year", "", "composite year")
	classifyCmd.Flags().StringVar(&classifyVersion, "version", "", "output version")
	classifyCmd.Flags().BoolVar(&classifyDebug, "debug", false, "also write the index, unmasked classes and masks")
	classifyCmd.Flags().BoolVar(&classifyDecimated, "decimated", false, "run at one tenth resolution")
	classifyCmd.Flags().BoolVar(&classifyOverwrite, "overwrite", false, "rewrite existing output")
	_ = classifyCmd.MarkFlagRequired("tile-id")
	_ = classifyCmd.MarkFlagRequired("year")
	_ = classifyCmd.MarkFlagRequired("version")
	rootCmd.AddCommand(classifyCmd)
}
