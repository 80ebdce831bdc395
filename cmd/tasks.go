package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mangroves/internal/grid"
	"github.com/sells-group/mangroves/internal/model"
	"github.com/sells-group/mangroves/internal/task"
	"github.com/sells-group/mangroves/internal/writer"
)

// taskFlags are shared by the tasks and batch commands.
type taskFlags struct {
	years     string
	version   string
	regions   string
	limit     int
	overwrite bool
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.years, "years", "2019-2021", "year or inclusive range, e.g. 2019-2021")
	cmd.Flags().StringVar(&f.version, "version", "", "output version")
	cmd.Flags().StringVar(&f.regions, "regions", "ALL", "comma-separated country codes or ALL")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "max number of tasks (0 = no limit)")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "include tasks whose output exists")
	_ = cmd.MarkFlagRequired("version")
}

// listTasks enumerates the tasks selected by f over the tiles in tileIndex.
func listTasks(ctx context.Context, f taskFlags, tileIndex string, exists task.ExistsFunc) ([]model.Task, error) {
	years, err := task.ParseYears(f.years)
	if err != nil {
		return nil, err
	}
	ts, err := grid.LoadTileSet(tileIndex)
	if err != nil {
		return nil, err
	}
	tiles := ts.Tiles(grid.ParseRegions(f.regions))
	zap.L().Debug("selected tiles", zap.Int("tiles", len(tiles)), zap.Strings("years", years))

	return task.List(ctx, tiles, years, f.version, task.ListOptions{
		Limit:     f.limit,
		Overwrite: f.overwrite,
		Exists:    exists,
	})
}

func writeTasks(w io.Writer, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return eris.Wrap(json.NewEncoder(w).Encode(tasks), "encode tasks")
}

var tasksOpts taskFlags

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Print the JSON list of tile-year tasks still to run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("tasks"); err != nil {
			return err
		}
		exists := task.OutputExists(writer.NewFSWriter(cfg.Output.Root), outputSpec())
		tasks, err := listTasks(cmd.Context(), tasksOpts, cfg.Grid.TileIndex, exists)
		if err != nil {
			return err
		}
		return writeTasks(os.Stdout, tasks)
	},
}

func init() {
	tasksOpts.register(tasksCmd)
	rootCmd.AddCommand(tasksCmd)
}
