package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/mangroves/internal/model"
	"github.com/sells-group/mangroves/internal/task"
)

var (
	batchOpts      taskFlags
	batchDebug     bool
	batchDecimated bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enumerate tasks and classify them concurrently",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initRunner(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		tasks, err := listTasks(ctx, batchOpts, cfg.Grid.TileIndex, env.Runner.Exists)
		if err != nil {
			return err
		}

		opts := task.RunOptions{Debug: batchDebug, Decimated: batchDecimated, Overwrite: batchOpts.overwrite}
		_, err = processBatch(ctx, tasks, cfg.Batch.MaxConcurrentTasks, func(ctx context.Context, t model.Task) (*model.Run, error) {
			return env.Runner.Run(ctx, t, opts)
		})
		return err
	},
}

func init() {
	batchOpts.register(batchCmd)
	batchCmd.Flags().BoolVar(&batchDebug, "debug", false, "also write the index, unmasked classes and masks")
	batchCmd.Flags().BoolVar(&batchDecimated, "decimated", false, "run at one tenth resolution")
	rootCmd.AddCommand(batchCmd)
}

// runFunc executes a single task.
type runFunc func(ctx context.Context, t model.Task) (*model.Run, error)

// batchResult counts run outcomes.
type batchResult struct {
	Complete int64
	Empty    int64
	Skipped  int64
	Failed   int64
}

// processBatch runs tasks concurrently. A failed task is logged and
// counted but does not stop the batch.
func processBatch(ctx context.Context, tasks []model.Task, concurrency int, run runFunc) (*batchResult, error) {
	res := &batchResult{}
	if len(tasks) == 0 {
		zap.L().Info("no tasks to run")
		return res, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("tasks", len(tasks)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var complete, empty, skipped, failed atomic.Int64
	for _, t := range tasks {
		g.Go(func() error {
			log := zap.L().With(zap.String("tile_id", t.TileID), zap.String("year", t.Year))
			if gctx.Err() != nil {
				failed.Add(1)
				return nil
			}

			r, err := run(gctx, t)
			if err != nil {
				failed.Add(1)
				log.Error("task failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}
			switch r.Status {
			case model.RunStatusComplete:
				complete.Add(1)
			case model.RunStatusEmpty:
				empty.Add(1)
			case model.RunStatusSkipped:
				skipped.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	res.Complete = complete.Load()
	res.Empty = empty.Load()
	res.Skipped = skipped.Load()
	res.Failed = failed.Load()

	zap.L().Info("batch complete",
		zap.Int64("complete", res.Complete),
		zap.Int64("empty", res.Empty),
		zap.Int64("skipped", res.Skipped),
		zap.Int64("failed", res.Failed),
	)
	if ctx.Err() != nil {
		return res, eris.Wrap(ctx.Err(), "batch interrupted")
	}
	return res, nil
}
