package task

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mangroves/internal/ammi"
	"github.com/sells-group/mangroves/internal/grid"
	"github.com/sells-group/mangroves/internal/model"
	"github.com/sells-group/mangroves/internal/raster"
	"github.com/sells-group/mangroves/internal/store"
	"github.com/sells-group/mangroves/internal/summary"
	"github.com/sells-group/mangroves/internal/writer"
)

// DecimationFactor is the zoom-out applied to quick-look runs.
const DecimationFactor = 10

// Loader supplies the input composite of one tile-year.
type Loader interface {
	Load(ctx context.Context, tile grid.TileIndex, year string, gb raster.Geobox) (*raster.Tile, error)
}

// Classifier turns a loaded tile into an output dataset.
type Classifier interface {
	Process(ctx context.Context, tile *raster.Tile, debug bool) (*raster.Dataset, error)
	Densities() []uint8
}

// Writer persists datasets.
type Writer interface {
	Exists(ctx context.Context, item writer.ItemPath, tile grid.TileIndex) (bool, error)
	Write(ctx context.Context, item writer.ItemPath, tile grid.TileIndex, ds *raster.Dataset, sum *summary.Summary) (string, error)
}

// Output names the product written by a Runner.
type Output struct {
	Prefix    string
	Sensor    string
	DatasetID string
}

// Item returns the output location of task.
func (o Output) Item(task model.Task) writer.ItemPath {
	return writer.ItemPath{
		Prefix:    o.Prefix,
		Sensor:    o.Sensor,
		DatasetID: o.DatasetID,
		Version:   task.Version,
		Year:      task.Year,
	}
}

// OutputExists returns an ExistsFunc backed by w.
func OutputExists(w Writer, out Output) ExistsFunc {
	return func(ctx context.Context, task model.Task) (bool, error) {
		tile, err := grid.ParseTileID(task.TileID)
		if err != nil {
			return false, err
		}
		return w.Exists(ctx, out.Item(task), tile)
	}
}

// RunOptions tunes a single run.
type RunOptions struct {
	Debug     bool
	Decimated bool
	Overwrite bool
}

// Runner executes tasks end to end and records each run in the store.
type Runner struct {
	grid       grid.GridSpec
	loader     Loader
	classifier Classifier
	writer     Writer
	store      store.Store
	output     Output
}

// NewRunner wires a Runner.
func NewRunner(g grid.GridSpec, l Loader, c Classifier, w Writer, s store.Store, out Output) *Runner {
	return &Runner{grid: g, loader: l, classifier: c, writer: w, store: s, output: out}
}

// Item returns the output location of task.
func (r *Runner) Item(task model.Task) writer.ItemPath {
	return r.output.Item(task)
}

// Exists reports whether task has already been written.
func (r *Runner) Exists(ctx context.Context, task model.Task) (bool, error) {
	return OutputExists(r.writer, r.output)(ctx, task)
}

// Run executes task. A tile-year without input data finishes as
// RunStatusEmpty with a nil error. Any other failure is recorded and
// returned.
func (r *Runner) Run(ctx context.Context, task model.Task, opts RunOptions) (*model.Run, error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("tile_id", task.TileID),
		zap.String("year", task.Year),
		zap.String("version", task.Version),
	)

	run, err := r.store.CreateRun(ctx, task)
	if err != nil {
		return nil, eris.Wrap(err, "task: create run")
	}

	result, runErr := r.execute(ctx, task, opts, log)
	if runErr != nil {
		result = model.RunResult{Status: model.RunStatusFailed, Error: runErr.Error()}
	}

	// Record the outcome even when ctx was cancelled mid-run.
	finishCtx := context.WithoutCancel(ctx)
	if err := r.store.FinishRun(finishCtx, run.ID, result); err != nil {
		log.Error("task: record run", zap.String("run_id", run.ID), zap.Error(err))
		if runErr == nil {
			runErr = eris.Wrap(err, "task: finish run")
		}
	}

	run.Status = result.Status
	run.Output = result.Output
	run.Summary = result.Summary
	run.Error = result.Error

	fields := []zap.Field{
		zap.String("run_id", run.ID),
		zap.String("status", string(result.Status)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if result.Summary != nil {
		fields = append(fields, result.Summary.Fields()...)
	}
	if runErr != nil {
		log.Error("run failed", append(fields, zap.Error(runErr))...)
		return run, runErr
	}
	log.Info("run finished", fields...)
	return run, nil
}

func (r *Runner) execute(ctx context.Context, task model.Task, opts RunOptions, log *zap.Logger) (model.RunResult, error) {
	tile, err := grid.ParseTileID(task.TileID)
	if err != nil {
		return model.RunResult{}, err
	}
	item := r.Item(task)

	if !opts.Overwrite {
		exists, err := r.writer.Exists(ctx, item, tile)
		if err != nil {
			return model.RunResult{}, eris.Wrap(err, "task: check output")
		}
		if exists {
			log.Info("output exists, skipping")
			return model.RunResult{Status: model.RunStatusSkipped}, nil
		}
	}

	gb := r.grid.TileGeobox(tile)
	if opts.Decimated {
		gb = gb.ZoomOut(DecimationFactor)
	}

	input, err := r.loader.Load(ctx, tile, task.Year, gb)
	if errors.Is(err, raster.ErrEmptyCollection) {
		log.Info("no input data", zap.Error(err))
		return model.RunResult{Status: model.RunStatusEmpty}, nil
	}
	if err != nil {
		return model.RunResult{}, eris.Wrap(err, "task: load")
	}

	ds, err := r.classifier.Process(ctx, input, opts.Debug)
	if err != nil {
		return model.RunResult{}, eris.Wrap(err, "task: classify")
	}

	sum, err := summary.Summarize(ds, ammi.BandMangroves, r.classifier.Densities())
	if err != nil {
		return model.RunResult{}, eris.Wrap(err, "task: summarize")
	}

	out, err := r.writer.Write(ctx, item, tile, ds, &sum)
	if err != nil {
		return model.RunResult{}, eris.Wrap(err, "task: write")
	}
	return model.RunResult{Status: model.RunStatusComplete, Output: out, Summary: &sum}, nil
}
