package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mangroves/internal/ammi"
	"github.com/sells-group/mangroves/internal/elevation"
	"github.com/sells-group/mangroves/internal/grid"
	"github.com/sells-group/mangroves/internal/loader"
	"github.com/sells-group/mangroves/internal/resilience"
	"github.com/sells-group/mangroves/internal/store"
	"github.com/sells-group/mangroves/internal/task"
	"github.com/sells-group/mangroves/internal/writer"
)

// runEnv holds the components shared by classify and batch.
type runEnv struct {
	Store  store.Store
	Runner *task.Runner
}

// Close releases resources held by the environment.
func (e *runEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured run store.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "mangroves.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initElevation() (ammi.ElevationSource, error) {
	ec := cfg.Elevation
	cal := elevation.Calibration{Scale: ec.Scale, Offset: ec.Offset, NoData: ec.NoData, Signed: ec.Signed}
	switch ec.Provider {
	case "dir":
		return elevation.NewDirSource(ec.Dir, grid.PacificGrid10, cal), nil
	case "wcs":
		timeout := time.Duration(ec.TimeoutSecs) * time.Second
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		return elevation.NewWCSSource(ec.URL,
			elevation.WithCoverage(ec.Coverage),
			elevation.WithCalibration(cal),
			elevation.WithHTTPClient(&http.Client{Timeout: timeout}),
			elevation.WithRateLimit(ec.RateLimit),
			elevation.WithRetry(resilience.DefaultPolicy().WithAttempts(ec.MaxAttempts)),
		), nil
	default:
		return nil, eris.Errorf("unsupported elevation provider: %s", ec.Provider)
	}
}

func initProcessor(src ammi.ElevationSource) (*ammi.Processor, error) {
	cc := cfg.Classifier
	thresholds, err := ammi.ThresholdRange(cc.AMMIMin, cc.AMMIMax)
	if err != nil {
		return nil, err
	}
	return ammi.NewProcessor(src,
		ammi.WithThresholds(thresholds),
		ammi.WithElevationThreshold(cc.ElevationThreshold),
		ammi.WithMorphRadius(cc.MorphRadius),
		ammi.WithSkipEmptyElevation(cc.SkipEmptyElevation),
	)
}

func outputSpec() task.Output {
	return task.Output{
		Prefix:    cfg.Output.Prefix,
		Sensor:    cfg.Output.Sensor,
		DatasetID: cfg.Output.DatasetID,
	}
}

// initRunner validates the config for mode and wires a task runner.
// Callers should defer env.Close().
func initRunner(ctx context.Context, mode string) (*runEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	src, err := initElevation()
	if err != nil {
		return nil, err
	}
	proc, err := initProcessor(src)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	l := loader.New(cfg.Input.Root, grid.PacificGrid10, loader.WithCollection(cfg.Input.Collection))
	w := writer.NewFSWriter(cfg.Output.Root)

	return &runEnv{
		Store:  st,
		Runner: task.NewRunner(grid.PacificGrid10, l, proc, w, st, outputSpec()),
	}, nil
}
