// Package executor runs a resolved execution plan: a pool of workers picks
// up units, loads and averages their data sources, and renders their
// figures. Units are independent, so the only cross-unit coordination is
// cancellation on first failure.
package executor

import (
	"context"
	"errors"
	"sync"

	"github.com/oceanbgc/climodiag/internal/cache"
	"github.com/oceanbgc/climodiag/internal/ctxlog"
	"github.com/oceanbgc/climodiag/internal/resolver"
	"github.com/oceanbgc/climodiag/internal/source"
	"github.com/oceanbgc/climodiag/internal/vars"
)

// Executor orchestrates the end-to-end execution of a resolved plan.
type Executor struct {
	workers int
	sources *source.Registry
	vars    vars.Table
	// cache is nil when caching is disabled.
	cache *cache.Store
}

// New builds an executor. workers below 1 is clamped to 1.
func New(workers int, sources *source.Registry, table vars.Table, store *cache.Store) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{workers: workers, sources: sources, vars: table, cache: store}
}

// Run executes every unit of the plan. The first failure cancels the
// remaining units; all failures are joined into the returned error.
func (e *Executor) Run(ctx context.Context, plan []*resolver.Unit) error {
	logger := ctxlog.FromContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	units := make(chan *resolver.Unit)
	errCh := make(chan error, len(plan))

	var wg sync.WaitGroup
	for id := 0; id < e.workers; id++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, workerID, units, errCh, cancel)
		}(id)
	}

	for _, unit := range plan {
		units <- unit
	}
	close(units)
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		logger.Error("Execution finished with failures.", "failed", len(errs), "total", len(plan))
		return errors.Join(errs...)
	}
	logger.Debug("Execution finished.", "units", len(plan))
	return nil
}

// worker is the processing loop for one concurrent worker.
func (e *Executor) worker(ctx context.Context, workerID int, units <-chan *resolver.Unit, errCh chan<- error, cancel context.CancelFunc) {
	logger := ctxlog.FromContext(ctx)
	for unit := range units {
		if ctx.Err() != nil {
			continue
		}
		unitLogger := logger.With("workerID", workerID, "unit", unit.Name())
		unitLogger.Info("Running analysis case.")
		if err := e.runUnit(ctxlog.WithLogger(ctx, unitLogger), unit); err != nil {
			unitLogger.Error("Analysis case failed.", "error", err)
			errCh <- err
			cancel()
			continue
		}
		unitLogger.Info("Analysis case finished.")
	}
}
