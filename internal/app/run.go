package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oceanbgc/climodiag/internal/cache"
	"github.com/oceanbgc/climodiag/internal/ctxlog"
	"github.com/oceanbgc/climodiag/internal/executor"
	"github.com/oceanbgc/climodiag/internal/resolver"
	"github.com/oceanbgc/climodiag/internal/vars"
)

// Run executes the main application logic: load, resolve, execute. In watch
// mode it loops, re-running the plan on every configuration change.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.Watch {
		return a.watch(ctx)
	}
	return a.runOnce(ctx)
}

func (a *App) runOnce(ctx context.Context) error {
	doc, err := a.loader.Load(ctx, a.config.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.logger.Debug("Configuration loaded and translated into unified model.")

	plan, err := resolver.Resolve(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to resolve execution plan: %w", err)
	}
	a.logger.Debug("Execution plan resolved.", "units", len(plan))

	if a.config.DryRun {
		a.printPlan(plan)
		return nil
	}

	if len(plan) == 0 {
		a.logger.Warn("Execution plan is empty, nothing to do.")
		return nil
	}

	if doc.VariableDefs == "" {
		return fmt.Errorf("configuration does not name a variable_definitions document")
	}
	table, err := vars.Load(resolveRelative(a.config.ConfigPath, doc.VariableDefs))
	if err != nil {
		return err
	}

	store, err := openCache(plan)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	a.logger.Info("🚀 Starting plan execution...", "units", len(plan), "workers", a.config.Workers)
	exec := executor.New(a.config.Workers, a.sources, table, store)
	if err := exec.Run(ctx, plan); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")
	return nil
}

// printPlan writes the resolved plan in execution order, one line per unit
// with its data slices and reference.
func (a *App) printPlan(plan []*resolver.Unit) {
	fmt.Fprintf(a.outW, "Execution plan: %d unit(s)\n", len(plan))
	for i, unit := range plan {
		fmt.Fprintf(a.outW, "%3d. %s (%s)\n", i+1, unit.Name(), unit.Operation)

		labels := make([]string, 0, len(unit.Bindings))
		for _, b := range unit.Bindings {
			labels = append(labels, b.Label())
		}
		fmt.Fprintf(a.outW, "     data: %s\n", strings.Join(labels, ", "))
		if unit.Reference != nil {
			fmt.Fprintf(a.outW, "     reference: %s\n", unit.Reference.Label())
		}
	}
}

// resolveRelative interprets a path from the configuration document
// relative to the document's own directory.
func resolveRelative(configPath, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(configPath), path)
}

// openCache opens the climatology cache when any unit of the plan asks for
// it. All caching units must agree on the directory; one run writes one
// cache.
func openCache(plan []*resolver.Unit) (*cache.Store, error) {
	dir := ""
	for _, unit := range plan {
		if !unit.Settings.CacheData {
			continue
		}
		if dir != "" && dir != unit.Settings.CacheDir {
			return nil, fmt.Errorf("conflicting cache_dir values %q and %q in one run",
				dir, unit.Settings.CacheDir)
		}
		dir = unit.Settings.CacheDir
	}
	if dir == "" {
		return nil, nil
	}
	return cache.Open(dir)
}
