package executor

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/oceanbgc/climodiag/internal/cache"
	"github.com/oceanbgc/climodiag/internal/ctxlog"
	"github.com/oceanbgc/climodiag/internal/dataset"
	"github.com/oceanbgc/climodiag/internal/resolver"
	"github.com/oceanbgc/climodiag/internal/source"
)

// loaded is one data binding after reading and climatology reduction.
type loaded struct {
	binding resolver.Binding
	ds      *dataset.Dataset
	// names maps the generic variables this source can provide to their
	// local spellings in ds.
	names map[string]string
	isRef bool
}

// runUnit executes one resolved case end to end: load every binding
// concurrently, then render its figures.
func (e *Executor) runUnit(ctx context.Context, unit *resolver.Unit) error {
	depthCoord, err := depthCoordFor(unit)
	if err != nil {
		return fmt.Errorf("%s: %w", unit.Name(), err)
	}

	results := make([]*loaded, len(unit.Bindings))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range unit.Bindings {
		g.Go(func() error {
			l, err := e.loadBinding(gctx, unit, b)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", unit.Name(), b.Label(), err)
			}
			results[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, l := range results {
		if err := validateDepthCoord(depthCoord, l); err != nil {
			return fmt.Errorf("%s: %w", unit.Name(), err)
		}
	}

	if unit.Reference != nil {
		for _, l := range results {
			if l.binding.Label() == unit.Reference.Label() {
				l.isRef = true
			}
		}
	}

	if err := e.plotUnit(ctx, unit, orderReferenceFirst(results)); err != nil {
		return fmt.Errorf("%s: %w", unit.Name(), err)
	}
	return nil
}

// loadBinding produces the climatology for one data binding, consulting the
// cache when enabled.
func (e *Executor) loadBinding(ctx context.Context, unit *resolver.Unit, b resolver.Binding) (*loaded, error) {
	logger := ctxlog.FromContext(ctx)

	names := e.providedNames(b.Spec.Kind, unit.Settings.Variables)
	if len(names) == 0 {
		return nil, fmt.Errorf("source kind %q provides none of the requested variables", b.Spec.Kind)
	}

	// Caching can be toggled per analysis, not just per run.
	store := e.cache
	if !unit.Settings.CacheData {
		store = nil
	}

	key := cache.Key{
		Analysis: unit.Analysis,
		Slice:    b.Label(),
		Climo:    unit.Operation.Climo(),
	}
	if store != nil {
		ds, cachedNames, err := store.Get(ctx, key)
		if err == nil {
			logger.Debug("Using cached climatology.", "slice", b.Label())
			l := &loaded{binding: b, ds: ds, names: cachedNames}
			return l, validateTimeAxis(unit, l)
		}
		if !errors.Is(err, cache.ErrMiss) {
			return nil, err
		}
	}

	ds, info, err := e.sources.Open(ctx, source.Request{Spec: b.Spec, Selector: b.Selector, Names: names})
	if err != nil {
		return nil, err
	}

	if !info.Climo() {
		logger.Debug("Computing monthly climatology.", "slice", b.Label())
		ds, err = ds.MonthlyClimatology()
		if err != nil {
			return nil, err
		}
		if store != nil {
			if err := store.Put(ctx, key, ds, names); err != nil {
				return nil, err
			}
			logger.Debug("Cached climatology.", "slice", b.Label())
		}
	}

	l := &loaded{binding: b, ds: ds, names: names}
	return l, validateTimeAxis(unit, l)
}

// providedNames restricts the requested generic variables to those this
// source kind has a name mapping for. A variable absent from one source
// simply drops out of that source's panels.
func (e *Executor) providedNames(kind string, variables []string) map[string]string {
	names := map[string]string{}
	for _, generic := range variables {
		if name, err := e.vars.Name(generic, kind); err == nil {
			names[generic] = name
		}
	}
	return names
}

// validateTimeAxis enforces the shape contract of the unit's operation: an
// annual-climatology plot accepts a time axis of 1 or 12, a monthly one
// requires exactly 12.
func validateTimeAxis(unit *resolver.Unit, l *loaded) error {
	n := l.ds.TimeLen()
	switch unit.Operation {
	case resolver.PlotAnnClimo:
		if n != 1 && n != 12 {
			return fmt.Errorf("dataset %q must have time dimension of 1 or 12, got %d",
				l.binding.Label(), n)
		}
	case resolver.PlotMonClimo:
		if n != 12 {
			return fmt.Errorf("dataset %q must have time dimension of 12, got %d",
				l.binding.Label(), n)
		}
	default:
		return fmt.Errorf("unsupported operation %q", unit.Operation)
	}
	return nil
}

// validateDepthCoord rejects a model dataset whose depth coordinate does not
// match the one implied by the configured grid. Observational products stay
// on their own grids, and surface-only files carry no depth axis at all, so
// both are exempt.
func validateDepthCoord(coord string, l *loaded) error {
	if l.binding.Obs || l.ds.DepthName == "" {
		return nil
	}
	if l.ds.DepthName != coord {
		return fmt.Errorf("dataset %q has depth coordinate %q, expected %q for the configured grid",
			l.binding.Label(), l.ds.DepthName, coord)
	}
	return nil
}

// orderReferenceFirst keeps binding order but moves the reference dataset
// to the front so it renders as the first panel.
func orderReferenceFirst(results []*loaded) []*loaded {
	ordered := make([]*loaded, 0, len(results))
	for _, l := range results {
		if l.isRef {
			ordered = append(ordered, l)
		}
	}
	for _, l := range results {
		if !l.isRef {
			ordered = append(ordered, l)
		}
	}
	return ordered
}
