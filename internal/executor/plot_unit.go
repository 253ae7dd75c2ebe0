package executor

import (
	"context"
	"fmt"

	"github.com/oceanbgc/climodiag/internal/ctxlog"
	"github.com/oceanbgc/climodiag/internal/dataset"
	"github.com/oceanbgc/climodiag/internal/plot"
	"github.com/oceanbgc/climodiag/internal/resolver"
)

// depthCoordFor validates the unit's grid against the known-grids table.
func depthCoordFor(unit *resolver.Unit) (string, error) {
	if unit.Settings.Grid == "" {
		return "", fmt.Errorf("no grid configured")
	}
	return plot.DepthCoord(unit.Settings.Grid)
}

// plotUnit renders one figure per (variable, depth, time period).
func (e *Executor) plotUnit(ctx context.Context, unit *resolver.Unit, results []*loaded) error {
	logger := ctxlog.FromContext(ctx)
	settings := unit.Settings
	renderer := &plot.Renderer{Format: settings.PlotFormat}

	var ref *loaded
	if len(results) > 0 && results[0].isRef {
		ref = results[0]
		logger.Info("Reference dataset selected.", "reference", ref.binding.Label())
	} else {
		logger.Info("No reference dataset specified.")
	}

	for _, variable := range settings.Variables {
		if _, err := e.vars.Def(variable); err != nil {
			return err
		}
		for _, period := range settings.TimePeriods {
			for _, depth := range settings.Levels {
				path := plot.FileName(settings.DirOut, unit.Case, variable, depth.Label(), period, settings.PlotFormat)
				panels, err := e.buildPanels(unit, results, ref, variable, period, depth.Top, depth.Bottom, depth.IsRange)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if len(panels) == 0 {
					logger.Warn("No dataset provides variable, skipping figure.",
						"variable", variable, "period", period)
					continue
				}
				logger.Info("Generating plot.", "path", path, "panels", len(panels))
				if err := renderer.Render(path, panels); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// buildPanels assembles the panel list for one figure: each dataset that
// provides the variable, reference first, followed by difference panels
// when a reference is set and differencing is enabled.
func (e *Executor) buildPanels(unit *resolver.Unit, results []*loaded, ref *loaded, variable, period string, top, bottom float64, isRange bool) ([]plot.Panel, error) {
	var refField *dataset.Field
	if ref != nil {
		f, err := reduceField(ref, variable, period, top, bottom, isRange)
		if err != nil {
			return nil, err
		}
		refField = f
	}

	var panels []plot.Panel
	for _, l := range results {
		field, err := reduceField(l, variable, period, top, bottom, isRange)
		if err != nil {
			return nil, err
		}
		if field == nil {
			continue
		}
		title := l.binding.Label()
		if unit.Settings.StatsInTitle {
			if st, err := dataset.WeightedStats(field, areaFor(l, field)); err == nil {
				title = title + "\n" + st.Title()
			}
		}
		panels = append(panels, plot.Panel{Title: title, Field: field})
	}

	if refField != nil && unit.Settings.PlotDiff {
		for _, l := range results {
			if l.isRef {
				continue
			}
			field, err := reduceField(l, variable, period, top, bottom, isRange)
			if err != nil {
				return nil, err
			}
			if field == nil {
				continue
			}
			diff, err := field.Sub(refField)
			if err != nil {
				return nil, fmt.Errorf("difference vs %s: %w", ref.binding.Label(), err)
			}
			panels = append(panels, plot.Panel{
				Title:     l.binding.Label() + " (Bias)",
				Field:     diff,
				Diverging: true,
			})
		}
	}
	return panels, nil
}

// reduceField takes one dataset down to the 2D field a panel draws:
// average the period's months, then select the depth. Returns nil when the
// dataset does not provide the variable.
func reduceField(l *loaded, variable, period string, top, bottom float64, isRange bool) (*dataset.Field, error) {
	local, ok := l.names[variable]
	if !ok {
		return nil, nil
	}
	f, ok := l.ds.Field(local)
	if !ok {
		return nil, fmt.Errorf("can not find %s in %s", local, l.binding.Label())
	}
	indices, err := dataset.SeasonIndices(period, l.ds.TimeLen())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.binding.Label(), err)
	}
	mean, err := f.MeanOver("time", indices)
	if err != nil {
		return nil, err
	}
	return l.ds.SelectDepth(mean, top, bottom, isRange)
}

// areaFor returns the cell-area weights when their shape matches the
// reduced field; otherwise stats fall back to uniform weighting.
func areaFor(l *loaded, field *dataset.Field) *dataset.Field {
	if l.ds.Area == nil || l.ds.Area.Len() != field.Len() {
		return nil
	}
	return l.ds.Area
}
