package resolver

import (
	"context"

	"github.com/oceanbgc/climodiag/internal/config"
	"github.com/oceanbgc/climodiag/internal/ctxlog"
	"github.com/oceanbgc/climodiag/internal/datestr"
)

// Resolve validates the document and produces the execution plan: one unit
// per (analysis type, case), in document order. It returns *config.Error
// for structural and referential problems and *datestr.QueryError for a
// malformed date-range query. On any error no plan is returned.
func Resolve(ctx context.Context, doc *config.Document) ([]*Unit, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving execution plan.")

	if err := doc.Sources.Validate(); err != nil {
		return nil, err
	}

	var plan []*Unit
	for _, analysis := range doc.Analyses {
		cat, ok := categories[analysis.Name]
		if !ok {
			return nil, config.Errorf("analysis",
				"%q is not a valid analysis category", analysis.Name)
		}
		if analysis.Settings == nil {
			return nil, config.Errorf("analysis."+analysis.Name,
				"missing _settings")
		}

		// Precedence: _settings > global_config > category defaults.
		merged := cat.defaults.
			Merge(globalSettings(doc.Global)).
			Merge(Settings(analysis.Settings))
		section := "analysis." + analysis.Name + "._settings"
		if err := merged.checkKeys(section, cat.allowedKeys()); err != nil {
			return nil, err
		}
		settings, err := merged.effective(section)
		if err != nil {
			return nil, err
		}

		for _, c := range analysis.Cases {
			caseSettings := settings
			if c.Settings != nil {
				// A case may override its analysis type's settings.
				caseMerged := merged.Merge(Settings(c.Settings))
				caseSection := "analysis." + analysis.Name + "." + c.Name + "._settings"
				if err := caseMerged.checkKeys(caseSection, cat.allowedKeys()); err != nil {
					return nil, err
				}
				if caseSettings, err = caseMerged.effective(caseSection); err != nil {
					return nil, err
				}
			}
			unit, err := resolveCase(doc, analysis.Name, cat, caseSettings, c)
			if err != nil {
				return nil, err
			}
			logger.Debug("Resolved case.",
				"analysis", analysis.Name,
				"case", c.Name,
				"bindings", len(unit.Bindings))
			plan = append(plan, unit)
		}
	}

	logger.Debug("Execution plan resolved.", "units", len(plan))
	return plan, nil
}

func resolveCase(doc *config.Document, analysisName string, cat *category, settings *Effective, c *config.Case) (*Unit, error) {
	section := "analysis." + analysisName + "." + c.Name
	if len(c.Datestrs) == 0 {
		return nil, config.Errorf(section, "missing datestrs")
	}

	unit := &Unit{
		Analysis:  analysisName,
		Case:      c.Name,
		Operation: cat.operation,
		Settings:  settings,
	}

	// seen indexes resolved bindings by (source, rendered selector) so the
	// reference check below can match exact slices.
	seen := map[string]bool{}
	for _, b := range c.Datestrs {
		spec, ok := doc.Sources.Lookup(b.Source)
		if !ok {
			return nil, config.Errorf(section+".datestrs",
				"unknown data source %q", b.Source)
		}
		for _, query := range b.Queries {
			sel, err := datestr.Parse(query)
			if err != nil {
				return nil, err
			}
			resolved := Binding{
				Source:   b.Source,
				Spec:     spec,
				Selector: sel,
				Obs:      doc.Sources.IsObs(b.Source),
			}
			unit.Bindings = append(unit.Bindings, resolved)
			seen[resolved.Label()] = true
		}
	}

	for _, r := range c.Reference {
		if unit.Reference != nil {
			return nil, config.Errorf(section+".reference",
				"more than one reference dataset specified")
		}
		spec, ok := doc.Sources.Lookup(r.Source)
		if !ok {
			return nil, config.Errorf(section+".reference",
				"unknown data source %q", r.Source)
		}
		if len(r.Queries) != 1 {
			return nil, config.Errorf(section+".reference",
				"%s: reference must bind exactly one date range", r.Source)
		}
		sel, err := datestr.Parse(r.Queries[0])
		if err != nil {
			return nil, err
		}
		ref := Binding{
			Source:   r.Source,
			Spec:     spec,
			Selector: sel,
			Obs:      doc.Sources.IsObs(r.Source),
		}
		if !seen[ref.Label()] {
			return nil, config.Errorf(section+".reference",
				"%s is not among the case's datestrs", ref.Label())
		}
		unit.Reference = &ref
	}

	return unit, nil
}
