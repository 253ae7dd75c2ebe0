package config

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Loader is the interface for a format-specific configuration front end.
// Implementations translate an on-disk document into the typed model,
// reporting *Error for anything structurally wrong.
type Loader interface {
	Load(ctx context.Context, path string) (*Document, error)
}

// Document is the root of the configuration model.
type Document struct {
	Global       Global
	Sources      SourceSet
	VariableDefs string // path to the variable-metadata document
	Analyses     []*Analysis
}

// Global holds the global_config section: output location and the settings
// that seed every analysis type's effective settings.
type Global struct {
	DirOut     string  `yaml:"dirout"`
	PlotFormat string  `yaml:"plot_format"`
	Levels     []Depth `yaml:"levels"`
	CacheData  bool    `yaml:"cache_data"`
	CacheDir   string  `yaml:"cache_dir"`
	KeepFigs   bool    `yaml:"keep_figs"`
}

// SourceSet partitions the registered data sources into observational
// products and model runs. The two namespaces must not overlap.
type SourceSet struct {
	Obs      map[string]*SourceSpec
	Datasets map[string]*SourceSpec
}

// Lookup finds a source by name in either namespace.
func (s *SourceSet) Lookup(name string) (*SourceSpec, bool) {
	if spec, ok := s.Obs[name]; ok {
		return spec, true
	}
	spec, ok := s.Datasets[name]
	return spec, ok
}

// IsObs reports whether name is registered as an observational product.
func (s *SourceSet) IsObs(name string) bool {
	_, ok := s.Obs[name]
	return ok
}

// Validate checks the obs/datasets namespace invariant.
func (s *SourceSet) Validate() error {
	for name := range s.Obs {
		if _, ok := s.Datasets[name]; ok {
			return Errorf("data_sources",
				"source %q appears in both obs and datasets", name)
		}
	}
	return nil
}

// SourceSpec describes one registered data source.
type SourceSpec struct {
	Name     string `yaml:"-"`
	Kind     string `yaml:"source"`   // cesm, woa2005, woa2013
	DirIn    string `yaml:"dirin"`    //
	Case     string `yaml:"case"`     // cesm: run name in history file names
	Stream   string `yaml:"stream"`   // cesm: history stream, e.g. pop.h
	FileType string `yaml:"filetype"` // cesm: hist, mon_climo, ann_climo, single_variable
	Freq     string `yaml:"freq"`     // woa: ann or mon
	Grid     string `yaml:"grid"`     // woa: 1x1d or model grid name
}

// Analysis is one analysis type: its raw default settings plus its cases,
// in document order.
type Analysis struct {
	Name     string
	Settings map[string]any // the _settings mapping, uninterpreted
	Cases    []*Case
}

// Case is a named comparison unit within an analysis type.
type Case struct {
	Name string
	// Settings holds the case's own _settings mapping, overriding the
	// analysis type's; nil when the case declares none.
	Settings map[string]any
	// Datestrs binds data sources to date-range queries, in document order.
	Datestrs []Binding
	// Reference names the baseline binding(s) for difference plots. Must be
	// a subset of Datestrs' sources.
	Reference []Binding
}

// Binding pairs a data-source name with its raw date-range queries. A YAML
// null query is kept as the empty string (the all-available sentinel); a
// scalar query yields one entry, a sequence one entry each.
type Binding struct {
	Source  string
	Queries []string
}

// Depth is one entry of a depth level list: either a single level (plotted
// at the nearest model level) or a [top, bottom] range (averaged).
type Depth struct {
	Top     float64
	Bottom  float64
	IsRange bool
}

// UnmarshalYAML accepts either a scalar depth or a two-element sequence.
func (d *Depth) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("depth level: %w", err)
		}
		*d = Depth{Top: v, Bottom: v}
		return nil
	case yaml.SequenceNode:
		var v []float64
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("depth range: %w", err)
		}
		if len(v) != 2 {
			return fmt.Errorf("depth range must have exactly 2 elements, got %d", len(v))
		}
		*d = Depth{Top: v[0], Bottom: v[1], IsRange: true}
		return nil
	}
	return fmt.Errorf("depth level must be a number or a [top, bottom] pair")
}

// Label renders the depth the way plot file names spell it, e.g. "500m" or
// "0-500m".
func (d Depth) Label() string {
	if d.IsRange {
		return fmt.Sprintf("%.0f-%.0fm", d.Top, d.Bottom)
	}
	return fmt.Sprintf("%.0fm", d.Top)
}
