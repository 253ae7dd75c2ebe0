// Package hclconf loads the HCL form of the diagnostics configuration
// document into the typed config model. It accepts the same document
// structure as the YAML front end, spelled as HCL blocks:
//
//	global_config { dirout = "/glade/scratch/me/diags" }
//	data_source "obs" "WOA2013" { source = "woa2013" }
//	analysis "bgc_maps" {
//	  settings { grid = "POP_gx1v7" }
//	  case "PI_vs_FV2" { datestrs = { PI_control = "0271-0300" } }
//	}
package hclconf

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/oceanbgc/climodiag/internal/config"
	"github.com/oceanbgc/climodiag/internal/ctxlog"
)

// Loader implements config.Loader for HCL documents.
type Loader struct{}

// NewLoader returns an HCL document loader.
func NewLoader() *Loader { return &Loader{} }

type fileRoot struct {
	Global       *globalBlock     `hcl:"global_config,block"`
	VariableDefs string           `hcl:"variable_definitions,optional"`
	Sources      []*sourceBlock   `hcl:"data_source,block"`
	Analyses     []*analysisBlock `hcl:"analysis,block"`
}

type globalBlock struct {
	DirOut     string    `hcl:"dirout,optional"`
	PlotFormat string    `hcl:"plot_format,optional"`
	Levels     cty.Value `hcl:"levels,optional"`
	CacheData  bool      `hcl:"cache_data,optional"`
	CacheDir   string    `hcl:"cache_dir,optional"`
	KeepFigs   bool      `hcl:"keep_figs,optional"`
}

type sourceBlock struct {
	Namespace string `hcl:"namespace,label"` // "obs" or "dataset"
	Name      string `hcl:"name,label"`
	Kind      string `hcl:"source"`
	DirIn     string `hcl:"dirin,optional"`
	Case      string `hcl:"case,optional"`
	Stream    string `hcl:"stream,optional"`
	FileType  string `hcl:"filetype,optional"`
	Freq      string `hcl:"freq,optional"`
	Grid      string `hcl:"grid,optional"`
}

type analysisBlock struct {
	Name     string         `hcl:"name,label"`
	Settings *settingsBlock `hcl:"settings,block"`
	Cases    []*caseBlock   `hcl:"case,block"`
}

type settingsBlock struct {
	Remain hcl.Body `hcl:",remain"`
}

type caseBlock struct {
	Name      string         `hcl:"name,label"`
	Settings  *settingsBlock `hcl:"settings,block"`
	Datestrs  hcl.Expression `hcl:"datestrs"`
	Reference hcl.Expression `hcl:"reference,optional"`
}

// Load reads and translates the document at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading HCL configuration.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, config.Errorf("", "parsing %s: %s", path, diags.Error())
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, config.Errorf("", "decoding %s: %s", path, diags.Error())
	}

	doc := &config.Document{
		VariableDefs: root.VariableDefs,
		Sources: config.SourceSet{
			Obs:      map[string]*config.SourceSpec{},
			Datasets: map[string]*config.SourceSpec{},
		},
	}

	if root.Global != nil {
		if err := translateGlobal(root.Global, &doc.Global); err != nil {
			return nil, err
		}
	}
	for _, src := range root.Sources {
		spec := &config.SourceSpec{
			Name:     src.Name,
			Kind:     src.Kind,
			DirIn:    src.DirIn,
			Case:     src.Case,
			Stream:   src.Stream,
			FileType: src.FileType,
			Freq:     src.Freq,
			Grid:     src.Grid,
		}
		switch src.Namespace {
		case "obs":
			doc.Sources.Obs[src.Name] = spec
		case "dataset":
			doc.Sources.Datasets[src.Name] = spec
		default:
			return nil, config.Errorf("data_sources",
				"data_source namespace must be \"obs\" or \"dataset\", got %q", src.Namespace)
		}
	}
	for _, block := range root.Analyses {
		analysis, err := translateAnalysis(block)
		if err != nil {
			return nil, err
		}
		doc.Analyses = append(doc.Analyses, analysis)
	}

	logger.Debug("HCL configuration loaded.",
		"analyses", len(doc.Analyses),
		"obs", len(doc.Sources.Obs),
		"datasets", len(doc.Sources.Datasets))
	return doc, nil
}

func translateGlobal(block *globalBlock, g *config.Global) error {
	g.DirOut = block.DirOut
	g.PlotFormat = block.PlotFormat
	g.CacheData = block.CacheData
	g.CacheDir = block.CacheDir
	g.KeepFigs = block.KeepFigs
	if block.Levels.IsNull() {
		return nil
	}
	raw, err := goValue(block.Levels)
	if err != nil {
		return config.Errorf("global_config", "levels: %v", err)
	}
	levels, err := translateLevels(raw)
	if err != nil {
		return config.Errorf("global_config", "levels: %v", err)
	}
	g.Levels = levels
	return nil
}

// translateLevels accepts the mixed-shape depth list: numbers for single
// levels, two-element lists for averaged ranges.
func translateLevels(raw any) ([]config.Depth, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("must be a list")
	}
	levels := make([]config.Depth, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			levels = append(levels, config.Depth{Top: v, Bottom: v})
		case []any:
			if len(v) != 2 {
				return nil, fmt.Errorf("a depth range needs exactly two elements, got %d", len(v))
			}
			top, okT := v[0].(float64)
			bottom, okB := v[1].(float64)
			if !okT || !okB {
				return nil, fmt.Errorf("depth range bounds must be numbers")
			}
			levels = append(levels, config.Depth{Top: top, Bottom: bottom, IsRange: true})
		default:
			return nil, fmt.Errorf("each level must be a number or a two-element range")
		}
	}
	return levels, nil
}

func translateAnalysis(block *analysisBlock) (*config.Analysis, error) {
	section := "analysis." + block.Name
	analysis := &config.Analysis{Name: block.Name}

	if block.Settings != nil {
		settings, err := translateSettings(section+".settings", block.Settings)
		if err != nil {
			return nil, err
		}
		analysis.Settings = settings
	}

	for _, c := range block.Cases {
		caseSection := section + "." + c.Name
		translated := &config.Case{Name: c.Name}

		if c.Settings != nil {
			settings, err := translateSettings(caseSection+".settings", c.Settings)
			if err != nil {
				return nil, err
			}
			translated.Settings = settings
		}

		bindings, err := translateBindings(caseSection+".datestrs", c.Datestrs)
		if err != nil {
			return nil, err
		}
		translated.Datestrs = bindings

		if c.Reference != nil {
			bindings, err := translateBindings(caseSection+".reference", c.Reference)
			if err != nil {
				return nil, err
			}
			translated.Reference = bindings
		}
		analysis.Cases = append(analysis.Cases, translated)
	}
	return analysis, nil
}

// translateSettings evaluates a settings block into the untyped mapping the
// settings-merge layer works with.
func translateSettings(section string, block *settingsBlock) (map[string]any, error) {
	attrs, diags := block.Remain.JustAttributes()
	if diags.HasErrors() {
		return nil, config.Errorf(section, "%s", diags.Error())
	}
	settings := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, config.Errorf(section, "%s: %s", name, diags.Error())
		}
		raw, err := goValue(val)
		if err != nil {
			return nil, config.Errorf(section, "%s: %v", name, err)
		}
		settings[name] = raw
	}
	return settings, nil
}

// translateBindings reads a source -> date-query object in source order.
// Each query is a string, null for the all-available sentinel, or a list of
// strings.
func translateBindings(section string, expr hcl.Expression) ([]config.Binding, error) {
	pairs, diags := hcl.ExprMap(expr)
	if diags.HasErrors() {
		// An omitted optional attribute decodes to a null literal.
		if v, d := expr.Value(nil); !d.HasErrors() && v.IsNull() {
			return nil, nil
		}
		return nil, config.Errorf(section, "must be an object of source names to date queries")
	}

	var bindings []config.Binding
	for _, pair := range pairs {
		name := hcl.ExprAsKeyword(pair.Key)
		if name == "" {
			val, diags := pair.Key.Value(nil)
			if diags.HasErrors() || val.Type() != cty.String {
				return nil, config.Errorf(section, "source names must be identifiers or strings")
			}
			name = val.AsString()
		}

		val, diags := pair.Value.Value(nil)
		if diags.HasErrors() {
			return nil, config.Errorf(section, "%s: %s", name, diags.Error())
		}
		queries, err := translateQueries(val)
		if err != nil {
			return nil, config.Errorf(section, "%s: %v", name, err)
		}
		bindings = append(bindings, config.Binding{Source: name, Queries: queries})
	}
	return bindings, nil
}

func translateQueries(val cty.Value) ([]string, error) {
	if val.IsNull() {
		return []string{""}, nil
	}
	if val.Type() == cty.String {
		return []string{val.AsString()}, nil
	}
	if val.Type().IsTupleType() || val.Type().IsListType() {
		var queries []string
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if elem.IsNull() {
				queries = append(queries, "")
				continue
			}
			if elem.Type() != cty.String {
				return nil, fmt.Errorf("date queries must be strings")
			}
			queries = append(queries, elem.AsString())
		}
		return queries, nil
	}
	return nil, fmt.Errorf("expected a date query or list of date queries")
}

// goValue converts an evaluated cty value to plain Go values, the shape the
// settings-merge layer works with.
func goValue(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	t := val.Type()
	switch {
	case t == cty.String:
		return val.AsString(), nil
	case t == cty.Bool:
		return val.True(), nil
	case t == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			v, err := goValue(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case t.IsObjectType() || t.IsMapType():
		out := map[string]any{}
		for it := val.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			v, err := goValue(elem)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", t.FriendlyName())
}
