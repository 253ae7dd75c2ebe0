// Package yamlconf loads the YAML form of the diagnostics configuration
// document into the typed config model.
//
// The analysis section is walked as a yaml.Node tree rather than decoded
// into Go maps, because mapping order in the document is contractual: the
// resolved plan follows order of appearance.
package yamlconf

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oceanbgc/climodiag/internal/config"
	"github.com/oceanbgc/climodiag/internal/ctxlog"
)

// Loader implements config.Loader for YAML documents.
type Loader struct{}

// NewLoader returns a YAML document loader.
func NewLoader() *Loader { return &Loader{} }

// Load reads and translates the document at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading YAML configuration.", "path", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, config.Errorf("", "document is empty")
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, config.Errorf("", "document root must be a mapping")
	}

	doc := &config.Document{
		Sources: config.SourceSet{
			Obs:      map[string]*config.SourceSpec{},
			Datasets: map[string]*config.SourceSpec{},
		},
	}
	for i := 0; i < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		switch key.Value {
		case "global_config":
			if err := checkMappingKeys("global_config", value, globalKeys); err != nil {
				return nil, err
			}
			if err := value.Decode(&doc.Global); err != nil {
				return nil, config.Errorf("global_config", "%v", err)
			}
		case "data_sources":
			if err := decodeSources(value, &doc.Sources); err != nil {
				return nil, err
			}
		case "variable_definitions":
			if err := value.Decode(&doc.VariableDefs); err != nil {
				return nil, config.Errorf("variable_definitions", "%v", err)
			}
		case "analysis":
			analyses, err := decodeAnalyses(value)
			if err != nil {
				return nil, err
			}
			doc.Analyses = analyses
		default:
			// Catch typos early instead of silently ignoring a whole section.
			return nil, config.Errorf("", "unrecognized top-level key %q at line %d",
				key.Value, key.Line)
		}
	}

	logger.Debug("YAML configuration loaded.",
		"analyses", len(doc.Analyses),
		"obs", len(doc.Sources.Obs),
		"datasets", len(doc.Sources.Datasets))
	return doc, nil
}

// The typed model decodes leniently, so mapping bodies are checked
// key-by-key first: a typo'd key must fail the load, not fall back to a
// default.
var (
	globalKeys = map[string]bool{
		"dirout": true, "plot_format": true, "levels": true,
		"cache_data": true, "cache_dir": true, "keep_figs": true,
	}
	sourceSpecKeys = map[string]bool{
		"source": true, "dirin": true, "case": true, "stream": true,
		"filetype": true, "freq": true, "grid": true,
	}
)

func checkMappingKeys(section string, node *yaml.Node, allowed map[string]bool) error {
	if node.Kind != yaml.MappingNode {
		return config.Errorf(section, "must be a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if !allowed[key.Value] {
			return config.Errorf(section, "unrecognized key %q at line %d",
				key.Value, key.Line)
		}
	}
	return nil
}

func decodeSources(node *yaml.Node, set *config.SourceSet) error {
	if node.Kind != yaml.MappingNode {
		return config.Errorf("data_sources", "must be a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var into map[string]*config.SourceSpec
		switch key.Value {
		case "obs":
			into = set.Obs
		case "datasets":
			into = set.Datasets
		default:
			return config.Errorf("data_sources", "unrecognized key %q at line %d",
				key.Value, key.Line)
		}
		if value.Kind != yaml.MappingNode {
			return config.Errorf("data_sources."+key.Value, "must be a mapping")
		}
		for j := 0; j < len(value.Content); j += 2 {
			name, specNode := value.Content[j], value.Content[j+1]
			section := "data_sources." + key.Value + "." + name.Value
			if err := checkMappingKeys(section, specNode, sourceSpecKeys); err != nil {
				return err
			}
			spec := &config.SourceSpec{}
			if err := specNode.Decode(spec); err != nil {
				return config.Errorf(section, "%v", err)
			}
			spec.Name = name.Value
			into[name.Value] = spec
		}
	}
	return nil
}

func decodeAnalyses(node *yaml.Node) ([]*config.Analysis, error) {
	if node.Kind != yaml.MappingNode {
		return nil, config.Errorf("analysis", "must be a mapping")
	}
	var analyses []*config.Analysis
	for i := 0; i < len(node.Content); i += 2 {
		name, body := node.Content[i], node.Content[i+1]
		analysis, err := decodeAnalysis(name.Value, body)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

func decodeAnalysis(name string, node *yaml.Node) (*config.Analysis, error) {
	section := "analysis." + name
	if node.Kind != yaml.MappingNode {
		return nil, config.Errorf(section, "must be a mapping")
	}
	analysis := &config.Analysis{Name: name}
	for i := 0; i < len(node.Content); i += 2 {
		key, body := node.Content[i], node.Content[i+1]
		if key.Value == "_settings" {
			if err := body.Decode(&analysis.Settings); err != nil {
				return nil, config.Errorf(section+"._settings", "%v", err)
			}
			continue
		}
		c, err := decodeCase(section, key.Value, body)
		if err != nil {
			return nil, err
		}
		analysis.Cases = append(analysis.Cases, c)
	}
	return analysis, nil
}

func decodeCase(section, name string, node *yaml.Node) (*config.Case, error) {
	section = section + "." + name
	if node.Kind != yaml.MappingNode {
		return nil, config.Errorf(section, "must be a mapping")
	}
	c := &config.Case{Name: name}
	for i := 0; i < len(node.Content); i += 2 {
		key, body := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "_settings":
			if err := body.Decode(&c.Settings); err != nil {
				return nil, config.Errorf(section+"._settings", "%v", err)
			}
		case "datestrs":
			bindings, err := decodeBindings(section+".datestrs", body)
			if err != nil {
				return nil, err
			}
			c.Datestrs = bindings
		case "reference":
			bindings, err := decodeBindings(section+".reference", body)
			if err != nil {
				return nil, err
			}
			c.Reference = bindings
		default:
			return nil, config.Errorf(section, "unrecognized key %q at line %d",
				key.Value, key.Line)
		}
	}
	return c, nil
}

// decodeBindings reads a source -> date-query mapping. Each query is a
// scalar (string, or null for the all-available sentinel) or a sequence of
// scalars.
func decodeBindings(section string, node *yaml.Node) ([]config.Binding, error) {
	if node.Kind != yaml.MappingNode {
		return nil, config.Errorf(section, "must be a mapping")
	}
	var bindings []config.Binding
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		b := config.Binding{Source: key.Value}
		switch value.Kind {
		case yaml.ScalarNode:
			b.Queries = []string{scalarQuery(value)}
		case yaml.SequenceNode:
			for _, item := range value.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, config.Errorf(section,
						"%s: date queries must be scalars", key.Value)
				}
				b.Queries = append(b.Queries, scalarQuery(item))
			}
		default:
			return nil, config.Errorf(section,
				"%s: expected a date query or list of date queries", key.Value)
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// scalarQuery maps YAML null to the empty string, which datestr.Parse treats
// as the all-available sentinel.
func scalarQuery(node *yaml.Node) string {
	if node.Tag == "!!null" {
		return ""
	}
	return node.Value
}
