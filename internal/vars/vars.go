// Package vars loads the variable-metadata document: the mapping from
// generic variable names (nitrate, oxygen, ...) to the names each data
// source spells them with, plus units and contour hints for plotting.
package vars

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Contours carries the plotting hints for one variable.
type Contours struct {
	Levels   []float64 `yaml:"levels"`
	Extend   string    `yaml:"extend"`
	Cmap     string    `yaml:"cmap"`
	Midpoint float64   `yaml:"midpoint"`
}

// Def is the metadata for one generic variable.
type Def struct {
	LongName string `yaml:"long_name"`
	Units    string `yaml:"units"`
	// Names maps a data-source kind (cesm, woa2013, ...) to the variable
	// name that source's files use.
	Names    map[string]string `yaml:"names"`
	Contours Contours          `yaml:"contours"`
}

// Table is the full variable-definitions document.
type Table map[string]*Def

// Load reads the document at path.
func Load(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading variable definitions: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parsing variable definitions %s: %w", path, err)
	}
	return t, nil
}

// Def looks up a generic variable, failing with a descriptive error when it
// is not defined. All plot loops hit this before touching any data.
func (t Table) Def(generic string) (*Def, error) {
	d, ok := t[generic]
	if !ok {
		return nil, fmt.Errorf("%s not defined in variable definitions", generic)
	}
	return d, nil
}

// Name resolves the source-local spelling of a generic variable for a
// data-source kind.
func (t Table) Name(generic, kind string) (string, error) {
	d, err := t.Def(generic)
	if err != nil {
		return "", err
	}
	name, ok := d.Names[kind]
	if !ok {
		return "", fmt.Errorf("%s has no name mapping for source kind %q", generic, kind)
	}
	return name, nil
}

// NamesFor inverts the table for one source kind: source-local name back to
// the generic name, restricted to the given generic variables.
func (t Table) NamesFor(kind string, generics []string) (map[string]string, error) {
	out := make(map[string]string, len(generics))
	for _, g := range generics {
		name, err := t.Name(g, kind)
		if err != nil {
			return nil, err
		}
		out[g] = name
	}
	return out, nil
}
