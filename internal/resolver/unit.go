package resolver

import (
	"github.com/oceanbgc/climodiag/internal/config"
	"github.com/oceanbgc/climodiag/internal/datestr"
)

// Binding pairs one data source with one resolved date-range selector.
type Binding struct {
	Source   string
	Spec     *config.SourceSpec
	Selector datestr.Selector
	Obs      bool
}

// Label names the bound slice the way cache keys, log lines, and plot
// panels refer to it, e.g. "PI_control.0271-0300" or "WOA2013.ALL".
func (b Binding) Label() string {
	return b.Source + "." + b.Selector.String()
}

// Unit is one fully resolved (analysis type, case) execution unit. Units
// are immutable after resolution and share no mutable state with each
// other, so callers are free to execute them concurrently.
type Unit struct {
	Analysis  string
	Case      string
	Operation Operation
	Settings  *Effective
	// Bindings holds the case's data bindings in document order.
	Bindings []Binding
	// Reference is the baseline binding for difference plots, or nil.
	Reference *Binding
}

// Name identifies the unit in logs and output paths.
func (u *Unit) Name() string {
	return u.Analysis + "/" + u.Case
}
