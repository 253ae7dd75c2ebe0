// Package source opens registered data sources into in-memory datasets.
//
// Each data-source kind (cesm, woa2005, woa2013) registers an Opener; the
// registry dispatches on the kind named in the configuration, so adding a
// new source format is a matter of registering another opener.
package source

import (
	"context"
	"fmt"

	"github.com/oceanbgc/climodiag/internal/config"
	"github.com/oceanbgc/climodiag/internal/dataset"
	"github.com/oceanbgc/climodiag/internal/datestr"
)

// Info describes what the opener produced. Sources that are already a
// climatology (WOA products, pre-averaged model streams) skip the
// climatology computation downstream.
type Info struct {
	IsAnnClimo bool
	IsMonClimo bool
}

// Climo reports whether the data is already some climatology.
func (i Info) Climo() bool { return i.IsAnnClimo || i.IsMonClimo }

// Request is everything an opener needs to produce a dataset slice.
type Request struct {
	Spec     *config.SourceSpec
	Selector datestr.Selector
	// Names maps generic variable names to this source's local spellings;
	// only these variables (plus coordinates and grid fields) are loaded.
	Names map[string]string
}

// Opener reads one data-source kind.
type Opener interface {
	Open(ctx context.Context, req Request) (*dataset.Dataset, Info, error)
}

// Registry dispatches source kinds to their openers.
type Registry struct {
	openers map[string]Opener
}

// NewRegistry returns a registry with the built-in source kinds registered.
func NewRegistry() *Registry {
	r := &Registry{openers: map[string]Opener{}}
	r.Register("cesm", &CESMOpener{})
	r.Register("woa2005", &WOAOpener{Edition: "05"})
	r.Register("woa2013", &WOAOpener{Edition: "13"})
	return r
}

// Register binds a kind name to an opener, replacing any previous binding.
func (r *Registry) Register(kind string, o Opener) {
	r.openers[kind] = o
}

// Open dispatches on the request's source kind.
func (r *Registry) Open(ctx context.Context, req Request) (*dataset.Dataset, Info, error) {
	o, ok := r.openers[req.Spec.Kind]
	if !ok {
		return nil, Info{}, fmt.Errorf("unknown source kind %q for data source %s",
			req.Spec.Kind, req.Spec.Name)
	}
	return o.Open(ctx, req)
}
