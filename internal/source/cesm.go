package source

import (
	"context"
	"fmt"

	"github.com/oceanbgc/climodiag/internal/ctxlog"
	"github.com/oceanbgc/climodiag/internal/dataset"
	"github.com/oceanbgc/climodiag/internal/fsutil"
)

// CESMOpener reads CESM ocean history output: per-month history files named
// {dirin}/{case}.{stream}.{date}.nc, or pre-averaged climatology streams
// named {dirin}/{stream}.{date}.nc.
type CESMOpener struct{}

// FilePatterns renders the glob patterns a request expands to. Split out
// from Open so the naming scheme is testable without NetCDF files on disk.
func (o *CESMOpener) FilePatterns(req Request) ([]string, error) {
	spec := req.Spec
	if spec.DirIn == "" {
		return nil, fmt.Errorf("data source %s: dirin is required", spec.Name)
	}
	switch spec.FileType {
	case "", "hist":
		if spec.Case == "" || spec.Stream == "" {
			return nil, fmt.Errorf("data source %s: case and stream are required for history files", spec.Name)
		}
		if req.Selector.All() {
			return []string{fmt.Sprintf("%s/%s.%s.*.nc", spec.DirIn, spec.Case, spec.Stream)}, nil
		}
		var patterns []string
		for _, year := range req.Selector.Years() {
			patterns = append(patterns,
				fmt.Sprintf("%s/%s.%s.%s-*.nc", spec.DirIn, spec.Case, spec.Stream, year))
		}
		return patterns, nil
	case "mon_climo", "ann_climo":
		if spec.Stream == "" {
			return nil, fmt.Errorf("data source %s: stream is required for climatology files", spec.Name)
		}
		date := "*"
		if !req.Selector.All() {
			date = req.Selector.String()
		}
		return []string{fmt.Sprintf("%s/%s.%s.nc", spec.DirIn, spec.Stream, date)}, nil
	}
	return nil, fmt.Errorf("data source %s: unknown filetype %q", spec.Name, spec.FileType)
}

func (o *CESMOpener) info(filetype string) Info {
	switch filetype {
	case "mon_climo":
		return Info{IsMonClimo: true}
	case "ann_climo":
		return Info{IsAnnClimo: true}
	}
	return Info{}
}

// Open globs the request's files, reads them, and concatenates them along
// the time axis in file-name order.
func (o *CESMOpener) Open(ctx context.Context, req Request) (*dataset.Dataset, Info, error) {
	logger := ctxlog.FromContext(ctx)

	patterns, err := o.FilePatterns(req)
	if err != nil {
		return nil, Info{}, err
	}
	files, err := fsutil.GlobAll(patterns)
	if err != nil {
		return nil, Info{}, fmt.Errorf("data source %s: %w", req.Spec.Name, err)
	}
	logger.Debug("Opening CESM files.", "source", req.Spec.Name, "count", len(files))

	keep := keepSet(req.Names)
	parts := make([]*dataset.Dataset, 0, len(files))
	for _, file := range files {
		part, err := readFile(file, keep)
		if err != nil {
			return nil, Info{}, err
		}
		parts = append(parts, part)
	}
	ds, err := mergeTime(parts)
	if err != nil {
		return nil, Info{}, fmt.Errorf("data source %s: %w", req.Spec.Name, err)
	}
	return ds, o.info(req.Spec.FileType), nil
}

// keepSet accepts exactly the source-local variable names the analysis
// asked for.
func keepSet(names map[string]string) func(string) bool {
	wanted := make(map[string]bool, len(names))
	for _, local := range names {
		wanted[local] = true
	}
	return func(name string) bool { return wanted[name] }
}
