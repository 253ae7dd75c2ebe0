package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oceanbgc/climodiag/internal/ctxlog"
	"github.com/oceanbgc/climodiag/internal/dataset"
)

// mlPerLToMmolM3 converts the World Ocean Atlas oxygen-family fields from
// ml/l to mmol/m^3.
const mlPerLToMmolM3 = 1.e6 / 1.e3 / 22.3916

// woaLetter maps generic variable names to the single-letter codes WOA file
// names are built from.
var woaLetter = map[string]string{
	"temperature": "t",
	"salinity":    "s",
	"nitrate":     "n",
	"phosphate":   "p",
	"oxygen":      "o",
	"silicate":    "i",
	"o2sat":       "O",
	"aou":         "A",
}

// oxygenFamily marks the variables distributed in ml/l.
var oxygenFamily = map[string]bool{"oxygen": true, "o2sat": true, "aou": true}

// woaTimeCodes maps a frequency to the time-code segments of WOA file
// names: 00 = annual, 01..12 = months, 13..16 = seasons.
func woaTimeCodes(freq string) ([]string, error) {
	switch freq {
	case "ann":
		return []string{"00"}, nil
	case "mon":
		codes := make([]string, 12)
		for m := range codes {
			codes[m] = fmt.Sprintf("%02d", m+1)
		}
		return codes, nil
	case "jfm":
		return []string{"13"}, nil
	case "amp":
		return []string{"14"}, nil
	case "jas":
		return []string{"15"}, nil
	case "ond":
		return []string{"16"}, nil
	}
	return nil, fmt.Errorf("woa frequency must be 'ann' or 'mon', got %q", freq)
}

// WOAOpener reads World Ocean Atlas climatology files. WOA data is already
// a climatology, so downstream never recomputes one.
type WOAOpener struct {
	// Edition selects the release the file names are stamped with,
	// e.g. "13" for WOA2013.
	Edition string
}

// Files renders the file paths for one generic variable. Split out from
// Open so the naming tables are testable without data on disk.
func (o *WOAOpener) Files(req Request, generic string) ([]string, error) {
	spec := req.Spec
	letter, ok := woaLetter[generic]
	if !ok {
		return nil, fmt.Errorf("no WOA file template defined for %s", generic)
	}
	var res string
	switch spec.Grid {
	case "", "1x1d":
		res = "01"
	case "POP_gx1v7":
		res = "gx1v7"
	default:
		return nil, fmt.Errorf("data source %s: unknown WOA grid %q", spec.Name, spec.Grid)
	}
	freq := spec.Freq
	if freq == "" {
		freq = "ann"
	}
	codes, err := woaTimeCodes(freq)
	if err != nil {
		return nil, fmt.Errorf("data source %s: %w", spec.Name, err)
	}

	grid := spec.Grid
	if grid == "" {
		grid = "1x1d"
	}
	files := make([]string, 0, len(codes))
	for _, code := range codes {
		var name string
		switch letter {
		case "t", "s":
			name = fmt.Sprintf("woa%s_decav_%s%s_%sv2.nc", o.Edition, letter, code, res)
		default:
			name = fmt.Sprintf("woa%s_all_%s%s_%s.nc", o.Edition, letter, code, res)
		}
		files = append(files, filepath.Join(spec.DirIn, grid, name))
	}
	return files, nil
}

// Open reads the per-variable WOA files and merges them into one dataset.
// The date selector must be the all-available sentinel: WOA products are
// static climatologies with no year subsetting.
func (o *WOAOpener) Open(ctx context.Context, req Request) (*dataset.Dataset, Info, error) {
	logger := ctxlog.FromContext(ctx)

	if !req.Selector.All() {
		return nil, Info{}, fmt.Errorf("data source %s: WOA climatologies accept no date range (got %s)",
			req.Spec.Name, req.Selector)
	}

	out := dataset.New()
	for generic, local := range req.Names {
		files, err := o.Files(req, generic)
		if err != nil {
			return nil, Info{}, err
		}
		logger.Debug("Opening WOA files.", "source", req.Spec.Name, "variable", generic, "count", len(files))

		parts := make([]*dataset.Dataset, 0, len(files))
		keep := func(name string) bool { return name == local }
		for _, file := range files {
			part, err := readFile(file, keep)
			if err != nil {
				return nil, Info{}, err
			}
			parts = append(parts, part)
		}
		ds, err := mergeTime(parts)
		if err != nil {
			return nil, Info{}, fmt.Errorf("data source %s: %s: %w", req.Spec.Name, generic, err)
		}

		f, ok := ds.Fields[local]
		if !ok {
			return nil, Info{}, fmt.Errorf("data source %s: %s not found in WOA files", req.Spec.Name, local)
		}
		if oxygenFamily[generic] {
			for i := range f.Values {
				f.Values[i] *= mlPerLToMmolM3
			}
			f.Units = "mmol m-3"
		}

		if len(out.Fields) == 0 {
			out.Time = ds.Time
			out.TimeUnits, out.Calendar = ds.TimeUnits, ds.Calendar
			out.DepthName, out.Depth = ds.DepthName, ds.Depth
			out.Lat, out.Lon, out.Area = ds.Lat, ds.Lon, ds.Area
		}
		out.Fields[local] = f
	}

	freq := req.Spec.Freq
	if freq == "" {
		freq = "ann"
	}
	info := Info{IsAnnClimo: freq == "ann", IsMonClimo: freq == "mon"}
	return out, info, nil
}
