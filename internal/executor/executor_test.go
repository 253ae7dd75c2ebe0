package executor

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbgc/climodiag/internal/config"
	"github.com/oceanbgc/climodiag/internal/dataset"
	"github.com/oceanbgc/climodiag/internal/datestr"
	"github.com/oceanbgc/climodiag/internal/plot"
	"github.com/oceanbgc/climodiag/internal/resolver"
	"github.com/oceanbgc/climodiag/internal/source"
	"github.com/oceanbgc/climodiag/internal/vars"
)

// fakeOpener serves synthetic monthly series so the pipeline can run
// without any files on disk.
type fakeOpener struct {
	years int
	err   error
	opens int
}

func (o *fakeOpener) Open(_ context.Context, req source.Request) (*dataset.Dataset, source.Info, error) {
	o.opens++
	if o.err != nil {
		return nil, source.Info{}, o.err
	}
	return syntheticSeries(o.years, req.Names), source.Info{}, nil
}

// syntheticSeries builds a years-long monthly series on a 4x4 grid where
// every January is 1.0, February 2.0, and so on, for each requested
// variable. The climatology of such a series is the month number itself.
func syntheticSeries(years int, names map[string]string) *dataset.Dataset {
	ds := dataset.New()
	n := years * 12
	for t := 0; t < n; t++ {
		ds.Time = append(ds.Time, float64(t))
		ds.TimeBounds = append(ds.TimeBounds, [2]float64{float64(t), float64(t + 1)})
	}
	ds.Lat = []float64{-45, -15, 15, 45}
	ds.Lon = []float64{45, 135, 225, 315}
	for _, local := range names {
		f := dataset.NewField(local, []string{"time", "lat", "lon"}, []int{n, 4, 4})
		for t := 0; t < n; t++ {
			for c := 0; c < 16; c++ {
				f.Values[t*16+c] = float64(t%12 + 1)
			}
		}
		ds.Fields[local] = f
	}
	return ds
}

func testTable() vars.Table {
	return vars.Table{
		"nitrate": {
			LongName: "Nitrate",
			Units:    "mmol/m^3",
			Names:    map[string]string{"fake": "NO3", "fakeobs": "n_an"},
		},
	}
}

func testUnit(dirout string) *resolver.Unit {
	spec := &config.SourceSpec{Name: "control", Kind: "fake"}
	refSpec := &config.SourceSpec{Name: "obs", Kind: "fakeobs"}
	unit := &resolver.Unit{
		Analysis:  "bgc",
		Case:      "control_vs_obs",
		Operation: resolver.PlotAnnClimo,
		Settings: &resolver.Effective{
			Grid:         "POP_gx1v7",
			Variables:    []string{"nitrate"},
			Levels:       []config.Depth{{Top: 0}},
			TimePeriods:  []string{"ANN"},
			PlotDiff:     true,
			StatsInTitle: true,
			DirOut:       dirout,
			PlotFormat:   "png",
		},
		Bindings: []resolver.Binding{
			{Source: "obs", Spec: refSpec, Selector: datestr.All(), Obs: true},
			{Source: "control", Spec: spec, Selector: datestr.MustParse("0001-0002")},
		},
	}
	unit.Reference = &unit.Bindings[0]
	return unit
}

func TestRunRendersFigures(t *testing.T) {
	dirout := t.TempDir()
	unit := testUnit(dirout)

	reg := source.NewRegistry()
	reg.Register("fake", &fakeOpener{years: 2})
	reg.Register("fakeobs", &fakeOpener{years: 1})

	exec := New(2, reg, testTable(), nil)
	require.NoError(t, exec.Run(t.Context(), []*resolver.Unit{unit}))

	path := plot.FileName(dirout, "control_vs_obs", "nitrate", "0m", "ANN", "png")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRunPropagatesSourceError(t *testing.T) {
	unit := testUnit(t.TempDir())

	reg := source.NewRegistry()
	reg.Register("fake", &fakeOpener{err: fmt.Errorf("no files match")})
	reg.Register("fakeobs", &fakeOpener{years: 1})

	exec := New(1, reg, testTable(), nil)
	err := exec.Run(t.Context(), []*resolver.Unit{unit})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files match")
	assert.Contains(t, err.Error(), "bgc/control_vs_obs")
}

func TestRunRejectsUnknownGrid(t *testing.T) {
	unit := testUnit(t.TempDir())
	unit.Settings.Grid = "tripolar_exotic"

	exec := New(1, source.NewRegistry(), testTable(), nil)
	err := exec.Run(t.Context(), []*resolver.Unit{unit})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown grid "tripolar_exotic"`)
}

func TestRunRejectsUnmappedVariables(t *testing.T) {
	unit := testUnit(t.TempDir())
	unit.Settings.Variables = []string{"oxygen"}

	reg := source.NewRegistry()
	reg.Register("fake", &fakeOpener{years: 2})
	reg.Register("fakeobs", &fakeOpener{years: 1})

	exec := New(1, reg, testTable(), nil)
	err := exec.Run(t.Context(), []*resolver.Unit{unit})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provides none of the requested variables")
}

func TestValidateTimeAxis(t *testing.T) {
	ds := dataset.New()
	ds.Time = make([]float64, 7)
	l := &loaded{binding: resolver.Binding{Source: "control"}, ds: ds}

	ann := &resolver.Unit{Operation: resolver.PlotAnnClimo}
	mon := &resolver.Unit{Operation: resolver.PlotMonClimo}

	require.Error(t, validateTimeAxis(ann, l))
	require.Error(t, validateTimeAxis(mon, l))

	ds.Time = make([]float64, 12)
	require.NoError(t, validateTimeAxis(ann, l))
	require.NoError(t, validateTimeAxis(mon, l))

	ds.Time = make([]float64, 1)
	require.NoError(t, validateTimeAxis(ann, l))
	require.Error(t, validateTimeAxis(mon, l))
}

func TestValidateDepthCoord(t *testing.T) {
	ds := dataset.New()
	ds.DepthName = "depth"
	l := &loaded{binding: resolver.Binding{Source: "control"}, ds: ds}

	err := validateDepthCoord("z_t", l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `depth coordinate "depth", expected "z_t"`)

	ds.DepthName = "z_t"
	require.NoError(t, validateDepthCoord("z_t", l))

	// Surface-only files have no depth axis to check.
	ds.DepthName = ""
	require.NoError(t, validateDepthCoord("z_t", l))

	// Observational products keep their native grids.
	obs := dataset.New()
	obs.DepthName = "depth"
	require.NoError(t, validateDepthCoord("z_t",
		&loaded{binding: resolver.Binding{Source: "woa", Obs: true}, ds: obs}))
}

func TestOrderReferenceFirst(t *testing.T) {
	a := &loaded{binding: resolver.Binding{Source: "a"}}
	b := &loaded{binding: resolver.Binding{Source: "b"}, isRef: true}
	c := &loaded{binding: resolver.Binding{Source: "c"}}

	ordered := orderReferenceFirst([]*loaded{a, b, c})
	require.Len(t, ordered, 3)
	assert.Same(t, b, ordered[0])
	assert.Same(t, a, ordered[1])
	assert.Same(t, c, ordered[2])
}

func TestProvidedNames(t *testing.T) {
	exec := New(1, source.NewRegistry(), testTable(), nil)

	names := exec.providedNames("fake", []string{"nitrate", "oxygen"})
	assert.Equal(t, map[string]string{"nitrate": "NO3"}, names)

	assert.Empty(t, exec.providedNames("unmapped", []string{"nitrate"}))
}
