package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoYearSeries builds a 24-month dataset with a single-cell grid where the
// first year is all zeros and the second all ones.
func twoYearSeries() *Dataset {
	ds := New()
	monthEnds := []float64{31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}
	for y := 0; y < 2; y++ {
		for m := 0; m < 12; m++ {
			start := 0.0
			if m > 0 {
				start = monthEnds[m-1]
			}
			ds.Time = append(ds.Time, monthEnds[m]+float64(y)*365)
			ds.TimeBounds = append(ds.TimeBounds, [2]float64{start + float64(y)*365, monthEnds[m] + float64(y)*365})
		}
	}
	ds.TimeUnits = "days since 0001-01-01 00:00:00"
	ds.Calendar = "noleap"
	ds.Lat = []float64{0}
	ds.Lon = []float64{0}

	f := NewField("var_to_average", []string{"time", "nlat", "nlon"}, []int{24, 1, 1})
	for i := 0; i < 24; i++ {
		if i < 12 {
			f.Values[i] = 0
		} else {
			f.Values[i] = 1
		}
	}
	ds.Fields[f.Name] = f
	return ds
}

func TestMonthlyClimatology(t *testing.T) {
	ds := twoYearSeries()
	require.Equal(t, 24, ds.TimeLen())

	climo, err := ds.MonthlyClimatology()
	require.NoError(t, err)

	assert.Equal(t, 12, climo.TimeLen())
	f, ok := climo.Field("var_to_average")
	require.True(t, ok)
	require.Equal(t, []int{12, 1, 1}, f.Shape)
	for i, v := range f.Values {
		assert.InDelta(t, 0.5, v, 1e-10, "month %d", i)
	}
}

func TestMonthlyClimatologyRejectsPartialYears(t *testing.T) {
	ds := twoYearSeries()
	ds.Time = ds.Time[:23]

	_, err := ds.MonthlyClimatology()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not evenly divisible by 12")
}

func TestAnnualMean(t *testing.T) {
	ds := twoYearSeries()
	climo, err := ds.MonthlyClimatology()
	require.NoError(t, err)

	ann, err := climo.AnnualMean()
	require.NoError(t, err)
	assert.Equal(t, 1, ann.TimeLen())
	f, _ := ann.Field("var_to_average")
	assert.InDelta(t, 0.5, f.Values[0], 1e-10)
}
