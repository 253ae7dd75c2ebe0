package dataset

import "fmt"

// MonthlyClimatology averages each calendar month across all years of a
// monthly time series, returning a dataset whose time axis has length 12.
// The input's time axis must be evenly divisible by 12 and is assumed to be
// in calendar order starting in January, which is how model history streams
// are written. The new time coordinate is the first year's time-bounds
// midpoint for each month.
func (ds *Dataset) MonthlyClimatology() (*Dataset, error) {
	n := ds.TimeLen()
	if n == 0 {
		return nil, fmt.Errorf("dataset has no time axis")
	}
	if n%12 != 0 {
		return nil, fmt.Errorf("time axis not evenly divisible by 12 (length %d)", n)
	}
	years := n / 12

	out := &Dataset{
		Fields:    map[string]*Field{},
		TimeUnits: "month",
		Calendar:  ds.Calendar,
		DepthName: ds.DepthName,
		Depth:     ds.Depth,
		Lat:       ds.Lat,
		Lon:       ds.Lon,
		Area:      ds.Area,
	}

	out.Time = make([]float64, 12)
	for m := 0; m < 12; m++ {
		if len(ds.TimeBounds) == n {
			b := ds.TimeBounds[m]
			out.Time[m] = (b[0] + b[1]) / 2
		} else {
			out.Time[m] = float64(m + 1)
		}
	}

	for name, f := range ds.Fields {
		axis, ok := f.DimIndex("time")
		if !ok {
			// Grid variables carry over untouched.
			out.Fields[name] = f
			continue
		}
		if f.Shape[axis] != n {
			return nil, fmt.Errorf("field %s: time axis length %d does not match dataset time length %d",
				name, f.Shape[axis], n)
		}
		months := make([]*Field, 12)
		for m := 0; m < 12; m++ {
			indices := make([]int, years)
			for y := 0; y < years; y++ {
				indices[y] = y*12 + m
			}
			mean, err := f.MeanOver("time", indices)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
			months[m] = mean
		}
		out.Fields[name] = stackTime(months, f)
	}
	return out, nil
}

// AnnualMean averages every field over the whole time axis, yielding a
// time axis of length 1.
func (ds *Dataset) AnnualMean() (*Dataset, error) {
	n := ds.TimeLen()
	if n == 0 {
		return nil, fmt.Errorf("dataset has no time axis")
	}
	out := &Dataset{
		Fields:    map[string]*Field{},
		TimeUnits: ds.TimeUnits,
		Calendar:  ds.Calendar,
		DepthName: ds.DepthName,
		Depth:     ds.Depth,
		Lat:       ds.Lat,
		Lon:       ds.Lon,
		Area:      ds.Area,
	}
	mid := 0.0
	for _, t := range ds.Time {
		mid += t
	}
	out.Time = []float64{mid / float64(n)}

	for name, f := range ds.Fields {
		if _, ok := f.DimIndex("time"); !ok {
			out.Fields[name] = f
			continue
		}
		mean, err := f.MeanOver("time", nil)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		out.Fields[name] = stackTime([]*Field{mean}, f)
	}
	return out, nil
}

// stackTime reassembles per-step reductions into one field with a leading
// time dimension, keeping the source field's metadata.
func stackTime(steps []*Field, src *Field) *Field {
	inner := steps[0]
	dims := append([]string{"time"}, inner.Dims...)
	shape := append([]int{len(steps)}, inner.Shape...)
	out := NewField(src.Name, dims, shape)
	out.Units, out.LongName = src.Units, src.LongName
	stride := inner.Len()
	for i, step := range steps {
		copy(out.Values[i*stride:(i+1)*stride], step.Values)
	}
	return out
}
