package dataset

import (
	"fmt"
	"math"
)

// Stats summarizes a 2D field for plot panel titles.
type Stats struct {
	Min  float64
	Max  float64
	Mean float64 // area-weighted
	RMS  float64 // area-weighted
}

// WeightedStats computes min, max, and area-weighted mean and RMS of a
// field. The weights field must have the same shape as the data field;
// pass nil for uniform weighting. NaN cells are excluded.
func WeightedStats(f *Field, weights *Field) (Stats, error) {
	if weights != nil && len(weights.Values) != len(f.Values) {
		return Stats{}, fmt.Errorf("weights shape %v does not match field shape %v",
			weights.Shape, f.Shape)
	}

	st := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var wsum, mean, meanSq float64
	seen := false
	for i, v := range f.Values {
		if math.IsNaN(v) {
			continue
		}
		// Min and max are unweighted: every valid cell counts, even one
		// with zero area weight.
		seen = true
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		w := 1.0
		if weights != nil {
			w = weights.Values[i]
			if math.IsNaN(w) || w <= 0 {
				continue
			}
		}
		wsum += w
		mean += w * v
		meanSq += w * v * v
	}
	if !seen {
		return Stats{}, fmt.Errorf("field %s has no valid cells", f.Name)
	}
	if wsum == 0 {
		return Stats{}, fmt.Errorf("field %s has no positively weighted cells", f.Name)
	}
	st.Mean = mean / wsum
	st.RMS = math.Sqrt(meanSq / wsum)
	return st, nil
}

// Title renders the stats line used in panel titles.
func (s Stats) Title() string {
	return fmt.Sprintf("Min: %.2f, Max: %.2f, Mean: %.2f, RMS: %.2f",
		s.Min, s.Max, s.Mean, s.RMS)
}
