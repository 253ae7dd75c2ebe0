package dataset

import "fmt"

// SeasonIndices maps a climatological time period to the time-axis indices
// to average. The ANN period accepts a time axis of length 1 (annual
// climatology) or 12 (monthly climatology); the named seasons require a
// full monthly climatology.
func SeasonIndices(period string, timeLen int) ([]int, error) {
	if period == "ANN" {
		switch timeLen {
		case 1:
			return []int{0}, nil
		case 12:
			return []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, nil
		}
		return nil, fmt.Errorf("ANN requires a time axis of length 1 or 12, got %d", timeLen)
	}

	if timeLen != 12 {
		return nil, fmt.Errorf("season %q requires a monthly climatology (time length 12), got %d",
			period, timeLen)
	}
	switch period {
	case "DJF":
		return []int{11, 0, 1}, nil
	case "MAM":
		return []int{2, 3, 4}, nil
	case "JJA":
		return []int{5, 6, 7}, nil
	case "SON":
		return []int{8, 9, 10}, nil
	}
	return nil, fmt.Errorf("%q is not a known climatological time period", period)
}
