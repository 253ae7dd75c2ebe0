package resolver

import "github.com/oceanbgc/climodiag/internal/config"

// Operation identifies what the executor does with a resolved unit.
type Operation string

const (
	// PlotAnnClimo renders annual-climatology maps on depth levels.
	PlotAnnClimo Operation = "plot_ann_climo"
	// PlotMonClimo renders monthly-climatology maps on depth levels.
	PlotMonClimo Operation = "plot_mon_climo"
)

// Climo reports which climatology the operation consumes.
func (op Operation) Climo() string {
	switch op {
	case PlotAnnClimo:
		return "ann_climo"
	case PlotMonClimo:
		return "mon_climo"
	}
	return ""
}

// category couples an analysis-type name with its operation and built-in
// default settings. Defaults sit at the bottom of the precedence chain:
// _settings overrides global_config overrides these.
type category struct {
	name      string
	operation Operation
	defaults  Settings
}

func defaultDepths() []config.Depth {
	var levels []config.Depth
	for d := 0; d <= 4000; d += 500 {
		levels = append(levels, config.Depth{Top: float64(d), Bottom: float64(d)})
	}
	return levels
}

// mapDefaults are the settings shared by the climatology-map categories.
func mapDefaults(periods []string) Settings {
	return Settings{
		"dirout":                   nil,
		"cache_data":               false,
		"plot_format":              "png",
		"keep_figs":                false,
		"variables":                []string{"nitrate", "phosphate", "silicate", "oxygen", "dic", "alkalinity", "iron"},
		"levels":                   defaultDepths(),
		"plot_diff_from_reference": false,
		"stats_in_title":           true,
		"grid":                     nil,
		"climo_time_periods":       periods,
	}
}

// categories is the table of valid analysis-type names.
var categories = map[string]*category{
	"3d_ann_climo_maps_on_levels": {
		name:      "3d_ann_climo_maps_on_levels",
		operation: PlotAnnClimo,
		defaults:  mapDefaults([]string{"ANN"}),
	},
	"3d_mon_climo_maps_on_levels": {
		name:      "3d_mon_climo_maps_on_levels",
		operation: PlotMonClimo,
		defaults:  mapDefaults([]string{"DJF", "MAM", "JJA", "SON", "ANN"}),
	},
}

// allowedKeys is the settings vocabulary a category accepts: everything its
// defaults define, plus cache_dir (needed when cache_data is set).
func (c *category) allowedKeys() map[string]bool {
	allowed := map[string]bool{"cache_dir": true}
	for k := range c.defaults {
		allowed[k] = true
	}
	return allowed
}
