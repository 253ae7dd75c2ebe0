package resolver

import (
	"fmt"

	"github.com/oceanbgc/climodiag/internal/config"
)

// Settings is a flat settings bundle. Merging is shallow: a key present in
// the override replaces the default wholesale, keys absent in the override
// keep the default, and keys unknown to either side are carried through
// untouched. There is no recursive merge of nested values.
type Settings map[string]any

// Merge returns a new bundle with overrides applied on top of s. Neither
// input is modified. Merge is idempotent: merging the same overrides twice
// yields the same result.
func (s Settings) Merge(overrides Settings) Settings {
	merged := make(Settings, len(s)+len(overrides))
	for k, v := range s {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// checkKeys rejects any key outside allowed, so a typo in a _settings block
// fails resolution instead of being silently dropped.
func (s Settings) checkKeys(section string, allowed map[string]bool) error {
	for k := range s {
		if !allowed[k] {
			return config.Errorf(section, "unrecognized setting %q", k)
		}
	}
	return nil
}

// Effective is the typed view of a fully merged settings bundle, as consumed
// by the data-loading, climatology, and plotting stages.
type Effective struct {
	Grid         string
	Variables    []string
	Levels       []config.Depth
	TimePeriods  []string
	PlotDiff     bool
	StatsInTitle bool
	DirOut       string
	PlotFormat   string
	CacheData    bool
	CacheDir     string
	KeepFigs     bool
}

// globalSettings renders the global_config section as a settings bundle so
// it can participate in the defaults < global < _settings precedence chain.
func globalSettings(g config.Global) Settings {
	s := Settings{
		"cache_data": g.CacheData,
		"keep_figs":  g.KeepFigs,
	}
	if g.DirOut != "" {
		s["dirout"] = g.DirOut
	}
	if g.PlotFormat != "" {
		s["plot_format"] = g.PlotFormat
	}
	if g.CacheDir != "" {
		s["cache_dir"] = g.CacheDir
	}
	if len(g.Levels) > 0 {
		s["levels"] = g.Levels
	}
	return s
}

func (s Settings) effective(section string) (*Effective, error) {
	eff := &Effective{}
	var err error
	if eff.Grid, err = stringSetting(s, "grid"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.Variables, err = stringsSetting(s, "variables"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.Levels, err = depthsSetting(s, "levels"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.TimePeriods, err = stringsSetting(s, "climo_time_periods"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.PlotDiff, err = boolSetting(s, "plot_diff_from_reference"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.StatsInTitle, err = boolSetting(s, "stats_in_title"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.DirOut, err = stringSetting(s, "dirout"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.PlotFormat, err = stringSetting(s, "plot_format"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.CacheData, err = boolSetting(s, "cache_data"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.CacheDir, err = stringSetting(s, "cache_dir"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.KeepFigs, err = boolSetting(s, "keep_figs"); err != nil {
		return nil, config.Errorf(section, "%v", err)
	}
	if eff.CacheData && eff.CacheDir == "" {
		return nil, config.Errorf(section, "cache_dir is required when cache_data is set")
	}
	return eff, nil
}

// The coercions below exist because _settings arrives as untyped YAML
// values while global_config arrives typed.

func stringSetting(s Settings, key string) (string, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return "", nil
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("setting %q: expected string, got %T", key, v)
	}
	return str, nil
}

func boolSetting(s Settings, key string) (bool, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("setting %q: expected bool, got %T", key, v)
	}
	return b, nil
}

func stringsSetting(s Settings, key string) ([]string, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vv := v.(type) {
	case []string:
		return vv, nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("setting %q: expected list of strings, got %T element", key, item)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("setting %q: expected list of strings, got %T", key, v)
}

func depthsSetting(s Settings, key string) ([]config.Depth, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vv := v.(type) {
	case []config.Depth:
		return vv, nil
	case []any:
		out := make([]config.Depth, 0, len(vv))
		for _, item := range vv {
			d, err := depthValue(item)
			if err != nil {
				return nil, fmt.Errorf("setting %q: %w", key, err)
			}
			out = append(out, d)
		}
		return out, nil
	}
	return nil, fmt.Errorf("setting %q: expected list of depths, got %T", key, v)
}

func depthValue(v any) (config.Depth, error) {
	switch vv := v.(type) {
	case int:
		return config.Depth{Top: float64(vv), Bottom: float64(vv)}, nil
	case float64:
		return config.Depth{Top: vv, Bottom: vv}, nil
	case []any:
		if len(vv) != 2 {
			return config.Depth{}, fmt.Errorf("depth range must have exactly 2 elements, got %d", len(vv))
		}
		top, err := depthValue(vv[0])
		if err != nil {
			return config.Depth{}, err
		}
		bottom, err := depthValue(vv[1])
		if err != nil {
			return config.Depth{}, err
		}
		return config.Depth{Top: top.Top, Bottom: bottom.Top, IsRange: true}, nil
	}
	return config.Depth{}, fmt.Errorf("expected depth or [top, bottom] pair, got %T", v)
}
