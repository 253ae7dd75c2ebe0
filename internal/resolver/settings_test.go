package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOverridesWin(t *testing.T) {
	defaults := Settings{"grid": "1x1d", "plot_format": "png", "stats_in_title": true}
	overrides := Settings{"grid": "POP_gx1v7", "future_knob": 42}

	merged := defaults.Merge(overrides)

	assert.Equal(t, "POP_gx1v7", merged["grid"])
	assert.Equal(t, "png", merged["plot_format"])
	assert.Equal(t, true, merged["stats_in_title"])
	// Keys unknown to the defaults side are carried through untouched.
	assert.Equal(t, 42, merged["future_knob"])
}

func TestMergeIdempotent(t *testing.T) {
	defaults := Settings{"grid": "1x1d", "levels": []any{0, 500}}
	overrides := Settings{"grid": "POP_gx1v7"}

	once := defaults.Merge(overrides)
	twice := once.Merge(overrides)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("merge not idempotent (-once +twice):\n%s", diff)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	defaults := Settings{"grid": "1x1d"}
	overrides := Settings{"grid": "POP_gx1v7"}

	_ = defaults.Merge(overrides)

	assert.Equal(t, "1x1d", defaults["grid"])
}

func TestMergeIsShallow(t *testing.T) {
	defaults := Settings{"contours": map[string]any{"levels": []any{0, 1}, "cmap": "viridis"}}
	overrides := Settings{"contours": map[string]any{"cmap": "plasma"}}

	merged := defaults.Merge(overrides)

	// The nested mapping is replaced wholesale, not merged key-by-key.
	assert.Equal(t, map[string]any{"cmap": "plasma"}, merged["contours"])
}

func TestEffectiveCoercions(t *testing.T) {
	merged := Settings{
		"grid":                     "POP_gx1v7",
		"variables":                []any{"nitrate"},
		"levels":                   []any{0, []any{0, 500}},
		"climo_time_periods":       []any{"ANN"},
		"plot_diff_from_reference": true,
		"stats_in_title":           false,
		"dirout":                   "/tmp/out",
		"plot_format":              "pdf",
		"cache_data":               false,
		"keep_figs":                false,
	}

	eff, err := merged.effective("test")
	require.NoError(t, err)
	assert.Equal(t, "POP_gx1v7", eff.Grid)
	require.Len(t, eff.Levels, 2)
	assert.False(t, eff.Levels[0].IsRange)
	assert.True(t, eff.Levels[1].IsRange)
	assert.Equal(t, "0-500m", eff.Levels[1].Label())
	assert.Equal(t, "pdf", eff.PlotFormat)
}

func TestEffectiveRejectsBadTypes(t *testing.T) {
	_, err := Settings{"grid": 7}.effective("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `setting "grid"`)
}
