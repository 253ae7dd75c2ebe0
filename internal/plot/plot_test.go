package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbgc/climodiag/internal/dataset"
)

func TestDims(t *testing.T) {
	cases := []struct {
		n, rows, cols int
	}{
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 2},
		{4, 2, 2},
		{5, 2, 3},
		{7, 3, 3},
	}
	for _, tc := range cases {
		rows, cols := Dims(tc.n)
		assert.Equal(t, tc.rows, rows, "n=%d", tc.n)
		assert.Equal(t, tc.cols, cols, "n=%d", tc.n)
		assert.GreaterOrEqual(t, rows*cols, tc.n)
	}
}

func TestFileName(t *testing.T) {
	path := FileName("/out/plots", "PI_vs_FV2", "nitrate", "500m", "ANN", "png")
	assert.Equal(t, "/out/plots/state-map-PI_vs_FV2_nitrate_500m_ANN.png", path)
}

func TestDepthCoord(t *testing.T) {
	coord, err := DepthCoord("POP_gx1v7")
	require.NoError(t, err)
	assert.Equal(t, "z_t", coord)

	_, err = DepthCoord("tripolar_0.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown grid")
}

func TestFieldGrid(t *testing.T) {
	f := dataset.NewField("v", []string{"nlat", "nlon"}, []int{2, 3})
	copy(f.Values, []float64{1, 2, 3, 4, 5, 6})
	g := &fieldGrid{field: f}

	c, r := g.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 6.0, g.Z(2, 1))
	assert.Equal(t, 2.0, g.X(2))
}

func TestRenderWritesPNG(t *testing.T) {
	f := dataset.NewField("v", []string{"nlat", "nlon"}, []int{4, 4})
	for i := range f.Values {
		f.Values[i] = float64(i)
	}
	path := filepath.Join(t.TempDir(), "plots", "state-map-test_v_0m_ANN.png")

	r := &Renderer{Format: "png"}
	require.NoError(t, r.Render(path, []Panel{
		{Title: "a", Field: f},
		{Title: "b", Field: f, Diverging: true},
	}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderRejectsBadInput(t *testing.T) {
	r := &Renderer{Format: "png"}
	require.Error(t, r.Render(filepath.Join(t.TempDir(), "x.png"), nil))

	bad := dataset.NewField("v", []string{"time", "nlat", "nlon"}, []int{1, 2, 2})
	err := r.Render(filepath.Join(t.TempDir(), "x.png"), []Panel{{Title: "a", Field: bad}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2D")

	r = &Renderer{Format: "bmp"}
	good := dataset.NewField("v", []string{"nlat", "nlon"}, []int{2, 2})
	err = r.Render(filepath.Join(t.TempDir(), "x.bmp"), []Panel{{Title: "a", Field: good}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown plot format "bmp"`)
}
