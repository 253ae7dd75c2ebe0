package vars

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
nitrate:
  long_name: Nitrate
  units: mmol m-3
  names:
    cesm: NO3
    woa2013: n_an
  contours:
    levels: [0, 4, 8, 16, 24, 32]
    extend: max
    cmap: PRGn
oxygen:
  long_name: Oxygen
  units: mmol m-3
  names:
    cesm: O2
    woa2013: o_an
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "variables.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	table, err := Load(writeSample(t))
	require.NoError(t, err)

	d, err := table.Def("nitrate")
	require.NoError(t, err)
	assert.Equal(t, "Nitrate", d.LongName)
	assert.Equal(t, []float64{0, 4, 8, 16, 24, 32}, d.Contours.Levels)

	name, err := table.Name("nitrate", "woa2013")
	require.NoError(t, err)
	assert.Equal(t, "n_an", name)
}

func TestLookupFailures(t *testing.T) {
	table, err := Load(writeSample(t))
	require.NoError(t, err)

	_, err = table.Def("iron")
	require.Error(t, err)

	_, err = table.Name("oxygen", "hadley")
	require.Error(t, err)

	_, err = table.NamesFor("cesm", []string{"nitrate", "iron"})
	require.Error(t, err)

	names, err := table.NamesFor("cesm", []string{"nitrate", "oxygen"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"nitrate": "NO3", "oxygen": "O2"}, names)
}
