package hclconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbgc/climodiag/internal/config"
)

const exampleHCL = `
global_config {
  dirout      = "/tmp/diag_out"
  plot_format = "png"
  levels      = [500, [0, 500]]
  cache_data  = true
  cache_dir   = "/tmp/diag_cache"
}

variable_definitions = "variables.yml"

data_source "obs" "WOA2013" {
  source = "woa2013"
  freq   = "ann"
  grid   = "1x1d"
  dirin  = "/data/woa2013"
}

data_source "dataset" "PI_control" {
  source   = "cesm"
  dirin    = "/data/pi"
  case     = "b.e21.B1850.f09_g17.PI"
  stream   = "pop.h"
  filetype = "hist"
}

analysis "bgc_maps" {
  settings {
    grid                     = "POP_gx1v7"
    variables                = ["nitrate", "oxygen"]
    plot_diff_from_reference = true
  }

  case "WOA_vs_PI" {
    datestrs = {
      WOA2013    = null
      PI_control = ["0271-0300", "0301-0330"]
    }
    reference = {
      WOA2013 = null
    }
  }
}
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadExampleDocument(t *testing.T) {
	doc, err := NewLoader().Load(t.Context(), writeConfig(t, exampleHCL))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/diag_out", doc.Global.DirOut)
	assert.Equal(t, "png", doc.Global.PlotFormat)
	assert.True(t, doc.Global.CacheData)
	assert.Equal(t, "/tmp/diag_cache", doc.Global.CacheDir)
	require.Len(t, doc.Global.Levels, 2)
	assert.Equal(t, config.Depth{Top: 500, Bottom: 500}, doc.Global.Levels[0])
	assert.Equal(t, config.Depth{Top: 0, Bottom: 500, IsRange: true}, doc.Global.Levels[1])
	assert.Equal(t, "variables.yml", doc.VariableDefs)

	require.Contains(t, doc.Sources.Obs, "WOA2013")
	assert.Equal(t, "woa2013", doc.Sources.Obs["WOA2013"].Kind)
	require.Contains(t, doc.Sources.Datasets, "PI_control")
	assert.Equal(t, "pop.h", doc.Sources.Datasets["PI_control"].Stream)

	require.Len(t, doc.Analyses, 1)
	analysis := doc.Analyses[0]
	assert.Equal(t, "bgc_maps", analysis.Name)
	assert.Equal(t, "POP_gx1v7", analysis.Settings["grid"])
	assert.Equal(t, true, analysis.Settings["plot_diff_from_reference"])
	assert.Equal(t, []any{"nitrate", "oxygen"}, analysis.Settings["variables"])
}

func TestLoadPreservesBindingOrder(t *testing.T) {
	doc, err := NewLoader().Load(t.Context(), writeConfig(t, exampleHCL))
	require.NoError(t, err)

	c := doc.Analyses[0].Cases[0]
	require.Len(t, c.Datestrs, 2)
	assert.Equal(t, "WOA2013", c.Datestrs[0].Source)
	assert.Equal(t, []string{""}, c.Datestrs[0].Queries)
	assert.Equal(t, "PI_control", c.Datestrs[1].Source)
	assert.Equal(t, []string{"0271-0300", "0301-0330"}, c.Datestrs[1].Queries)

	require.Len(t, c.Reference, 1)
	assert.Equal(t, "WOA2013", c.Reference[0].Source)
}

func TestLoadRejectsUnknownNamespace(t *testing.T) {
	body := "data_source \"observations\" \"X\" {\n  source = \"cesm\"\n}\n"
	_, err := NewLoader().Load(t.Context(), writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `namespace must be "obs" or "dataset"`)
}

func TestLoadRejectsBadLevels(t *testing.T) {
	body := "global_config {\n  levels = [[0, 500, 1000]]\n}\n"
	_, err := NewLoader().Load(t.Context(), writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly two elements")
}

func TestLoadRejectsNonObjectBindings(t *testing.T) {
	body := "analysis \"a\" {\n  case \"c1\" {\n    datestrs = \"0001-0002\"\n  }\n}\n"
	_, err := NewLoader().Load(t.Context(), writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an object of source names")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(t.Context(), filepath.Join(t.TempDir(), "absent.hcl"))
	require.Error(t, err)
}
