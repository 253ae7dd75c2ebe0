package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbgc/climodiag/internal/yamlconf"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

const dryRunYAML = `
global_config:
  dirout: /tmp/diag_out
  plot_format: png
data_sources:
  datasets:
    PI_control:
      source: cesm
      dirin: /data/pi
      case: pi
      stream: pop.h
      filetype: hist
    FV2:
      source: cesm
      dirin: /data/fv2
      case: fv2
      stream: pop.h
      filetype: hist
analysis:
  3d_ann_climo_maps_on_levels:
    _settings:
      grid: POP_gx1v7
      variables: [nitrate]
    PI_vs_FV2:
      datestrs:
        PI_control: "0271-0300"
        FV2: "0271-0300"
      reference:
        PI_control: "0271-0300"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDryRunPrintsPlan(t *testing.T) {
	out := &SafeBuffer{}
	cfg, err := NewConfig(Config{
		ConfigPath: writeConfig(t, dryRunYAML),
		LogLevel:   "error",
		LogFormat:  "text",
		Workers:    1,
		DryRun:     true,
	})
	require.NoError(t, err)

	a := NewApp(out, cfg, yamlconf.NewLoader())
	require.NoError(t, a.Run(t.Context()))

	got := out.String()
	assert.Contains(t, got, "Execution plan: 1 unit(s)")
	assert.Contains(t, got, "3d_ann_climo_maps_on_levels/PI_vs_FV2 (plot_ann_climo)")
	assert.Contains(t, got, "data: PI_control.0271-0300, FV2.0271-0300")
	assert.Contains(t, got, "reference: PI_control.0271-0300")
}

func TestRunReportsResolutionErrors(t *testing.T) {
	body := `
analysis:
  not_a_real_category:
    _settings: {}
`
	out := &SafeBuffer{}
	cfg, err := NewConfig(Config{ConfigPath: writeConfig(t, body), LogLevel: "error", Workers: 1})
	require.NoError(t, err)

	a := NewApp(out, cfg, yamlconf.NewLoader())
	err = a.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid analysis category")
}

func TestNewConfigRequiresPath(t *testing.T) {
	_, err := NewConfig(Config{})
	require.Error(t, err)
}

func TestResolveRelative(t *testing.T) {
	assert.Equal(t, "/abs/vars.yml", resolveRelative("/cfg/input.yml", "/abs/vars.yml"))
	assert.Equal(t, filepath.Join("/cfg", "vars.yml"), resolveRelative("/cfg/input.yml", "vars.yml"))
}
