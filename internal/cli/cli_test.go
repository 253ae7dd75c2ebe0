package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionalPath(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"-workers", "8", "-dry-run", "input.yml"}, &out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "input.yml", cfg.ConfigPath)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestParseConfigFlagWins(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{"--config", "a.yml", "b.yml"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "a.yml", cfg.ConfigPath)
}

func TestParseNoPathPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseRejectsBadLogLevel(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-log-level", "loud", "input.yml"}, &out)
	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
