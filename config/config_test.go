package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scanner:\n  interval_seconds: 0\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Scanner.IntervalSeconds)
	assert.Equal(t, 0.98, cfg.Accumulation.MaxPairCost)
	assert.Equal(t, 70.0, cfg.Accumulation.AccumulationSharePct)
	assert.Equal(t, 30.0, cfg.Accumulation.AsymmetricSharePct)
}

func TestLoad_RejectsSplitNotSummingTo100(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "accumulation:\n  accumulation_share_pct: 50\n  asymmetric_share_pct: 40\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAccumulationConfig_ValidateAcceptsExactSplit(t *testing.T) {
	cfg := AccumulationConfig{AccumulationSharePct: 70, AsymmetricSharePct: 30}
	assert.NoError(t, cfg.Validate())
}
