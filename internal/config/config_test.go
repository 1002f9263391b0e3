package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
in: ./events.jsonl
outlier-threshold-percent: 12.5
networks:
  - chain-id: 10
    name: optimism
    wrapped-native: "0x4200000000000000000000000000000000000006"
    blocks-per-day: 43200
    stablecoins:
      - "0x0B2C639C533813F4AA9D7837CAF62653D097FF85"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadProcessDefaultsAndNetworks(t *testing.T) {
	cfg, err := LoadProcess(writeConfig(t, testConfig), nil)
	require.NoError(t, err)

	assert.Equal(t, "./events.jsonl", cfg.Input)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "12.5", cfg.Engine.OutlierThresholdPercent.String())
	assert.Equal(t, "50", cfg.Engine.MaxTVLImbalancePercent.String())
	assert.Equal(t, 100*24*time.Hour, cfg.Engine.StatsMaxEventAge)
	assert.Equal(t, time.Hour, cfg.Engine.StatsRefreshInterval)
	assert.Equal(t, 3, cfg.Engine.MetadataRetries)

	op, err := cfg.Networks.Get(10)
	require.NoError(t, err)
	assert.True(t, op.IsStablecoin("0x0b2c639c533813f4aa9d7837caf62653d097ff85"))
	assert.Equal(t, uint64(43200), op.BlocksPerDay)

	_, err = cfg.Networks.Get(1)
	assert.NoError(t, err)
}

func TestLoadProcessFlagsAndEnv(t *testing.T) {
	t.Setenv("POOLSCOPE_MAX_TVL_IMBALANCE_PERCENT", "25")

	flags := pflag.NewFlagSet("process", pflag.ContinueOnError)
	flags.String("in", "", "")
	flags.Uint64("reprocess-from", 0, "")
	require.NoError(t, flags.Parse([]string{"--in", "override.jsonl", "--reprocess-from", "1200"}))

	cfg, err := LoadProcess(writeConfig(t, testConfig), flags)
	require.NoError(t, err)
	assert.Equal(t, "override.jsonl", cfg.Input)
	assert.Equal(t, uint64(1200), cfg.ReprocessFrom)
	assert.Equal(t, "25", cfg.Engine.MaxTVLImbalancePercent.String())
}

func TestLoadProcessRejectsBadPercent(t *testing.T) {
	_, err := LoadProcess(writeConfig(t, "in: x\noutlier-threshold-percent: lots\n"), nil)
	assert.Error(t, err)

	_, err = LoadProcess(writeConfig(t, "in: x\nmax-tvl-imbalance-percent: -1\n"), nil)
	assert.Error(t, err)
}

func TestLoadSweepRequiresStore(t *testing.T) {
	_, err := LoadSweep(writeConfig(t, "rpc: http://localhost:8545\n"), nil)
	assert.Error(t, err)

	cfg, err := LoadSweep(writeConfig(t, "rpc: http://localhost:8545\npg-dsn: postgres://x\nschedule: \"0 0 * * * *\"\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "0 0 * * * *", cfg.Schedule)
}
