package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const baseConfig = `
app:
  env: test
  log_level: debug
daemon:
  timeframes: ["1h", "4h"]
  check_interval: 30
  position_sizes:
    1h: 0.10
    4h: 0.20
  min_trade_value: 10
watchlist:
  symbols: ["BTC/USDT"]
`

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", baseConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, []string{"1h", "4h"}, cfg.Daemon.Timeframes)

	// Defaults fill everything the file left out.
	assert.Equal(t, 300, cfg.Daemon.MinCheckIntervals["1h"])
	assert.Equal(t, 1200, cfg.Daemon.MinCheckIntervals["4h"])
	assert.Equal(t, 3600, cfg.Cooldown.CooldownPeriods["1h"])
	assert.Equal(t, 3, cfg.Cooldown.MaxDailyOrdersPerSymbol)
	assert.Equal(t, 24, cfg.Cooldown.StopLossCooldownHours)
	assert.Equal(t, 0.25, cfg.Positions.MaxAssetExposure)
	assert.Equal(t, 0.10, cfg.Cash.MinCashReserve)
	assert.Equal(t, ":9971", cfg.Control.HTTPAddr)
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoadIncludeMerge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "risk.yaml", `
position_management:
  max_asset_exposure: 0.30
cash_management:
  min_cash_reserve: 0.15
`)
	path := writeFile(t, dir, "config.yaml", baseConfig+`
include:
  - risk.yaml
cash_management:
  min_cash_reserve: 0.20
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.30, cfg.Positions.MaxAssetExposure, "included file supplies the value")
	assert.Equal(t, 0.20, cfg.Cash.MinCashReserve, "root file wins over include")
}

func TestLoadIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "include: [b.yaml]\n")
	writeFile(t, dir, "b.yaml", "include: [a.yaml]\n")

	_, err := Load(filepath.Join(dir, "a.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestPositionSizesFallBackToDaemon(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeFile(t, dir, "config.yaml", baseConfig))
	require.NoError(t, err)

	// Without a position_management override, sizing follows the daemon map.
	assert.Equal(t, cfg.Daemon.PositionSizes, cfg.Positions.PositionSizes)
}

func TestPositionSizesOverrideDaemon(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", baseConfig+`
position_management:
  position_sizes:
    1h: 0.05
    4h: 0.15
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"1h": 0.05, "4h": 0.15}, cfg.Positions.PositionSizes)
	assert.Equal(t, 0.10, cfg.Daemon.PositionSizes["1h"], "daemon map stays untouched")
}

func TestValidationRejectsBadPositionManagementSize(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", baseConfig+`
position_management:
  position_sizes:
    1h: 1.5
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position_management.position_sizes.1h")
}

func TestValidationRejectsMissingPositionSize(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
daemon:
  timeframes: ["1h", "1d"]
  check_interval: 30
  position_sizes:
    1h: 0.10
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position_sizes missing entry for timeframe 1d")
}

func TestValidationRejectsOversizedAllocation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
daemon:
  timeframes: ["1h", "4h"]
  check_interval: 30
  position_sizes:
    1h: 0.60
    4h: 0.50
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 100%")
}

func TestValidationRejectsIncompleteTelegram(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", baseConfig+`
notify:
  telegram:
    enabled: true
    bot_token: ""
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}

func TestValidationRejectsUnsortedReserveSteps(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", baseConfig+`
cash_management:
  progressive_reserve:
    enabled: true
    drawdown_thresholds:
      - drawdown: 0.20
        reserve: 0.30
      - drawdown: 0.10
        reserve: 0.20
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sorted")
}

func TestDumpRoundTripsYAML(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeFile(t, dir, "config.yaml", baseConfig))
	require.NoError(t, err)

	out, err := Dump(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "timeframes")
	assert.Contains(t, out, "1h")
}
