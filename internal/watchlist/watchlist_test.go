package watchlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"keel/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWatchlist(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watchlist.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileValid(t *testing.T) {
	path := writeWatchlist(t, `{
  "symbols": [
    {"symbol": "BTC/USDT", "params": {"1h": {"ma_period": 30, "buy_threshold": 4.0}}},
    {"symbol": "ETH/USDT"}
  ]
}`)
	wl, err := LoadFile(path)
	require.NoError(t, err)

	// Symbols come back in exchange form no matter how the file spells them.
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, wl.Symbols())

	p := wl.StrategyParams("BTCUSDT", "1h")
	assert.Equal(t, 30, p.MAPeriod)
	assert.Equal(t, 4.0, p.BuyThreshold)

	// Params resolve under either spelling of the same pair.
	assert.Equal(t, p, wl.StrategyParams("BTC/USDT", "1h"))

	// No override falls back to zero params; defaults apply downstream.
	assert.Equal(t, strategy.Params{}, wl.StrategyParams("ETHUSDT", "1h"))
	assert.Equal(t, strategy.Params{}, wl.StrategyParams("BTCUSDT", "4h"))
}

func TestLoadFileSchemaRejections(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"empty symbols", `{"symbols": []}`},
		{"missing symbols key", `{"pairs": []}`},
		{"entry without symbol", `{"symbols": [{"params": {}}]}`},
		{"ma_period below minimum", `{"symbols": [{"symbol": "BTC/USDT", "params": {"1h": {"ma_period": 1}}}]}`},
		{"negative threshold", `{"symbols": [{"symbol": "BTC/USDT", "params": {"1h": {"buy_threshold": -2}}}]}`},
		{"not json", `symbols: [BTC/USDT]`},
		{"unrecognized pair", `{"symbols": [{"symbol": "USDT"}]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := LoadFile(writeWatchlist(t, c.content))
			assert.Error(t, err)
		})
	}
}

func TestNewStaticCanonicalizes(t *testing.T) {
	wl := NewStatic([]string{"BTC/USDT", "ethusdt"})
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, wl.Symbols())
}

func TestStaticReplaceSwapsAtomically(t *testing.T) {
	wl := NewStatic([]string{"BTC/USDT"})
	assert.Equal(t, []string{"BTCUSDT"}, wl.Symbols())

	wl.replace([]Entry{{Symbol: "SOLUSDT"}, {Symbol: "ETHUSDT"}})
	assert.Equal(t, []string{"SOLUSDT", "ETHUSDT"}, wl.Symbols())
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := writeWatchlist(t, `{"symbols": [{"symbol": "BTC/USDT"}]}`)
	wl, err := LoadFile(path)
	require.NoError(t, err)

	stop, err := Watch(path, wl)
	require.NoError(t, err)
	defer stop()

	// A broken edit is rejected and keeps the previous list; the following
	// valid edit lands.
	require.NoError(t, os.WriteFile(path, []byte(`{"symbols": []}`), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`{"symbols": [{"symbol": "BTC/USDT"}, {"symbol": "ETH/USDT"}]}`), 0o644))

	assert.Eventually(t, func() bool {
		return len(wl.Symbols()) == 2
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, wl.Symbols())
}
