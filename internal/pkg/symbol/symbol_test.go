package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Symbol
	}{
		{"BTC/USDT", Symbol{Base: "BTC", Quote: "USDT"}},
		{"btc/usdt", Symbol{Base: "BTC", Quote: "USDT"}},
		{"BTCUSDT", Symbol{Base: "BTC", Quote: "USDT"}},
		{"ETHBTC", Symbol{Base: "ETH", Quote: "BTC"}},
		{" sol/usdc ", Symbol{Base: "SOL", Quote: "USDC"}},
		{"USDT", Symbol{}},
		{"", Symbol{}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Parse(c.in), "input %q", c.in)
	}
}

func TestCanonicalMatchesAcrossSpellings(t *testing.T) {
	assert.Equal(t, "BTCUSDT", Canonical("BTC/USDT"))
	assert.Equal(t, "BTCUSDT", Canonical("btcusdt"))
	assert.Equal(t, Canonical("BTC/USDT"), Canonical("BTCUSDT"))
	// Unparseable input passes through trimmed and upper-cased, never
	// collapsing to an empty string that could alias another bad input.
	assert.Equal(t, "NOTAPAIR", Canonical(" notapair "))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("BTC/USDT"))
	assert.True(t, IsValid("ETHUSDT"))
	assert.False(t, IsValid("USDT"))
	assert.False(t, IsValid(""))
}
