package scheduler

import (
	"testing"
	"time"

	"keel/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntervalDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"1h", time.Hour, true},
		{"4h", 4 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"15m", 15 * time.Minute, true},
		{"1w", 7 * 24 * time.Hour, true},
		{" 1H ", time.Hour, true},
		{"", 0, false},
		{"h", 0, false},
		{"0h", 0, false},
		{"-1h", 0, false},
		{"1x", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseIntervalDuration(c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestBoundaryCrossed(t *testing.T) {
	base := time.Date(2025, 6, 2, 11, 59, 30, 0, time.UTC)

	assert.False(t, BoundaryCrossed(base, base.Add(10*time.Second), time.Hour),
		"no boundary inside the same hour")
	assert.True(t, BoundaryCrossed(base, base.Add(time.Minute), time.Hour),
		"12:00 boundary lies between 11:59:30 and 12:00:30")
	assert.False(t, BoundaryCrossed(base, base, time.Hour), "now must be after prev")
	assert.False(t, BoundaryCrossed(base.Add(time.Minute), base, time.Hour))
}

func TestDropUnclosedKline(t *testing.T) {
	interval := time.Hour
	now := time.Date(2025, 6, 2, 12, 30, 0, 0, time.UTC)

	closed := market.Candle{OpenTime: now.Add(-2 * time.Hour).UnixMilli(), Close: 100}
	open := market.Candle{OpenTime: now.Truncate(time.Hour).UnixMilli(), Close: 101}

	got := dropUnclosedKlineAt([]market.Candle{closed, open}, interval, now, defaultKlineGrace)
	require.Len(t, got, 1)
	assert.Equal(t, closed.OpenTime, got[0].OpenTime)

	// A candle whose close time has passed the grace period stays.
	got = dropUnclosedKlineAt([]market.Candle{closed}, interval, now, defaultKlineGrace)
	assert.Len(t, got, 1)

	// Just-closed candle inside the grace window is still dropped.
	justClosed := market.Candle{OpenTime: time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC).UnixMilli()}
	at := time.Date(2025, 6, 2, 12, 0, 5, 0, time.UTC)
	got = dropUnclosedKlineAt([]market.Candle{justClosed}, interval, at, defaultKlineGrace)
	assert.Len(t, got, 0)

	assert.Empty(t, dropUnclosedKlineAt(nil, interval, now, 0))
}
