package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawdownBreaker(maxConsecutive int, recovery time.Duration) *Breaker {
	return NewBreaker("drawdown", "test", 0.20, maxConsecutive, recovery,
		func(m PerformanceMetrics) float64 { return m.Drawdown })
}

func TestBreakerImmediateTrip(t *testing.T) {
	b := drawdownBreaker(1, time.Hour)
	now := time.Now()

	assert.False(t, b.Evaluate(PerformanceMetrics{Drawdown: 0.10}, now))
	assert.Equal(t, "CLOSED", b.Status().State)

	assert.True(t, b.Evaluate(PerformanceMetrics{Drawdown: 0.25}, now))
	assert.Equal(t, "OPEN", b.Status().State)
}

func TestBreakerConsecutiveThreshold(t *testing.T) {
	b := NewBreaker("api_latency", "test", 5000, 3, time.Minute,
		func(m PerformanceMetrics) float64 { return m.APILatencyMs })
	now := time.Now()
	slow := PerformanceMetrics{APILatencyMs: 6000}

	assert.False(t, b.Evaluate(slow, now))
	assert.False(t, b.Evaluate(slow, now.Add(time.Second)))
	assert.True(t, b.Evaluate(slow, now.Add(2*time.Second)))
}

func TestBreakerConsecutiveResetOnRecovery(t *testing.T) {
	b := NewBreaker("api_latency", "test", 5000, 3, time.Minute,
		func(m PerformanceMetrics) float64 { return m.APILatencyMs })
	now := time.Now()

	assert.False(t, b.Evaluate(PerformanceMetrics{APILatencyMs: 6000}, now))
	assert.False(t, b.Evaluate(PerformanceMetrics{APILatencyMs: 6000}, now))
	// One good evaluation resets the streak.
	assert.False(t, b.Evaluate(PerformanceMetrics{APILatencyMs: 100}, now))
	assert.False(t, b.Evaluate(PerformanceMetrics{APILatencyMs: 6000}, now))
	assert.False(t, b.Evaluate(PerformanceMetrics{APILatencyMs: 6000}, now))
	assert.True(t, b.Evaluate(PerformanceMetrics{APILatencyMs: 6000}, now))
}

func TestBreakerHysteresis(t *testing.T) {
	b := drawdownBreaker(1, time.Hour)
	opened := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	require.True(t, b.Evaluate(PerformanceMetrics{Drawdown: 0.30}, opened))

	// Below-threshold values inside the recovery window do not close it.
	for _, offset := range []time.Duration{time.Minute, 30 * time.Minute, 59 * time.Minute} {
		b.Evaluate(PerformanceMetrics{Drawdown: 0.01}, opened.Add(offset))
		assert.Equal(t, "OPEN", b.Status().State, "still open at +%s", offset)
	}

	// One below-threshold evaluation after the window closes it.
	b.Evaluate(PerformanceMetrics{Drawdown: 0.01}, opened.Add(61*time.Minute))
	assert.Equal(t, "CLOSED", b.Status().State)
}

func TestBreakerHalfOpenReTrip(t *testing.T) {
	b := drawdownBreaker(1, time.Hour)
	opened := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	require.True(t, b.Evaluate(PerformanceMetrics{Drawdown: 0.30}, opened))

	// Still above threshold after the window: re-opens immediately and the
	// recovery clock restarts.
	probe := opened.Add(61 * time.Minute)
	assert.True(t, b.Evaluate(PerformanceMetrics{Drawdown: 0.30}, probe))
	st := b.Status()
	assert.Equal(t, "OPEN", st.State)
	require.NotNil(t, st.TriggeredAt)
	assert.Equal(t, probe, *st.TriggeredAt)
}

func TestBreakerManualReset(t *testing.T) {
	b := drawdownBreaker(1, time.Hour)
	require.True(t, b.Evaluate(PerformanceMetrics{Drawdown: 0.30}, time.Now()))
	b.Reset()
	assert.Equal(t, "CLOSED", b.Status().State)
	assert.Nil(t, b.Status().TriggeredAt)
}

func TestManagerCheckAllReturnsNewlyTripped(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.nowFn = func() time.Time { return now }

	metrics := PerformanceMetrics{Drawdown: 0.25, ConsecutiveLosses: 4, DailyPnLPct: -0.12}
	tripped := m.CheckAll(metrics)

	names := make([]string, 0, len(tripped))
	for _, b := range tripped {
		names = append(names, b.Name())
	}
	assert.ElementsMatch(t, []string{BreakerDrawdown, BreakerConsecutiveLosses, BreakerDailyLoss}, names)

	// Already-open breakers are not reported again.
	assert.Empty(t, m.CheckAll(metrics))
	assert.Equal(t, 3, m.OpenCount())
}

func TestManagerReset(t *testing.T) {
	m := NewManager()
	require.Error(t, m.Reset("nonsense"))
	require.NoError(t, m.Reset(BreakerDrawdown))
}
