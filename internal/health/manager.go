package health

import (
	"fmt"
	"time"
)

// Breaker names.
const (
	BreakerDrawdown          = "drawdown"
	BreakerConsecutiveLosses = "consecutive_losses"
	BreakerAPILatency        = "api_latency"
	BreakerDailyLoss         = "daily_loss"
	BreakerAPIFailures       = "api_failures"
)

// Manager owns the fixed set of circuit breakers, one per monitored risk
// dimension. Breakers are created once at process start and live for the
// process lifetime.
type Manager struct {
	breakers []*Breaker
	nowFn    func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		nowFn: time.Now,
		breakers: []*Breaker{
			NewBreaker(BreakerDrawdown, "portfolio drawdown from peak", 0.20, 1, time.Hour,
				func(m PerformanceMetrics) float64 { return m.Drawdown }),
			NewBreaker(BreakerConsecutiveLosses, "losing trades in a row", 3, 1, 30*time.Minute,
				func(m PerformanceMetrics) float64 { return float64(m.ConsecutiveLosses) }),
			NewBreaker(BreakerAPILatency, "market data latency in ms", 5000, 3, 10*time.Minute,
				func(m PerformanceMetrics) float64 { return m.APILatencyMs }),
			NewBreaker(BreakerDailyLoss, "loss fraction for the day", 0.10, 1, 24*time.Hour,
				func(m PerformanceMetrics) float64 { return m.DailyLoss() }),
			NewBreaker(BreakerAPIFailures, "market data failures per hour", 5, 2, 30*time.Minute,
				func(m PerformanceMetrics) float64 { return float64(m.APIFailuresHour) }),
		},
	}
}

// CheckAll evaluates every breaker against the metrics snapshot and returns
// the subset that newly tripped on this evaluation.
func (m *Manager) CheckAll(metrics PerformanceMetrics) []*Breaker {
	now := m.nowFn()
	var tripped []*Breaker
	for _, b := range m.breakers {
		if b.Evaluate(metrics, now) {
			tripped = append(tripped, b)
		}
	}
	return tripped
}

// OpenCount returns how many breakers are currently OPEN.
func (m *Manager) OpenCount() int {
	n := 0
	for _, b := range m.breakers {
		if b.IsOpen() {
			n++
		}
	}
	return n
}

// Statuses returns the full breaker list for health reports.
func (m *Manager) Statuses() []BreakerStatus {
	out := make([]BreakerStatus, 0, len(m.breakers))
	for _, b := range m.breakers {
		out = append(out, b.Status())
	}
	return out
}

// Reset manually closes the named breaker.
func (m *Manager) Reset(name string) error {
	for _, b := range m.breakers {
		if b.Name() == name {
			b.Reset()
			return nil
		}
	}
	return fmt.Errorf("unknown breaker %q", name)
}
