package health

import (
	"time"
)

// PerformanceMetrics is a point-in-time snapshot of trading performance.
// Recomputed fresh on every assessment, never mutated after construction.
type PerformanceMetrics struct {
	PortfolioValue    float64       `json:"portfolio_value"`
	DailyPnL          float64       `json:"daily_pnl"`
	DailyPnLPct       float64       `json:"daily_pnl_pct"`
	Drawdown          float64       `json:"drawdown"`
	SharpeRatio       float64       `json:"sharpe_ratio"`
	WinRate           float64       `json:"win_rate"`
	ProfitFactor      float64       `json:"profit_factor"`
	ActivePositions   int           `json:"active_positions"`
	TotalTrades       int           `json:"total_trades"`
	WinningTrades     int           `json:"winning_trades"`
	LosingTrades      int           `json:"losing_trades"`
	ConsecutiveLosses int           `json:"consecutive_losses"`
	APILatency        time.Duration `json:"-"`
	APILatencyMs      float64       `json:"api_latency_ms"`
	APIFailuresHour   int           `json:"api_failures_hour"`
	DataStaleness     time.Duration `json:"-"`
	DataStalenessSec  float64       `json:"data_staleness_sec"`
	Timestamp         time.Time     `json:"timestamp"`
}

// DailyLoss returns the loss fraction for the day as a positive number, 0
// when the day is flat or up.
func (m PerformanceMetrics) DailyLoss() float64 {
	if m.DailyPnLPct < 0 {
		return -m.DailyPnLPct
	}
	return 0
}
