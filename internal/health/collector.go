package health

import (
	"context"
	"fmt"
	"time"

	"keel/internal/market"
	"keel/internal/store"
	"keel/internal/types"
)

// drawdownWindow bounds the peak lookback for drawdown computation.
const drawdownWindow = 30 * 24 * time.Hour

// Collector assembles a fresh PerformanceMetrics from the portfolio
// snapshot, the value time series, the trade stats and the market source
// counters.
type Collector struct {
	store  store.Store
	source market.Source
	stats  *TradeStats
	nowFn  func() time.Time
}

func NewCollector(st store.Store, source market.Source, stats *TradeStats) *Collector {
	return &Collector{store: st, source: source, stats: stats, nowFn: time.Now}
}

func (c *Collector) Collect(ctx context.Context, snap types.PortfolioStatus) (PerformanceMetrics, error) {
	now := c.nowFn().UTC()
	m := PerformanceMetrics{
		PortfolioValue:    snap.TotalValue,
		ActivePositions:   snap.ActivePositions(),
		WinRate:           c.stats.WinRate(),
		ProfitFactor:      c.stats.ProfitFactor(),
		SharpeRatio:       c.stats.Sharpe(),
		ConsecutiveLosses: c.stats.ConsecutiveLosses(),
		Timestamp:         now,
	}
	m.TotalTrades, m.WinningTrades, m.LosingTrades = c.stats.Counts()

	srcStats := c.source.Stats()
	m.APILatency = srcStats.LastLatency
	m.APILatencyMs = float64(srcStats.LastLatency.Milliseconds())
	m.APIFailuresHour = srcStats.FailuresHour
	if !srcStats.LastSuccessAt.IsZero() {
		m.DataStaleness = now.Sub(srcStats.LastSuccessAt)
		m.DataStalenessSec = m.DataStaleness.Seconds()
	}

	uow, err := c.store.Begin(ctx)
	if err != nil {
		return m, fmt.Errorf("begin metrics read failed: %w", err)
	}
	defer uow.Rollback()
	values := uow.Values()

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if first, err := values.First(ctx, dayStart); err == nil && first != nil && first.Value > 0 {
		m.DailyPnL = snap.TotalValue - first.Value
		m.DailyPnLPct = m.DailyPnL / first.Value
	}

	peak, err := values.MaxSince(ctx, now.Add(-drawdownWindow))
	if err != nil {
		return m, fmt.Errorf("drawdown peak lookup failed: %w", err)
	}
	if peak > snap.TotalValue && peak > 0 {
		m.Drawdown = (peak - snap.TotalValue) / peak
	}
	return m, nil
}
