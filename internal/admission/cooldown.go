package admission

import (
	"context"
	"fmt"
	"math"
	"time"

	"keel/internal/config"
	"keel/internal/store"
	"keel/internal/types"
)

// Decision is an admission outcome. Rejections are values, not errors.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, v ...any) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, v...)}
}

// CooldownManager enforces the time/price/count limits between successive
// orders on the same symbol. It reads the append-only order history; the
// executor writes it.
type CooldownManager struct {
	cfg   config.CooldownConfig
	store store.Store
	nowFn func() time.Time
}

func NewCooldownManager(cfg config.CooldownConfig, st store.Store) *CooldownManager {
	return &CooldownManager{cfg: cfg, store: st, nowFn: time.Now}
}

// CanPlaceOrder runs the four cooldown conditions in order; the first
// violation short-circuits with its reason.
func (m *CooldownManager) CanPlaceOrder(ctx context.Context, sym string, side types.Action, price float64, timeframe string) (Decision, error) {
	if !m.cfg.Enabled {
		return allow(), nil
	}
	uow, err := m.store.Begin(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("begin cooldown read failed: %w", err)
	}
	defer uow.Rollback()
	history := uow.History()
	now := m.nowFn().UTC()

	last, err := history.Last(ctx, sym, string(side))
	if err != nil {
		return Decision{}, fmt.Errorf("last order lookup failed: %w", err)
	}
	if last != nil {
		cooldown := time.Duration(m.cfg.CooldownPeriods[timeframe]) * time.Second
		elapsed := now.Sub(time.Unix(last.CreatedAtUnix, 0))
		if elapsed < cooldown {
			return deny("cooldown active for %s %s: %s elapsed of %s", sym, side, elapsed.Round(time.Second), cooldown), nil
		}
		if last.Price > 0 {
			gapPct := math.Abs(price-last.Price) / last.Price * 100
			if gapPct < m.cfg.MinPriceGapPercent {
				return deny("price gap %.2f%% below minimum %.2f%% for %s (last order at %.2f)",
					gapPct, m.cfg.MinPriceGapPercent, sym, last.Price), nil
			}
		}
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := history.CountSince(ctx, sym, dayStart)
	if err != nil {
		return Decision{}, fmt.Errorf("daily order count failed: %w", err)
	}
	if count >= m.cfg.MaxDailyOrdersPerSymbol {
		return deny("daily order limit reached for %s: %d of %d", sym, count, m.cfg.MaxDailyOrdersPerSymbol), nil
	}

	stopLoss, err := history.LastStopLoss(ctx, sym)
	if err != nil {
		return Decision{}, fmt.Errorf("stop-loss lookup failed: %w", err)
	}
	if stopLoss != nil {
		window := time.Duration(m.cfg.StopLossCooldownHours) * time.Hour
		since := now.Sub(time.Unix(stopLoss.CreatedAtUnix, 0))
		if since < window {
			return deny("stop-loss cooldown active for %s: %s since stop-loss of %s window",
				sym, since.Round(time.Minute), window), nil
		}
	}
	return allow(), nil
}
