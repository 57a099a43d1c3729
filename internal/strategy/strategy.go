package strategy

import (
	"context"

	"keel/internal/types"
)

// Strategy produces at most one signal per (symbol, timeframe) evaluation.
// A nil signal with nil error means "nothing to do right now".
type Strategy interface {
	Evaluate(ctx context.Context, symbol, timeframe string) (*types.Signal, error)
}

// Params are the per-symbol/timeframe knobs a watchlist entry can override.
type Params struct {
	MAPeriod      int     `json:"ma_period"`
	BuyThreshold  float64 `json:"buy_threshold"`
	SellThreshold float64 `json:"sell_threshold"`
}

func (p Params) withDefaults() Params {
	if p.MAPeriod <= 0 {
		p.MAPeriod = 50
	}
	if p.BuyThreshold <= 0 {
		p.BuyThreshold = 5.0
	}
	if p.SellThreshold <= 0 {
		p.SellThreshold = 5.0
	}
	return p
}
