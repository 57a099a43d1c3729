package admission

import (
	"context"

	"keel/internal/logger"
	"keel/internal/types"
)

// Gate composes the cooldown and exposure checks into the single admission
// decision the daemon consults before executing a signal.
type Gate struct {
	cooldown  *CooldownManager
	positions *PositionManager
}

func NewGate(cooldown *CooldownManager, positions *PositionManager) *Gate {
	return &Gate{cooldown: cooldown, positions: positions}
}

// Admit checks a signal with proposed size sizeUSD against the current
// portfolio snapshot. SELL signals pass only the cooldown; the exposure and
// cash rules are BUY-side.
func (g *Gate) Admit(ctx context.Context, sig types.Signal, sizeUSD float64, snap types.PortfolioStatus, drawdown float64) (SizeDecision, error) {
	cd, err := g.cooldown.CanPlaceOrder(ctx, sig.Symbol, sig.Action, sig.Price, sig.Timeframe)
	if err != nil {
		return SizeDecision{}, err
	}
	if !cd.Allowed {
		return SizeDecision{Decision: cd}, nil
	}
	if sig.Action == types.ActionSell {
		return SizeDecision{Decision: allow(), SizeUSD: sizeUSD}, nil
	}
	dec := g.positions.CanOpenPosition(sig.Symbol, sizeUSD, snap, drawdown)
	if dec.Allowed && dec.Shrunk {
		logger.Infof("admission: shrunk %s BUY from %.2f to %.2f USD", sig.Symbol, sizeUSD, dec.SizeUSD)
	}
	return dec, nil
}
