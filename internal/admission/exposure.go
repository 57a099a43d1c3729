package admission

import (
	"keel/internal/config"
	"keel/internal/pkg/symbol"
	"keel/internal/types"

	"github.com/shopspring/decimal"
)

// SizeDecision extends Decision with the possibly-shrunk order size.
// Shrunk is true when the size was reduced rather than taken as proposed,
// so callers can log shrinks distinctly from rejections.
type SizeDecision struct {
	Decision
	SizeUSD float64
	Shrunk  bool
}

// PositionManager enforces exposure caps and the cash reserve on BUY
// orders. It prefers shrinking an order to rejecting it: the returned size
// is the largest one that satisfies every rule, or the decision is a
// rejection when no size at or above the minimum trade value fits.
type PositionManager struct {
	positions config.PositionConfig
	cash      config.CashConfig
}

func NewPositionManager(positions config.PositionConfig, cash config.CashConfig) *PositionManager {
	return &PositionManager{positions: positions, cash: cash}
}

// CanOpenPosition validates a proposed BUY of proposedUSD against the
// portfolio snapshot. drawdown raises the required cash reserve when
// progressive reserve is enabled.
func (m *PositionManager) CanOpenPosition(sym string, proposedUSD float64, snap types.PortfolioStatus, drawdown float64) SizeDecision {
	held := holding(snap, sym)
	if held == nil && snap.ActivePositions() >= m.positions.MaxConcurrentPositions {
		return SizeDecision{Decision: deny("max concurrent positions reached: %d", m.positions.MaxConcurrentPositions)}
	}
	if held != nil && !m.positions.DCA.Enabled {
		return SizeDecision{Decision: deny("already holding %s and DCA is disabled", sym)}
	}
	if proposedUSD < m.positions.MinTradeValue {
		return SizeDecision{Decision: deny("proposed %.2f USD below minimum trade value %.2f", proposedUSD, m.positions.MinTradeValue)}
	}
	if snap.TotalValue <= 0 {
		return SizeDecision{Decision: deny("portfolio value is zero")}
	}

	size := decimal.NewFromFloat(proposedUSD)
	total := decimal.NewFromFloat(snap.TotalValue)
	shrunk := false

	// Exposure cap: shrink to the largest size that keeps the asset at or
	// under max_asset_exposure of total value.
	existing := decimal.Zero
	if held != nil {
		existing = decimal.NewFromFloat(held.ValueUSD)
	}
	maxExposure := decimal.NewFromFloat(m.positions.MaxAssetExposure)
	room := total.Mul(maxExposure).Sub(existing)
	if size.GreaterThan(room) {
		if room.LessThan(decimal.NewFromFloat(m.positions.MinTradeValue)) {
			return SizeDecision{Decision: deny("exposure cap leaves only %.2f USD of room for %s, below minimum trade value",
				room.InexactFloat64(), sym)}
		}
		size = room
		shrunk = true
	}

	// Cash reserve: keep requiredReserve of total value in cash after the
	// trade, shrinking again if needed.
	reserve := total.Mul(decimal.NewFromFloat(m.requiredReserve(drawdown)))
	cash := decimal.NewFromFloat(snap.CashBalance)
	available := cash.Sub(reserve)
	if size.GreaterThan(available) {
		if available.LessThan(decimal.NewFromFloat(m.positions.MinTradeValue)) {
			return SizeDecision{Decision: deny("cash reserve %.2f USD leaves no valid size (cash %.2f)",
				reserve.InexactFloat64(), snap.CashBalance)}
		}
		size = available
		shrunk = true
	}

	return SizeDecision{Decision: allow(), SizeUSD: size.InexactFloat64(), Shrunk: shrunk}
}

// requiredReserve returns the cash fraction that must remain after a BUY.
// With progressive reserve enabled, the highest step at or below the
// current drawdown wins.
func (m *PositionManager) requiredReserve(drawdown float64) float64 {
	required := m.cash.MinCashReserve
	if !m.cash.Progressive.Enabled {
		return required
	}
	for _, step := range m.cash.Progressive.DrawdownThresholds {
		if drawdown >= step.Drawdown && step.Reserve > required {
			required = step.Reserve
		}
	}
	return required
}

// holding matches in canonical form: the snapshot reports positions in
// exchange spelling while callers may still pass a slash pair, and the
// exposure cap must see the existing position either way.
func holding(snap types.PortfolioStatus, sym string) *types.Position {
	want := symbol.Canonical(sym)
	for i := range snap.Positions {
		if symbol.Canonical(snap.Positions[i].Symbol) == want && snap.Positions[i].Quantity > 0 {
			return &snap.Positions[i]
		}
	}
	return nil
}
