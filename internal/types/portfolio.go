package types

import "time"

// Position is a held asset derived from the balance store at query time.
type Position struct {
	Symbol     string  `json:"symbol"`
	Currency   string  `json:"currency"`
	Quantity   float64 `json:"quantity"`
	ValueUSD   float64 `json:"value_usd"`
	EntryPrice float64 `json:"entry_price,omitempty"`
}

// PortfolioStatus is an on-demand snapshot of the account.
// Invariant: TotalValue == CashBalance + sum(Positions[i].ValueUSD).
type PortfolioStatus struct {
	TotalValue  float64    `json:"total_value"`
	CashBalance float64    `json:"cash_balance"`
	Positions   []Position `json:"positions"`
	Timestamp   time.Time  `json:"timestamp"`
}

// ActivePositions counts non-dust holdings.
func (p PortfolioStatus) ActivePositions() int {
	n := 0
	for _, pos := range p.Positions {
		if pos.Quantity > 0 {
			n++
		}
	}
	return n
}
