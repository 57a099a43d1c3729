package health

import (
	"math"
	"sync"
)

// TradeStats accumulates closed-trade outcomes for win rate, profit factor,
// Sharpe ratio and the consecutive-loss streak. The daemon feeds it one
// entry per completed round trip; the cost basis per symbol is tracked from
// the buys.
type TradeStats struct {
	mu                sync.Mutex
	costBasis         map[string]float64
	pnls              []float64
	wins              int
	losses            int
	grossProfit       float64
	grossLoss         float64
	consecutiveLosses int
}

func NewTradeStats() *TradeStats {
	return &TradeStats{costBasis: make(map[string]float64)}
}

// RecordBuy adds the spent notional to the symbol's open cost basis.
func (s *TradeStats) RecordBuy(symbol string, valueUSD float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costBasis[symbol] += valueUSD
}

// RecordSell closes the symbol's position and books the realized PnL
// against its accumulated cost basis.
func (s *TradeStats) RecordSell(symbol string, proceedsUSD float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	basis := s.costBasis[symbol]
	delete(s.costBasis, symbol)
	if basis <= 0 {
		return 0
	}
	pnl := proceedsUSD - basis
	s.pnls = append(s.pnls, pnl/basis)
	if pnl >= 0 {
		s.wins++
		s.grossProfit += pnl
		s.consecutiveLosses = 0
	} else {
		s.losses++
		s.grossLoss += -pnl
		s.consecutiveLosses++
	}
	return pnl
}

func (s *TradeStats) WinRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.wins + s.losses
	if total == 0 {
		return 0
	}
	return float64(s.wins) / float64(total)
}

func (s *TradeStats) ProfitFactor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grossLoss == 0 {
		if s.grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return s.grossProfit / s.grossLoss
}

// Sharpe is the mean over standard deviation of per-trade returns. Not
// annualized: trades are too sparse at these frequencies for a time-scaled
// figure to mean anything.
func (s *TradeStats) Sharpe() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pnls)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, r := range s.pnls {
		sum += r
	}
	mean := sum / float64(n)
	var variance float64
	for _, r := range s.pnls {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(n-1))
	if std == 0 {
		return 0
	}
	return mean / std
}

func (s *TradeStats) ConsecutiveLosses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveLosses
}

func (s *TradeStats) Counts() (total, wins, losses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wins + s.losses, s.wins, s.losses
}
