package signal

import (
	"context"
	"sort"
	"sync"
	"time"

	"keel/internal/logger"
	"keel/internal/strategy"
	"keel/internal/types"
	"keel/internal/watchlist"
)

// defaultMinCheckIntervals rate-limit strategy evaluation per timeframe.
var defaultMinCheckIntervals = map[string]time.Duration{
	"1h": 300 * time.Second,
	"4h": 1200 * time.Second,
	"1d": 3600 * time.Second,
}

type checkKey struct {
	symbol    string
	timeframe string
}

// Processor walks the watchlist, delegates to the strategy, and rate-limits
// each (symbol, timeframe) pair with a sliding minimum interval. Strategy
// failures skip the pair, never the batch.
type Processor struct {
	watchlist watchlist.Provider
	strategy  strategy.Strategy
	intervals map[string]time.Duration

	mu        sync.Mutex
	lastCheck map[checkKey]time.Time

	nowFn func() time.Time
}

func NewProcessor(wl watchlist.Provider, strat strategy.Strategy, minIntervals map[string]time.Duration) *Processor {
	intervals := make(map[string]time.Duration, len(defaultMinCheckIntervals))
	for tf, d := range defaultMinCheckIntervals {
		intervals[tf] = d
	}
	for tf, d := range minIntervals {
		intervals[tf] = d
	}
	return &Processor{
		watchlist: wl,
		strategy:  strat,
		intervals: intervals,
		lastCheck: make(map[checkKey]time.Time),
		nowFn:     time.Now,
	}
}

// CheckAll evaluates every due (symbol, timeframe) pair and returns the
// collected signals, unprioritized.
func (p *Processor) CheckAll(ctx context.Context, timeframes []string) []types.Signal {
	var out []types.Signal
	for _, symbol := range p.watchlist.Symbols() {
		for _, tf := range timeframes {
			if err := ctx.Err(); err != nil {
				logger.Warnf("signal: batch aborted: %v", err)
				return out
			}
			if !p.due(symbol, tf) {
				continue
			}
			sig, err := p.strategy.Evaluate(ctx, symbol, tf)
			if err != nil {
				logger.Warnf("signal: evaluate %s %s failed: %v", symbol, tf, err)
				continue
			}
			if sig == nil {
				continue
			}
			logger.Infof("signal: %s %s %s at %.2f (%s)", sig.Action, symbol, tf, sig.Price, sig.Reason)
			out = append(out, *sig)
		}
	}
	return out
}

// due marks the pair checked when the interval has elapsed. Marking on the
// attempt, not on success, keeps a failing symbol from being hammered every
// tick.
func (p *Processor) due(symbol, timeframe string) bool {
	interval, ok := p.intervals[timeframe]
	if !ok {
		interval = defaultMinCheckIntervals["1h"]
	}
	now := p.nowFn()
	key := checkKey{symbol: symbol, timeframe: timeframe}
	p.mu.Lock()
	defer p.mu.Unlock()
	if last, ok := p.lastCheck[key]; ok && now.Sub(last) < interval {
		return false
	}
	p.lastCheck[key] = now
	return true
}

// Prioritize orders a batch for execution: SELL before BUY (exits free up
// capital and cap risk first), and within the same action larger timeframes
// before smaller ones. The sort is stable, so reapplying it is a no-op.
func Prioritize(signals []types.Signal) []types.Signal {
	out := make([]types.Signal, len(signals))
	copy(out, signals)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Action != out[j].Action {
			return out[i].Action == types.ActionSell
		}
		return types.TimeframePriority(out[i].Timeframe) > types.TimeframePriority(out[j].Timeframe)
	})
	return out
}

// HasConflict reports whether another signal in the batch targets the same
// symbol with the opposite action on a strictly higher-priority timeframe.
// The caller drops conflicting signals and logs the drop.
func HasConflict(sig types.Signal, batch []types.Signal) bool {
	for _, other := range batch {
		if other.Symbol != sig.Symbol || other.Action == sig.Action {
			continue
		}
		if types.TimeframePriority(other.Timeframe) > types.TimeframePriority(sig.Timeframe) {
			return true
		}
	}
	return false
}
