package watchlist

import (
	"sync"

	"keel/internal/pkg/symbol"
	"keel/internal/strategy"
)

// Entry is one monitored symbol with optional per-timeframe overrides.
type Entry struct {
	Symbol string                     `json:"symbol"`
	Params map[string]strategy.Params `json:"params,omitempty"`
}

// Provider supplies the monitored symbols and their strategy parameters.
type Provider interface {
	Symbols() []string
	StrategyParams(sym, timeframe string) strategy.Params
}

// Static is a fixed in-memory watchlist, used when no watchlist file is
// configured and by tests.
type Static struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewStatic builds a watchlist from plain symbol strings. Symbols are
// stored in exchange form regardless of the spelling given.
func NewStatic(symbols []string) *Static {
	entries := make([]Entry, 0, len(symbols))
	for _, s := range symbols {
		entries = append(entries, Entry{Symbol: symbol.Canonical(s)})
	}
	return &Static{entries: entries}
}

func (s *Static) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Symbol)
	}
	return out
}

func (s *Static) StrategyParams(sym, timeframe string) strategy.Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := symbol.Canonical(sym)
	for _, e := range s.entries {
		if symbol.Canonical(e.Symbol) != want {
			continue
		}
		if p, ok := e.Params[timeframe]; ok {
			return p
		}
	}
	return strategy.Params{}
}

func (s *Static) replace(entries []Entry) {
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}
