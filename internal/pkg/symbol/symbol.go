package symbol

import (
	"strings"
)

// Symbol is a trading pair split into base and quote currency.
type Symbol struct {
	Base  string
	Quote string
}

// Exchange renders the concatenated exchange form, e.g. BTCUSDT.
func (s Symbol) Exchange() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

// Parse accepts "BTC/USDT" or "BTCUSDT". Concatenated forms are split on a
// known quote-currency suffix.
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}
	if parts := strings.SplitN(s, "/", 2); len(parts) == 2 {
		return Symbol{
			Base:  strings.TrimSpace(parts[0]),
			Quote: strings.TrimSpace(parts[1]),
		}
	}
	quoteCurrencies := []string{"USDT", "USDC", "FDUSD", "TUSD", "BTC", "ETH", "BNB"}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{
				Base:  s[:len(s)-len(quote)],
				Quote: quote,
			}
		}
	}
	return Symbol{}
}

func IsValid(s string) bool {
	sym := Parse(s)
	return sym.Base != "" && sym.Quote != ""
}

// Canonical renders s in exchange form when it parses as a pair, otherwise
// returns the trimmed upper-case input unchanged. Comparisons between
// watchlist symbols and portfolio positions go through this so slash and
// concatenated spellings of the same pair always match.
func Canonical(s string) string {
	if sym := Parse(s); sym.Base != "" && sym.Quote != "" {
		return sym.Exchange()
	}
	return strings.ToUpper(strings.TrimSpace(s))
}
