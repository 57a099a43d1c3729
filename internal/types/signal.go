package types

import "time"

// Action is the direction of a trading signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Signal is an immutable trade recommendation produced by a strategy.
// Downstream components read it but never mutate it.
type Signal struct {
	Symbol      string    `json:"symbol"`
	Timeframe   string    `json:"timeframe"`
	Action      Action    `json:"action"`
	Price       float64   `json:"price"`
	MA          float64   `json:"ma"`
	DistancePct float64   `json:"distance_pct"`
	Threshold   float64   `json:"threshold"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// TimeframePriority ranks timeframes for signal ordering and conflict
// resolution. Larger timeframes outrank smaller ones; unknown timeframes
// rank lowest.
func TimeframePriority(tf string) int {
	switch tf {
	case "1d":
		return 3
	case "4h":
		return 2
	case "1h":
		return 1
	default:
		return 0
	}
}

// TradeResult is the outcome of executing one signal. Exactly one of OrderID
// or Error is set once the execution completes.
type TradeResult struct {
	Success  bool    `json:"success"`
	Signal   Signal  `json:"signal"`
	Quantity float64 `json:"quantity"`
	ValueUSD float64 `json:"value_usd"`
	OrderID  string  `json:"order_id,omitempty"`
	Error    string  `json:"error,omitempty"`
}
