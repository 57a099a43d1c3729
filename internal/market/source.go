package market

import (
	"context"
	"time"
)

// Candle is one OHLCV bar.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"close_time"`
}

// SourceStats tracks the health of the market connection. The health
// assessor reads these to feed the API-latency and API-failure breakers.
type SourceStats struct {
	LastLatency   time.Duration
	FailuresHour  int
	LastError     string
	LastSuccessAt time.Time
}

// Source supplies prices and candles for the watchlist symbols.
type Source interface {
	// LastPrice returns the latest trade price for symbol.
	LastPrice(ctx context.Context, symbol string) (float64, error)

	// FetchKlines returns up to limit most recent candles for
	// symbol/interval, oldest first.
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	Stats() SourceStats
}
