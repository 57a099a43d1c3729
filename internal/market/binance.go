package market

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"keel/internal/logger"

	"github.com/adshao/go-binance/v2"
)

// BinanceConfig configures the REST market source.
type BinanceConfig struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

func (c BinanceConfig) withDefaults() BinanceConfig {
	if strings.TrimSpace(c.RESTBaseURL) == "" {
		c.RESTBaseURL = "https://api.binance.com"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}

// BinanceSource implements Source on the go-binance spot SDK. Requests are
// unauthenticated; only public market endpoints are used.
type BinanceSource struct {
	cfg    BinanceConfig
	client *binance.Client

	statsMu  sync.Mutex
	stats    SourceStats
	failures []time.Time
}

func NewBinanceSource(cfg BinanceConfig) *BinanceSource {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	client.BaseURL = strings.TrimSpace(final.RESTBaseURL)
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &BinanceSource{cfg: final, client: client}
}

func (s *BinanceSource) LastPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	start := time.Now()
	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	s.record(time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("fetch price for %s failed: %w", symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price returned for %s", symbol)
	}
	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q for %s failed: %w", prices[0].Price, symbol, err)
	}
	return price, nil
}

func (s *BinanceSource) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if limit <= 0 {
		limit = 100
	}
	start := time.Now()
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	s.record(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s %s failed: %w", symbol, interval, err)
	}
	out := make([]Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := convertKline(k)
		if err != nil {
			logger.Warnf("market: skip malformed kline for %s %s: %v", symbol, interval, err)
			continue
		}
		out = append(out, candle)
	}
	return out, nil
}

func convertKline(k *binance.Kline) (Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return Candle{}, err
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return Candle{}, err
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return Candle{}, err
	}
	closeP, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return Candle{}, err
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return Candle{}, err
	}
	return Candle{
		OpenTime:  k.OpenTime,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closeP,
		Volume:    volume,
		CloseTime: k.CloseTime,
	}, nil
}

// record updates latency/failure stats under the stats lock. Failure
// timestamps older than one hour roll off so FailuresHour is a sliding count.
func (s *BinanceSource) record(latency time.Duration, err error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	now := time.Now()
	s.stats.LastLatency = latency
	if err != nil {
		s.failures = append(s.failures, now)
		s.stats.LastError = err.Error()
	} else {
		s.stats.LastSuccessAt = now
	}
	cutoff := now.Add(-time.Hour)
	kept := s.failures[:0]
	for _, ts := range s.failures {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	s.failures = kept
	s.stats.FailuresHour = len(s.failures)
}

func (s *BinanceSource) Stats() SourceStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}
