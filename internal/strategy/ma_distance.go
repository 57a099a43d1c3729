package strategy

import (
	"context"
	"fmt"
	"time"

	"keel/internal/logger"
	"keel/internal/market"
	"keel/internal/scheduler"
	"keel/internal/types"

	"github.com/markcheno/go-talib"
)

// ParamProvider resolves the strategy knobs for a (symbol, timeframe) pair.
// The watchlist implements this.
type ParamProvider interface {
	StrategyParams(symbol, timeframe string) Params
}

// MADistance signals when price has stretched far enough away from its
// simple moving average: below by the buy threshold means BUY, above by the
// sell threshold means SELL.
type MADistance struct {
	source market.Source
	params ParamProvider
}

func NewMADistance(source market.Source, params ParamProvider) *MADistance {
	return &MADistance{source: source, params: params}
}

func (s *MADistance) Evaluate(ctx context.Context, symbol, timeframe string) (*types.Signal, error) {
	p := Params{}
	if s.params != nil {
		p = s.params.StrategyParams(symbol, timeframe)
	}
	p = p.withDefaults()

	candles, err := s.source.FetchKlines(ctx, symbol, timeframe, p.MAPeriod+2)
	if err != nil {
		return nil, err
	}
	if d, ok := scheduler.ParseIntervalDuration(timeframe); ok {
		candles = scheduler.DropUnclosedKline(candles, d)
	}
	if len(candles) < p.MAPeriod {
		return nil, fmt.Errorf("not enough candles for %s %s: have %d, need %d",
			symbol, timeframe, len(candles), p.MAPeriod)
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	sma := talib.Sma(closes, p.MAPeriod)
	ma := sma[len(sma)-1]
	if ma <= 0 {
		return nil, fmt.Errorf("invalid moving average for %s %s", symbol, timeframe)
	}
	price := closes[len(closes)-1]
	distancePct := (price - ma) / ma * 100

	var action types.Action
	var threshold float64
	switch {
	case distancePct <= -p.BuyThreshold:
		action, threshold = types.ActionBuy, p.BuyThreshold
	case distancePct >= p.SellThreshold:
		action, threshold = types.ActionSell, p.SellThreshold
	default:
		logger.Debugf("strategy: %s %s distance %.2f%% inside thresholds", symbol, timeframe, distancePct)
		return nil, nil
	}
	return &types.Signal{
		Symbol:      symbol,
		Timeframe:   timeframe,
		Action:      action,
		Price:       price,
		MA:          ma,
		DistancePct: distancePct,
		Threshold:   threshold,
		Reason: fmt.Sprintf("price %.2f is %.2f%% from SMA(%d) %.2f",
			price, distancePct, p.MAPeriod, ma),
		CreatedAt: time.Now().UTC(),
	}, nil
}
