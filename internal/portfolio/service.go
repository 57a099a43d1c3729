package portfolio

import (
	"context"
	"fmt"
	"time"

	"keel/internal/logger"
	"keel/internal/market"
	"keel/internal/pkg/symbol"
	"keel/internal/store"
	"keel/internal/store/model"
	"keel/internal/types"
)

// Service aggregates balances and market prices into a portfolio snapshot
// and computes per-timeframe position sizing. Read side only: it never
// mutates balances.
type Service struct {
	store         store.Store
	source        market.Source
	account       string
	quoteCurrency string
	positionSizes map[string]float64
}

func NewService(st store.Store, source market.Source, account, quoteCurrency string, positionSizes map[string]float64) *Service {
	return &Service{
		store:         st,
		source:        source,
		account:       account,
		quoteCurrency: quoteCurrency,
		positionSizes: positionSizes,
	}
}

// Snapshot values every holding at the latest market price. Holdings whose
// price lookup fails are carried with zero value rather than dropping the
// snapshot.
func (s *Service) Snapshot(ctx context.Context) (types.PortfolioStatus, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return types.PortfolioStatus{}, fmt.Errorf("begin snapshot read failed: %w", err)
	}
	defer uow.Rollback()

	rows, err := uow.Balances().All(ctx, s.account)
	if err != nil {
		return types.PortfolioStatus{}, fmt.Errorf("reading balances failed: %w", err)
	}

	status := types.PortfolioStatus{Timestamp: time.Now().UTC()}
	for _, row := range rows {
		if row.Available <= 0 {
			continue
		}
		if row.Currency == s.quoteCurrency {
			status.CashBalance = row.Available
			continue
		}
		pair := symbol.Symbol{Base: row.Currency, Quote: s.quoteCurrency}.Exchange()
		price, err := s.source.LastPrice(ctx, pair)
		if err != nil {
			logger.Warnf("portfolio: price lookup for %s failed, valuing at 0: %v", pair, err)
			price = 0
		}
		status.Positions = append(status.Positions, types.Position{
			Symbol:   pair,
			Currency: row.Currency,
			Quantity: row.Available,
			ValueUSD: row.Available * price,
		})
	}
	status.TotalValue = status.CashBalance
	for _, pos := range status.Positions {
		status.TotalValue += pos.ValueUSD
	}
	return status, nil
}

// PositionSize returns the notional for a new entry on the given timeframe:
// the configured fraction of current total portfolio value.
func (s *Service) PositionSize(ctx context.Context, timeframe string) (float64, error) {
	fraction, ok := s.positionSizes[timeframe]
	if !ok {
		return 0, fmt.Errorf("no position size configured for timeframe %s", timeframe)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return snap.TotalValue * fraction, nil
}

// RecordValue samples the current total portfolio value into the drawdown
// time series.
func (s *Service) RecordValue(ctx context.Context) (float64, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	sample := &model.PortfolioValueModel{Value: snap.TotalValue, CreatedAtUnix: time.Now().Unix()}
	if err := uow.Values().Insert(ctx, sample); err != nil {
		uow.Rollback()
		return 0, err
	}
	return snap.TotalValue, uow.Commit()
}
