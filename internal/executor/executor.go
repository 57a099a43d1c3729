package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"keel/internal/logger"
	"keel/internal/pkg/symbol"
	"keel/internal/store"
	"keel/internal/store/model"
	"keel/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Executor performs the balance mutations for admitted signals. Both legs
// of a trade, the order row, the transaction rows and the history record
// commit in one store unit of work, so a failure anywhere leaves no partial
// application behind.
type Executor struct {
	store         store.Store
	account       string
	quoteCurrency string
	minTradeValue float64
	nowFn         func() time.Time
}

func New(st store.Store, account, quoteCurrency string, minTradeValue float64) *Executor {
	return &Executor{
		store:         st,
		account:       account,
		quoteCurrency: quoteCurrency,
		minTradeValue: minTradeValue,
		nowFn:         time.Now,
	}
}

// Execute routes the signal to the BUY or SELL path and returns a
// TradeResult; execution failures are carried in the result, not returned
// as errors, so one bad trade cannot abort a batch.
func (e *Executor) Execute(ctx context.Context, sig types.Signal, sizeUSD float64) types.TradeResult {
	sym := symbol.Parse(sig.Symbol)
	if sym.Base == "" || sym.Quote == "" {
		return failure(sig, fmt.Sprintf("unparseable symbol %q", sig.Symbol))
	}
	if sig.Price <= 0 {
		return failure(sig, fmt.Sprintf("invalid price %v", sig.Price))
	}
	switch sig.Action {
	case types.ActionBuy:
		return e.buy(ctx, sig, sym, sizeUSD)
	case types.ActionSell:
		return e.sell(ctx, sig, sym)
	default:
		return failure(sig, fmt.Sprintf("unknown action %q", sig.Action))
	}
}

func (e *Executor) buy(ctx context.Context, sig types.Signal, sym symbol.Symbol, sizeUSD float64) types.TradeResult {
	if sizeUSD < e.minTradeValue {
		return failure(sig, fmt.Sprintf("size %.2f USD below minimum trade value %.2f", sizeUSD, e.minTradeValue))
	}
	uow, err := e.store.Begin(ctx)
	if err != nil {
		return failure(sig, fmt.Sprintf("begin transaction failed: %v", err))
	}

	cash, err := uow.Balances().Get(ctx, e.account, sym.Quote)
	if err != nil {
		return e.abort(uow, sig, fmt.Errorf("cash lookup failed: %w", err))
	}
	if cash < sizeUSD {
		return e.abort(uow, sig, fmt.Errorf("insufficient %s: have %.2f, need %.2f", sym.Quote, cash, sizeUSD))
	}

	size := decimal.NewFromFloat(sizeUSD)
	quantity := size.Div(decimal.NewFromFloat(sig.Price))
	qty, _ := quantity.Float64()

	if err := uow.Balances().Adjust(ctx, e.account, sym.Quote, -sizeUSD); err != nil {
		return e.abort(uow, sig, fmt.Errorf("debit %s failed: %w", sym.Quote, err))
	}
	if err := uow.Balances().Adjust(ctx, e.account, sym.Base, qty); err != nil {
		return e.abort(uow, sig, fmt.Errorf("credit %s failed: %w", sym.Base, err))
	}

	orderID, err := e.recordTrade(ctx, uow, sig, qty, sizeUSD, sym, -sizeUSD, qty)
	if err != nil {
		return e.abort(uow, sig, err)
	}
	if err := uow.Commit(); err != nil {
		return failure(sig, fmt.Sprintf("commit failed: %v", err))
	}
	logger.Infof("executor: BUY %s qty=%.8f value=%.2f order=%s", sig.Symbol, qty, sizeUSD, orderID)
	return types.TradeResult{Success: true, Signal: sig, Quantity: qty, ValueUSD: sizeUSD, OrderID: orderID}
}

// sell liquidates the entire base-currency position at the signal price.
func (e *Executor) sell(ctx context.Context, sig types.Signal, sym symbol.Symbol) types.TradeResult {
	uow, err := e.store.Begin(ctx)
	if err != nil {
		return failure(sig, fmt.Sprintf("begin transaction failed: %v", err))
	}

	qty, err := uow.Balances().Get(ctx, e.account, sym.Base)
	if err != nil {
		return e.abort(uow, sig, fmt.Errorf("position lookup failed: %w", err))
	}
	if qty <= 0 {
		return e.abort(uow, sig, fmt.Errorf("no %s position to sell", sym.Base))
	}

	proceeds := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(sig.Price))
	value, _ := proceeds.Float64()

	if err := uow.Balances().Adjust(ctx, e.account, sym.Base, -qty); err != nil {
		return e.abort(uow, sig, fmt.Errorf("debit %s failed: %w", sym.Base, err))
	}
	if err := uow.Balances().Adjust(ctx, e.account, sym.Quote, value); err != nil {
		return e.abort(uow, sig, fmt.Errorf("credit %s failed: %w", sym.Quote, err))
	}

	orderID, err := e.recordTrade(ctx, uow, sig, qty, value, sym, value, -qty)
	if err != nil {
		return e.abort(uow, sig, err)
	}
	if err := uow.Commit(); err != nil {
		return failure(sig, fmt.Sprintf("commit failed: %v", err))
	}
	logger.Infof("executor: SELL %s qty=%.8f value=%.2f order=%s", sig.Symbol, qty, value, orderID)
	return types.TradeResult{Success: true, Signal: sig, Quantity: qty, ValueUSD: value, OrderID: orderID}
}

// recordTrade writes the order, both transaction legs and the cooldown
// history row inside the open unit of work.
func (e *Executor) recordTrade(ctx context.Context, uow store.UnitOfWork, sig types.Signal, qty, valueUSD float64, sym symbol.Symbol, quoteDelta, baseDelta float64) (string, error) {
	orderID := uuid.NewString()
	now := e.nowFn().Unix()

	rawSignal, err := json.Marshal(sig)
	if err != nil {
		return "", fmt.Errorf("marshal signal failed: %w", err)
	}
	if err := uow.Orders().Insert(ctx, &model.OrderModel{
		OrderID:       orderID,
		Symbol:        sig.Symbol,
		Side:          string(sig.Action),
		Timeframe:     sig.Timeframe,
		Price:         sig.Price,
		Quantity:      qty,
		ValueUSD:      valueUSD,
		RawSignal:     datatypes.JSON(rawSignal),
		CreatedAtUnix: now,
	}); err != nil {
		return "", fmt.Errorf("order insert failed: %w", err)
	}

	legs := []model.TransactionModel{
		{OrderID: orderID, Account: e.account, Currency: sym.Quote, Amount: quoteDelta, Kind: "quote", CreatedAtUnix: now},
		{OrderID: orderID, Account: e.account, Currency: sym.Base, Amount: baseDelta, Kind: "base", CreatedAtUnix: now},
	}
	for i := range legs {
		if err := uow.Transactions().Insert(ctx, &legs[i]); err != nil {
			return "", fmt.Errorf("transaction insert failed: %w", err)
		}
	}

	if err := uow.History().Insert(ctx, &model.OrderHistoryModel{
		Symbol:        sig.Symbol,
		Side:          string(sig.Action),
		Price:         sig.Price,
		Quantity:      qty,
		Timeframe:     sig.Timeframe,
		Status:        model.HistoryStatusExecuted,
		CreatedAtUnix: now,
	}); err != nil {
		return "", fmt.Errorf("history insert failed: %w", err)
	}
	return orderID, nil
}

// RecordStopLoss appends a stop-loss event to the order history so the
// cooldown gate can hold the symbol out for its stop-loss window.
func (e *Executor) RecordStopLoss(ctx context.Context, sym string, price, qty float64, timeframe string) error {
	uow, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := uow.History().Insert(ctx, &model.OrderHistoryModel{
		Symbol:        sym,
		Side:          string(types.ActionSell),
		Price:         price,
		Quantity:      qty,
		Timeframe:     timeframe,
		Status:        model.HistoryStatusStopLoss,
		CreatedAtUnix: e.nowFn().Unix(),
	}); err != nil {
		uow.Rollback()
		return err
	}
	return uow.Commit()
}

func (e *Executor) abort(uow store.UnitOfWork, sig types.Signal, cause error) types.TradeResult {
	if err := uow.Rollback(); err != nil {
		logger.Errorf("executor: rollback failed after %v: %v", cause, err)
	}
	logger.Warnf("executor: %s %s aborted: %v", sig.Action, sig.Symbol, cause)
	return failure(sig, cause.Error())
}

func failure(sig types.Signal, reason string) types.TradeResult {
	return types.TradeResult{Success: false, Signal: sig, Error: reason}
}
