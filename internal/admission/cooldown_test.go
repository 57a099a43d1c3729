package admission

import (
	"context"
	"testing"
	"time"

	"keel/internal/config"
	"keel/internal/store"
	"keel/internal/store/model"
	"keel/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHistory implements store.HistoryRepository in memory.
type fakeHistory struct {
	records []model.OrderHistoryModel
}

func (f *fakeHistory) Insert(_ context.Context, rec *model.OrderHistoryModel) error {
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeHistory) Last(_ context.Context, symbol, side string) (*model.OrderHistoryModel, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.Symbol == symbol && r.Side == side && r.Status == model.HistoryStatusExecuted {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeHistory) CountSince(_ context.Context, symbol string, from time.Time) (int, error) {
	n := 0
	for _, r := range f.records {
		if r.Symbol == symbol && r.Status == model.HistoryStatusExecuted && r.CreatedAtUnix >= from.Unix() {
			n++
		}
	}
	return n, nil
}

func (f *fakeHistory) LastStopLoss(_ context.Context, symbol string) (*model.OrderHistoryModel, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.Symbol == symbol && r.Status == model.HistoryStatusStopLoss {
			return &r, nil
		}
	}
	return nil, nil
}

// fakeStore hands out no-op units of work over the shared fakeHistory.
type fakeStore struct {
	history *fakeHistory
}

func (s *fakeStore) Begin(context.Context) (store.UnitOfWork, error) { return &fakeUow{s: s}, nil }
func (s *fakeStore) Close() error                                    { return nil }

type fakeUow struct {
	s *fakeStore
}

func (u *fakeUow) Commit() error                             { return nil }
func (u *fakeUow) Rollback() error                           { return nil }
func (u *fakeUow) Balances() store.BalanceRepository         { return nil }
func (u *fakeUow) Orders() store.OrderRepository             { return nil }
func (u *fakeUow) Transactions() store.TransactionRepository { return nil }
func (u *fakeUow) History() store.HistoryRepository          { return u.s.history }
func (u *fakeUow) Values() store.ValueRepository             { return nil }

func newCooldownFixture(t *testing.T) (*CooldownManager, *fakeHistory, time.Time) {
	t.Helper()
	history := &fakeHistory{}
	mgr := NewCooldownManager(config.CooldownConfig{
		Enabled:                 true,
		MinPriceGapPercent:      1.0,
		CooldownPeriods:         map[string]int{"1h": 3600},
		MaxDailyOrdersPerSymbol: 3,
		StopLossCooldownHours:   24,
	}, &fakeStore{history: history})
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	mgr.nowFn = func() time.Time { return now }
	return mgr, history, now
}

func TestCanPlaceOrderNoHistory(t *testing.T) {
	mgr, _, _ := newCooldownFixture(t)
	dec, err := mgr.CanPlaceOrder(context.Background(), "BTCUSDT", types.ActionBuy, 50000, "1h")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestCanPlaceOrderCooldownWindow(t *testing.T) {
	mgr, history, now := newCooldownFixture(t)
	history.records = append(history.records, model.OrderHistoryModel{
		Symbol: "BTCUSDT", Side: "BUY", Price: 50000, Timeframe: "1h",
		Status: model.HistoryStatusExecuted, CreatedAtUnix: now.Add(-3599 * time.Second).Unix(),
	})

	dec, err := mgr.CanPlaceOrder(context.Background(), "BTCUSDT", types.ActionBuy, 51000, "1h")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Contains(t, dec.Reason, "cooldown active")

	// One second past the window with a sufficient price gap it opens up.
	mgr.nowFn = func() time.Time { return now.Add(2 * time.Second) }
	dec, err = mgr.CanPlaceOrder(context.Background(), "BTCUSDT", types.ActionBuy, 51000, "1h")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestCanPlaceOrderPriceGap(t *testing.T) {
	mgr, history, now := newCooldownFixture(t)
	history.records = append(history.records, model.OrderHistoryModel{
		Symbol: "BTCUSDT", Side: "BUY", Price: 50000, Timeframe: "1h",
		Status: model.HistoryStatusExecuted, CreatedAtUnix: now.Add(-2 * time.Hour).Unix(),
	})

	// 0.5% away from the last fill, below the 1% minimum gap.
	dec, err := mgr.CanPlaceOrder(context.Background(), "BTCUSDT", types.ActionBuy, 50250, "1h")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Contains(t, dec.Reason, "price gap")

	dec, err = mgr.CanPlaceOrder(context.Background(), "BTCUSDT", types.ActionBuy, 49000, "1h")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestCanPlaceOrderDailyLimit(t *testing.T) {
	mgr, history, now := newCooldownFixture(t)
	for i := 0; i < 3; i++ {
		history.records = append(history.records, model.OrderHistoryModel{
			Symbol: "BTCUSDT", Side: "SELL", Price: 50000, Timeframe: "1h",
			Status: model.HistoryStatusExecuted, CreatedAtUnix: now.Add(-time.Duration(i+2) * time.Hour).Unix(),
		})
	}

	dec, err := mgr.CanPlaceOrder(context.Background(), "BTCUSDT", types.ActionBuy, 60000, "1h")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Contains(t, dec.Reason, "daily order limit")
}

func TestCanPlaceOrderStopLossCooldown(t *testing.T) {
	mgr, history, now := newCooldownFixture(t)
	history.records = append(history.records, model.OrderHistoryModel{
		Symbol: "BTCUSDT", Side: "SELL", Price: 45000, Timeframe: "1h",
		Status: model.HistoryStatusStopLoss, CreatedAtUnix: now.Add(-6 * time.Hour).Unix(),
	})

	dec, err := mgr.CanPlaceOrder(context.Background(), "BTCUSDT", types.ActionBuy, 60000, "1h")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Contains(t, dec.Reason, "stop-loss cooldown")

	mgr.nowFn = func() time.Time { return now.Add(19 * time.Hour) }
	dec, err = mgr.CanPlaceOrder(context.Background(), "BTCUSDT", types.ActionBuy, 60000, "1h")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestCanPlaceOrderDisabled(t *testing.T) {
	mgr, history, now := newCooldownFixture(t)
	mgr.cfg.Enabled = false
	history.records = append(history.records, model.OrderHistoryModel{
		Symbol: "BTCUSDT", Side: "BUY", Price: 50000, Timeframe: "1h",
		Status: model.HistoryStatusExecuted, CreatedAtUnix: now.Unix(),
	})

	dec, err := mgr.CanPlaceOrder(context.Background(), "BTCUSDT", types.ActionBuy, 50000, "1h")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}
