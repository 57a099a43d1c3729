package store

import (
	"context"
	"errors"
	"time"

	"keel/internal/store/model"
)

// ErrInsufficientBalance is returned by BalanceRepository.Adjust when the
// resulting balance would be negative. The surrounding unit of work must be
// rolled back by the caller.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Store is the entry point for database access.
type Store interface {
	// Begin starts a new UnitOfWork (transaction).
	Begin(ctx context.Context) (UnitOfWork, error)
	// Close closes the store connection.
	Close() error
}

// UnitOfWork defines a transaction scope. All repository calls obtained from
// the same unit of work commit or roll back together, which is what makes
// the two-leg balance mutation of a trade atomic.
type UnitOfWork interface {
	Commit() error
	Rollback() error

	Balances() BalanceRepository
	Orders() OrderRepository
	Transactions() TransactionRepository
	History() HistoryRepository
	Values() ValueRepository
}

// BalanceRepository handles (account, currency) holdings.
type BalanceRepository interface {
	// Get returns the available amount, 0 for an absent row.
	Get(ctx context.Context, account, currency string) (float64, error)
	// All returns every holding for the account.
	All(ctx context.Context, account string) ([]model.BalanceModel, error)
	// Adjust adds delta (possibly negative) to the holding, creating the row
	// if needed. Returns ErrInsufficientBalance if the result would be < 0.
	Adjust(ctx context.Context, account, currency string, delta float64) error
}

// OrderRepository handles the orders audit table.
type OrderRepository interface {
	Insert(ctx context.Context, order *model.OrderModel) error
	ListRecent(ctx context.Context, limit int) ([]model.OrderModel, error)
}

// TransactionRepository handles the balance-movement audit table.
type TransactionRepository interface {
	Insert(ctx context.Context, txn *model.TransactionModel) error
}

// HistoryRepository handles the append-only order history used by the
// cooldown checks.
type HistoryRepository interface {
	Insert(ctx context.Context, rec *model.OrderHistoryModel) error
	// Last returns the most recent record for symbol+side, nil if none.
	Last(ctx context.Context, symbol, side string) (*model.OrderHistoryModel, error)
	// CountSince counts executed orders for symbol at or after from.
	CountSince(ctx context.Context, symbol string, from time.Time) (int, error)
	// LastStopLoss returns the most recent stop-loss record for symbol, nil
	// if none.
	LastStopLoss(ctx context.Context, symbol string) (*model.OrderHistoryModel, error)
}

// ValueRepository handles the portfolio value time series.
type ValueRepository interface {
	Insert(ctx context.Context, sample *model.PortfolioValueModel) error
	// MaxSince returns the peak value at or after from, 0 if no samples.
	MaxSince(ctx context.Context, from time.Time) (float64, error)
	// Latest returns the most recent sample, nil if none.
	Latest(ctx context.Context) (*model.PortfolioValueModel, error)
	// First returns the earliest sample at or after from, nil if none.
	First(ctx context.Context, from time.Time) (*model.PortfolioValueModel, error)
}
