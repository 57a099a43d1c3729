package model

import (
	"gorm.io/datatypes"
)

// BalanceModel is one (account, currency) holding. Rows are mutated only
// inside a store unit of work.
type BalanceModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	Account       string  `gorm:"column:account;uniqueIndex:idx_balance,priority:1"`
	Currency      string  `gorm:"column:currency;uniqueIndex:idx_balance,priority:2"`
	Available     float64 `gorm:"column:available"`
	UpdatedAtUnix int64   `gorm:"column:updated_at"`
}

func (BalanceModel) TableName() string { return "balances" }

// OrderModel is an executed order, kept for audit. RawSignal carries the
// originating signal snapshot as JSON.
type OrderModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	OrderID       string         `gorm:"column:order_id;uniqueIndex"`
	Symbol        string         `gorm:"column:symbol;index"`
	Side          string         `gorm:"column:side"`
	Timeframe     string         `gorm:"column:timeframe"`
	Price         float64        `gorm:"column:price"`
	Quantity      float64        `gorm:"column:quantity"`
	ValueUSD      float64        `gorm:"column:value_usd"`
	RawSignal     datatypes.JSON `gorm:"column:raw_signal;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
}

func (OrderModel) TableName() string { return "orders" }

// TransactionModel is one balance movement caused by an order.
type TransactionModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	OrderID       string  `gorm:"column:order_id;index"`
	Account       string  `gorm:"column:account"`
	Currency      string  `gorm:"column:currency"`
	Amount        float64 `gorm:"column:amount"`
	Kind          string  `gorm:"column:kind"`
	CreatedAtUnix int64   `gorm:"column:created_at"`
}

func (TransactionModel) TableName() string { return "transactions" }

// Order history statuses.
const (
	HistoryStatusExecuted = "executed"
	HistoryStatusStopLoss = "stop_loss"
)

// OrderHistoryModel is the append-only record backing cooldown and
// daily-limit checks. Rows are inserted, never updated.
type OrderHistoryModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	Symbol        string  `gorm:"column:symbol;index:idx_history_symbol"`
	Side          string  `gorm:"column:side"`
	Price         float64 `gorm:"column:price"`
	Quantity      float64 `gorm:"column:quantity"`
	Timeframe     string  `gorm:"column:timeframe"`
	Status        string  `gorm:"column:status"`
	CreatedAtUnix int64   `gorm:"column:created_at;index:idx_history_time"`
}

func (OrderHistoryModel) TableName() string { return "order_history" }

// PortfolioValueModel is one sample of the total portfolio value, the basis
// for drawdown computation.
type PortfolioValueModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	Value         float64 `gorm:"column:value"`
	CreatedAtUnix int64   `gorm:"column:created_at;index"`
}

func (PortfolioValueModel) TableName() string { return "portfolio_values" }
