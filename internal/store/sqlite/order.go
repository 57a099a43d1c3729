package sqlite

import (
	"context"
	"errors"

	"keel/internal/store/model"

	"gorm.io/gorm"
)

// orderRepository implements store.OrderRepository.
type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Insert(ctx context.Context, order *model.OrderModel) error {
	if order == nil {
		return errors.New("order cannot be nil")
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) ListRecent(ctx context.Context, limit int) ([]model.OrderModel, error) {
	if limit <= 0 {
		limit = 100
	}
	var orders []model.OrderModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// transactionRepository implements store.TransactionRepository.
type transactionRepository struct {
	db *gorm.DB
}

func (r *transactionRepository) Insert(ctx context.Context, txn *model.TransactionModel) error {
	if txn == nil {
		return errors.New("transaction cannot be nil")
	}
	return r.db.WithContext(ctx).Create(txn).Error
}
