package sqlite

import (
	"context"
	"errors"
	"time"

	"keel/internal/store"
	"keel/internal/store/model"

	"gorm.io/gorm"
)

// balanceRepository implements store.BalanceRepository on a gorm handle.
type balanceRepository struct {
	db *gorm.DB
}

func (r *balanceRepository) Get(ctx context.Context, account, currency string) (float64, error) {
	var row model.BalanceModel
	err := r.db.WithContext(ctx).
		Where("account = ? AND currency = ?", account, currency).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Available, nil
}

func (r *balanceRepository) All(ctx context.Context, account string) ([]model.BalanceModel, error) {
	var rows []model.BalanceModel
	if err := r.db.WithContext(ctx).
		Where("account = ?", account).
		Order("currency ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *balanceRepository) Adjust(ctx context.Context, account, currency string, delta float64) error {
	var row model.BalanceModel
	err := r.db.WithContext(ctx).
		Where("account = ? AND currency = ?", account, currency).
		First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if delta < 0 {
			return store.ErrInsufficientBalance
		}
		row = model.BalanceModel{Account: account, Currency: currency}
	case err != nil:
		return err
	}
	next := row.Available + delta
	if next < 0 {
		return store.ErrInsufficientBalance
	}
	row.Available = next
	row.UpdatedAtUnix = time.Now().Unix()
	return r.db.WithContext(ctx).Save(&row).Error
}
