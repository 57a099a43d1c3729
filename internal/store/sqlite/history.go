package sqlite

import (
	"context"
	"errors"
	"time"

	"keel/internal/store/model"

	"gorm.io/gorm"
)

// historyRepository implements store.HistoryRepository. The table is
// append-only; nothing here issues an UPDATE.
type historyRepository struct {
	db *gorm.DB
}

func (r *historyRepository) Insert(ctx context.Context, rec *model.OrderHistoryModel) error {
	if rec == nil {
		return errors.New("history record cannot be nil")
	}
	if rec.CreatedAtUnix == 0 {
		rec.CreatedAtUnix = time.Now().Unix()
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *historyRepository) Last(ctx context.Context, symbol, side string) (*model.OrderHistoryModel, error) {
	var rec model.OrderHistoryModel
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND side = ? AND status = ?", symbol, side, model.HistoryStatusExecuted).
		Order("created_at DESC, id DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *historyRepository) CountSince(ctx context.Context, symbol string, from time.Time) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.OrderHistoryModel{}).
		Where("symbol = ? AND status = ? AND created_at >= ?", symbol, model.HistoryStatusExecuted, from.Unix()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *historyRepository) LastStopLoss(ctx context.Context, symbol string) (*model.OrderHistoryModel, error) {
	var rec model.OrderHistoryModel
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND status = ?", symbol, model.HistoryStatusStopLoss).
		Order("created_at DESC, id DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// valueRepository implements store.ValueRepository.
type valueRepository struct {
	db *gorm.DB
}

func (r *valueRepository) Insert(ctx context.Context, sample *model.PortfolioValueModel) error {
	if sample == nil {
		return errors.New("sample cannot be nil")
	}
	if sample.CreatedAtUnix == 0 {
		sample.CreatedAtUnix = time.Now().Unix()
	}
	return r.db.WithContext(ctx).Create(sample).Error
}

func (r *valueRepository) MaxSince(ctx context.Context, from time.Time) (float64, error) {
	var max *float64
	if err := r.db.WithContext(ctx).
		Model(&model.PortfolioValueModel{}).
		Where("created_at >= ?", from.Unix()).
		Select("MAX(value)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *valueRepository) Latest(ctx context.Context) (*model.PortfolioValueModel, error) {
	var sample model.PortfolioValueModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

func (r *valueRepository) First(ctx context.Context, from time.Time) (*model.PortfolioValueModel, error) {
	var sample model.PortfolioValueModel
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", from.Unix()).
		Order("created_at ASC, id ASC").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}
