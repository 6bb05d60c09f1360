package repository

import (
	"context"

	"subscription-engine/internal/domain/subscriptions"

	"gorm.io/gorm"
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *subscriptions.CancellationFeedback) error {
	return r.db.WithContext(ctx).Create(fb).Error
}

func (r *FeedbackRepository) ListByAccount(ctx context.Context, accountID uint) ([]subscriptions.CancellationFeedback, error) {
	var out []subscriptions.CancellationFeedback
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("created_at DESC").Find(&out).Error
	return out, err
}
