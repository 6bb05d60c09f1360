package repository

import (
	"context"

	"subscription-engine/internal/domain/billing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

func (r *WebhookEventRepository) Seen(ctx context.Context, stripeEventID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&billing.WebhookEvent{}).
		Where("stripe_event_id = ?", stripeEventID).
		Count(&n).Error
	return n > 0, err
}

// Record marks an event processed. Recording the same event twice is a no-op.
func (r *WebhookEventRepository) Record(ctx context.Context, ev *billing.WebhookEvent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "stripe_event_id"}}, DoNothing: true}).
		Create(ev).Error
}
