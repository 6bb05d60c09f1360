package billing

import "time"

// WebhookEvent records a processed provider event so redeliveries are
// acknowledged without being applied twice.
type WebhookEvent struct {
	ID                   uint   `gorm:"primaryKey"`
	StripeEventID        string `gorm:"uniqueIndex;not null"`
	Type                 string `gorm:"type:varchar(80);not null"`
	AccountID            *uint  `gorm:"index"`
	StripeSubscriptionID *string
	ProcessedAt          time.Time
	CreatedAt            time.Time
}

func (WebhookEvent) TableName() string { return "billing_webhook_events" }
