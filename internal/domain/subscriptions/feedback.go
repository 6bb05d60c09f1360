package subscriptions

import "time"

type FeedbackKind string

const (
	FeedbackTrial        FeedbackKind = "trial"
	FeedbackSubscription FeedbackKind = "subscription"
)

// CancellationFeedback keeps the optional reason given when an account leaves.
type CancellationFeedback struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	AccountID uint         `gorm:"index;not null" json:"account_id"`
	Kind      FeedbackKind `gorm:"type:varchar(20);not null" json:"kind"`
	Reason    string       `gorm:"type:text" json:"reason"`
	CreatedAt time.Time    `json:"created_at"`
}
