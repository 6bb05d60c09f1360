package subscriptions

import "time"

// UserSubscription is the per-account subscription record. Entitlement is
// never stored here; it is derived from these fields at read time.
type UserSubscription struct {
	AccountID uint   `gorm:"primaryKey;autoIncrement:false" json:"account_id"`
	Tier      Tier   `gorm:"type:varchar(10);not null;default:'free'" json:"tier"`
	Status    Status `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	TrialStartedAt *time.Time `gorm:"column:trial_started_at" json:"trial_started_at"`
	TrialEndsAt    *time.Time `gorm:"column:trial_ends_at" json:"trial_ends_at"`

	StripeCustomerID       *string    `gorm:"column:stripe_customer_id;uniqueIndex:idx_user_subscriptions_stripe_customer_id" json:"stripe_customer_id"`
	StripeSubscriptionID   *string    `gorm:"column:stripe_subscription_id;uniqueIndex:idx_user_subscriptions_stripe_subscription_id" json:"stripe_subscription_id"`
	StripePriceID          *string    `gorm:"column:stripe_price_id" json:"stripe_price_id"`
	StripeCurrentPeriodEnd *time.Time `gorm:"column:stripe_current_period_end" json:"stripe_current_period_end"`
	CancelAtPeriodEnd      bool       `gorm:"column:cancel_at_period_end;not null;default:false" json:"cancel_at_period_end"`
	// StripeSyncedAt is the observation time of the last applied provider
	// snapshot. Older snapshots are discarded.
	StripeSyncedAt *time.Time `gorm:"column:stripe_synced_at" json:"stripe_synced_at"`

	AdminGrantedPro     bool       `gorm:"column:admin_granted_pro;not null;default:false" json:"admin_granted_pro"`
	AdminGrantedBy      *uint      `gorm:"column:admin_granted_by" json:"admin_granted_by"`
	AdminGrantExpiresAt *time.Time `gorm:"column:admin_grant_expires_at" json:"admin_grant_expires_at"`
	AdminGrantNote      *string    `gorm:"column:admin_grant_note" json:"admin_grant_note"`

	PausedAt       *time.Time `gorm:"column:paused_at" json:"paused_at"`
	PauseResumesAt *time.Time `gorm:"column:pause_resumes_at" json:"pause_resumes_at"`

	RetentionOfferUsedAt *time.Time `gorm:"column:retention_offer_used_at" json:"retention_offer_used_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFree is the record provisioned at signup.
func NewFree(accountID uint) *UserSubscription {
	return &UserSubscription{
		AccountID: accountID,
		Tier:      TierFree,
		Status:    StatusActive,
	}
}

func (s UserSubscription) HasBillingSubscription() bool {
	return s.StripeSubscriptionID != nil && *s.StripeSubscriptionID != ""
}

// HasLivePaidSubscription reports whether a provider subscription is currently
// carrying this account's pro tier. Admin actions must not downgrade such an account.
func (s UserSubscription) HasLivePaidSubscription() bool {
	if !s.HasBillingSubscription() || s.Tier != TierPro {
		return false
	}
	return s.Status == StatusActive || s.Status == StatusPaused
}

func (s UserSubscription) IsTrialing() bool {
	return s.Status == StatusTrialing && s.TrialEndsAt != nil
}

func (s UserSubscription) IsPaused() bool {
	return s.Status == StatusPaused
}

// AdminGrantActive reports whether the admin override grants access at now.
func (s UserSubscription) AdminGrantActive(now time.Time) bool {
	if !s.AdminGrantedPro {
		return false
	}
	return s.AdminGrantExpiresAt == nil || s.AdminGrantExpiresAt.After(now)
}
