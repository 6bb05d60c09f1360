package lifecycle

import (
	"context"
	"time"

	"subscription-engine/internal/domain/accounts"
	"subscription-engine/internal/domain/subscriptions"
)

// Records is the Record Manager. Update writes only the columns in the patch
// and fails with ErrConflict when a guard no longer holds.
type Records interface {
	Get(ctx context.Context, accountID uint) (*subscriptions.UserSubscription, error)
	Create(ctx context.Context, sub *subscriptions.UserSubscription) (*subscriptions.UserSubscription, bool, error)
	Update(ctx context.Context, owner subscriptions.Owner, accountID uint, patch subscriptions.Patch, guards ...subscriptions.Guard) (*subscriptions.UserSubscription, error)
	List(ctx context.Context) ([]subscriptions.UserSubscription, error)
	FindByCustomerID(ctx context.Context, customerID string) (*subscriptions.UserSubscription, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*subscriptions.UserSubscription, error)
}

type Configs interface {
	Get(ctx context.Context) (subscriptions.SubscriptionConfig, error)
	Update(ctx context.Context, u subscriptions.ConfigUpdate, updatedBy uint) (subscriptions.SubscriptionConfig, error)
}

type Accounts interface {
	Get(ctx context.Context, id uint) (*accounts.Account, error)
}

type FeedbackStore interface {
	Create(ctx context.Context, fb *subscriptions.CancellationFeedback) error
}

type RecipeCounter interface {
	CountByAccount(ctx context.Context, accountID uint) (int64, error)
}

type CheckoutRequest struct {
	AccountID  uint
	CustomerID string
	PriceID    string
	Interval   subscriptions.Interval
	SuccessURL string
	CancelURL  string
}

// Provider is the billing provider adapter. Every call is bounded by ctx and
// never retried here.
type Provider interface {
	// EnsureCustomer returns knownID when set, otherwise finds or creates the
	// customer for accountID. Repeated calls must not create duplicates.
	EnsureCustomer(ctx context.Context, accountID uint, email, knownID string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	// CurrentSubscription reports the customer's most relevant subscription,
	// with Status ProviderStatusNone when there is none.
	CurrentSubscription(ctx context.Context, customerID string) (subscriptions.ProviderSnapshot, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
	Pause(ctx context.Context, subscriptionID string, resumesAt time.Time) error
	Resume(ctx context.Context, subscriptionID string) error
	ApplyDiscount(ctx context.Context, subscriptionID string, percentOff, months int) error
}
