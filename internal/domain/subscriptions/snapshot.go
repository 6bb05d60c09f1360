package subscriptions

import "time"

// Normalized provider subscription statuses.
const (
	ProviderStatusNone       = "none"
	ProviderStatusActive     = "active"
	ProviderStatusTrialing   = "trialing"
	ProviderStatusPastDue    = "past_due"
	ProviderStatusPaused     = "paused"
	ProviderStatusCanceled   = "canceled"
	ProviderStatusIncomplete = "incomplete"
)

// ProviderSnapshot is the billing provider's view of one subscription at a
// point in time. Both the on-demand sync and the webhook turn provider data
// into a snapshot and hand it to the same apply step.
type ProviderSnapshot struct {
	AccountID         uint // from provider metadata; 0 when unknown
	CustomerID        string
	SubscriptionID    string
	PriceID           string
	Status            string
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
	PauseResumesAt    *time.Time
	Paused            bool

	// ObservedAt is when the provider reported this state. Zero means now.
	ObservedAt time.Time
}

// Live reports whether the snapshot grants pro through billing.
func (s ProviderSnapshot) Live() bool {
	switch s.Status {
	case ProviderStatusActive, ProviderStatusTrialing, ProviderStatusPastDue, ProviderStatusPaused:
		return true
	}
	return false
}

// Ended reports whether the provider subscription is over for good.
func (s ProviderSnapshot) Ended() bool {
	return s.Status == ProviderStatusCanceled
}
