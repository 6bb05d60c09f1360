package stripe

import (
	"strings"

	"subscription-engine/internal/domain/subscriptions"
)

// NormalizeStripeStatus folds Stripe's subscription statuses into the small
// set ApplySnapshot understands.
func NormalizeStripeStatus(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return subscriptions.ProviderStatusNone
	}
	switch strings.TrimSpace(*s) {
	case "active":
		return subscriptions.ProviderStatusActive
	case "trialing":
		return subscriptions.ProviderStatusTrialing
	case "past_due":
		return subscriptions.ProviderStatusPastDue
	case "paused":
		return subscriptions.ProviderStatusPaused
	case "canceled", "unpaid", "incomplete_expired":
		return subscriptions.ProviderStatusCanceled
	case "incomplete":
		return subscriptions.ProviderStatusIncomplete
	default:
		return strings.TrimSpace(*s)
	}
}

// statusRank orders subscriptions when a customer has several; lower wins.
func statusRank(status string) int {
	switch status {
	case subscriptions.ProviderStatusActive, subscriptions.ProviderStatusTrialing:
		return 0
	case subscriptions.ProviderStatusPastDue, subscriptions.ProviderStatusPaused:
		return 1
	case subscriptions.ProviderStatusIncomplete:
		return 2
	case subscriptions.ProviderStatusCanceled:
		return 3
	}
	return 4
}
