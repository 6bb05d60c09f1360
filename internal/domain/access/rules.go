package access

import (
	"time"

	"subscription-engine/internal/domain/subscriptions"
)

// Rule is one source of pro access. Rules are evaluated in order and the
// first one that grants wins; they are independent of each other, so the
// order only decides which Reason is reported.
type Rule struct {
	Name   Reason
	Grants func(s subscriptions.UserSubscription, now time.Time) bool
}

// DefaultRules is the production rule list.
func DefaultRules() []Rule {
	return []Rule{
		{Name: ReasonAdminGrant, Grants: adminGrant},
		{Name: ReasonPaid, Grants: paidActive},
		{Name: ReasonTrial, Grants: activeTrial},
	}
}

func adminGrant(s subscriptions.UserSubscription, now time.Time) bool {
	return s.AdminGrantActive(now)
}

// A pro/active record without a period end was set by hand and has no
// billing boundary to honor.
func paidActive(s subscriptions.UserSubscription, now time.Time) bool {
	if s.Tier != subscriptions.TierPro || s.Status != subscriptions.StatusActive {
		return false
	}
	if s.StripeCurrentPeriodEnd == nil {
		return true
	}
	return s.StripeCurrentPeriodEnd.After(now)
}

func activeTrial(s subscriptions.UserSubscription, now time.Time) bool {
	if s.Tier != subscriptions.TierPro || !s.IsTrialing() {
		return false
	}
	return s.TrialEndsAt.After(now)
}
