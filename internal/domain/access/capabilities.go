package access

import (
	"time"

	"subscription-engine/internal/domain/subscriptions"
)

const (
	CapUnlimitedRecipes = "unlimited_recipes"
	CapManageBilling    = "manage_billing"
	CapPause            = "pause"
	CapResume           = "resume"
	CapCancel           = "cancel"
	CapCancelTrial      = "cancel_trial"
	CapUpgrade          = "upgrade"
)

// CapabilitiesFor lists the subscription actions the UI may offer. Every
// action still re-checks its own preconditions server-side.
func CapabilitiesFor(d Decision, s subscriptions.UserSubscription, now time.Time) []string {
	caps := []string{}
	if d.HasPro {
		caps = append(caps, CapUnlimitedRecipes)
	}

	if s.HasBillingSubscription() {
		caps = append(caps, CapManageBilling)
		switch {
		case s.IsPaused():
			caps = append(caps, CapResume)
		case s.Status == subscriptions.StatusActive && s.Tier == subscriptions.TierPro && !s.CancelAtPeriodEnd:
			caps = append(caps, CapPause, CapCancel)
		}
		return caps
	}

	if s.IsTrialing() && s.TrialEndsAt.After(now) {
		caps = append(caps, CapCancelTrial)
	}
	if d.Reason != ReasonAdminGrant {
		caps = append(caps, CapUpgrade)
	}
	return caps
}
