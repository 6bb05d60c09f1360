package access

import (
	"time"

	"subscription-engine/internal/domain/subscriptions"
)

type Policy struct {
	State              AccessState `json:"state"`
	HasProAccess       bool        `json:"has_pro_access"`
	Reason             Reason      `json:"reason"`
	TrialDaysRemaining *int        `json:"trial_days_remaining"`
	// nil when saves are unlimited
	RecipeLimit  *int     `json:"recipe_limit"`
	Capabilities []string `json:"capabilities"`
}

// Policy resolves s into the view returned to clients.
func (r *Resolver) Policy(now time.Time, s subscriptions.UserSubscription, cfg subscriptions.SubscriptionConfig) Policy {
	d := r.Resolve(s, now)

	var limit *int
	if !d.HasPro {
		l := cfg.FreeRecipeLimit
		limit = &l
	}

	return Policy{
		State:              d.State(),
		HasProAccess:       d.HasPro,
		Reason:             d.Reason,
		TrialDaysRemaining: TrialDaysRemaining(s, now),
		RecipeLimit:        limit,
		Capabilities:       CapabilitiesFor(d, s, now),
	}
}
