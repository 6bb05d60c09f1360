package access

import (
	"time"

	"subscription-engine/internal/domain/subscriptions"
)

const day = 24 * time.Hour

// Resolver derives entitlement from a subscription record. It performs no
// I/O and trusts the record as of its last sync.
type Resolver struct {
	rules []Rule
}

// NewResolver builds a resolver over rules. With no rules it uses DefaultRules.
func NewResolver(rules ...Rule) *Resolver {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Resolver{rules: rules}
}

func (r *Resolver) Resolve(s subscriptions.UserSubscription, now time.Time) Decision {
	for _, rule := range r.rules {
		if rule.Grants(s, now) {
			return Decision{HasPro: true, Reason: rule.Name}
		}
	}
	return Decision{Reason: ReasonNone}
}

func (r *Resolver) HasProAccess(s subscriptions.UserSubscription, now time.Time) bool {
	return r.Resolve(s, now).HasPro
}

// CanSaveRecipe allows pro accounts unconditionally and free accounts while
// they are under the configured limit.
func (r *Resolver) CanSaveRecipe(s subscriptions.UserSubscription, cfg subscriptions.SubscriptionConfig, currentCount int64, now time.Time) bool {
	if r.HasProAccess(s, now) {
		return true
	}
	return currentCount < int64(cfg.FreeRecipeLimit)
}

// TrialDaysRemaining returns whole days left in the trial, rounded up, or nil
// when the record is not trialing.
func TrialDaysRemaining(s subscriptions.UserSubscription, now time.Time) *int {
	if !s.IsTrialing() {
		return nil
	}
	left := s.TrialEndsAt.Sub(now)
	days := 0
	if left > 0 {
		days = int((left + day - 1) / day)
	}
	return &days
}
