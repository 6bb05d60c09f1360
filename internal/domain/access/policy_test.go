package access_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subscription-engine/internal/domain/access"
	"subscription-engine/internal/domain/subscriptions"
)

func TestPolicy_Free(t *testing.T) {
	t.Parallel()

	cfg := subscriptions.DefaultConfig()
	p := entitlement.Policy(now, *subscriptions.NewFree(3), cfg)

	assert.Equal(t, access.AccessFree, p.State)
	assert.False(t, p.HasProAccess)
	assert.Equal(t, access.ReasonNone, p.Reason)
	require.NotNil(t, p.RecipeLimit)
	assert.Equal(t, cfg.FreeRecipeLimit, *p.RecipeLimit)
	assert.Nil(t, p.TrialDaysRemaining)
	assert.Equal(t, []string{access.CapUpgrade}, p.Capabilities)
}

func TestPolicy_Trial(t *testing.T) {
	t.Parallel()

	sub := subscriptions.UserSubscription{
		Tier: subscriptions.TierPro, Status: subscriptions.StatusTrialing, TrialEndsAt: at(36 * time.Hour),
	}
	p := entitlement.Policy(now, sub, subscriptions.DefaultConfig())

	assert.Equal(t, access.AccessPro, p.State)
	assert.Nil(t, p.RecipeLimit)
	require.NotNil(t, p.TrialDaysRemaining)
	assert.Equal(t, 2, *p.TrialDaysRemaining)
	assert.ElementsMatch(t, []string{access.CapUnlimitedRecipes, access.CapCancelTrial, access.CapUpgrade}, p.Capabilities)
}

func TestCapabilitiesFor_Billing(t *testing.T) {
	t.Parallel()

	active := subscriptions.UserSubscription{
		Tier: subscriptions.TierPro, Status: subscriptions.StatusActive,
		StripeSubscriptionID: str("sub_1"), StripeCurrentPeriodEnd: at(time.Hour),
	}
	d := entitlement.Resolve(active, now)
	assert.ElementsMatch(t,
		[]string{access.CapUnlimitedRecipes, access.CapManageBilling, access.CapPause, access.CapCancel},
		access.CapabilitiesFor(d, active, now))

	pending := active
	pending.CancelAtPeriodEnd = true
	assert.ElementsMatch(t,
		[]string{access.CapUnlimitedRecipes, access.CapManageBilling},
		access.CapabilitiesFor(entitlement.Resolve(pending, now), pending, now))

	paused := active
	paused.Status = subscriptions.StatusPaused
	assert.ElementsMatch(t,
		[]string{access.CapManageBilling, access.CapResume},
		access.CapabilitiesFor(entitlement.Resolve(paused, now), paused, now))
}
