package lifecycle

import (
	"context"

	"subscription-engine/internal/domain/subscriptions"
)

// ResetToFreeTier clears every derived field and leaves the account
// free/active. It is a support remediation for records stuck in an
// inconsistent state, not a cancellation path: nothing is sent to the
// provider. The retention offer marker survives so a reset cannot be used
// to earn a second discount.
func (s *Service) ResetToFreeTier(ctx context.Context, accountID uint) (sub *subscriptions.UserSubscription, err error) {
	defer func() { s.observe(ctx, "reset", accountID, err) }()

	return s.Records.Update(ctx, subscriptions.OwnerReset, accountID, subscriptions.Patch{
		subscriptions.FieldTier:                   subscriptions.TierFree,
		subscriptions.FieldStatus:                 subscriptions.StatusActive,
		subscriptions.FieldTrialStartedAt:         nil,
		subscriptions.FieldTrialEndsAt:            nil,
		subscriptions.FieldStripeCustomerID:       nil,
		subscriptions.FieldStripeSubscriptionID:   nil,
		subscriptions.FieldStripePriceID:          nil,
		subscriptions.FieldStripeCurrentPeriodEnd: nil,
		subscriptions.FieldCancelAtPeriodEnd:      false,
		subscriptions.FieldAdminGrantedPro:        false,
		subscriptions.FieldAdminGrantedBy:         nil,
		subscriptions.FieldAdminGrantExpiresAt:    nil,
		subscriptions.FieldAdminGrantNote:         nil,
		subscriptions.FieldPausedAt:               nil,
		subscriptions.FieldPauseResumesAt:         nil,
	})
}
