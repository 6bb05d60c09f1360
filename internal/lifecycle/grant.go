package lifecycle

import (
	"context"
	"errors"
	"time"

	"subscription-engine/internal/domain/subscriptions"
)

type GrantRequest struct {
	AccountID uint
	ExpiresAt *time.Time // nil grants permanently
	Note      *string
	GrantedBy uint
}

// Grant gives an account pro access independent of billing. When a paid
// subscription is live, tier and status stay with billing and only the
// grant fields are written.
func (s *Service) Grant(ctx context.Context, req GrantRequest) (sub *subscriptions.UserSubscription, err error) {
	defer func() { s.observe(ctx, "admin_grant", req.AccountID, err) }()

	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, ErrGrantExpiryInPast
	}

	current, err := s.Records.Get(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	patch := subscriptions.Patch{
		subscriptions.FieldAdminGrantedPro:     true,
		subscriptions.FieldAdminGrantedBy:      req.GrantedBy,
		subscriptions.FieldAdminGrantExpiresAt: nil,
		subscriptions.FieldAdminGrantNote:      s.optionalText(req.Note),
	}
	if req.ExpiresAt != nil {
		patch[subscriptions.FieldAdminGrantExpiresAt] = req.ExpiresAt.UTC()
	}
	if !current.HasLivePaidSubscription() {
		patch[subscriptions.FieldTier] = subscriptions.TierPro
		patch[subscriptions.FieldStatus] = subscriptions.StatusActive
	}

	return s.Records.Update(ctx, subscriptions.OwnerAdminGrant, req.AccountID, patch)
}

// Revoke clears the admin grant. The account returns to free/active only
// when it has no billing subscription; a paying customer keeps the tier and
// status billing gave it.
func (s *Service) Revoke(ctx context.Context, accountID uint) (sub *subscriptions.UserSubscription, err error) {
	defer func() { s.observe(ctx, "admin_revoke", accountID, err) }()

	current, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !current.HasBillingSubscription() {
		sub, err = s.Records.Update(ctx, subscriptions.OwnerAdminGrant, accountID,
			withDowngrade(clearedGrantPatch()), subscriptions.NoBillingSubscription())
		if !errors.Is(err, ErrConflict) {
			return sub, err
		}
		// a subscription appeared since the read; leave tier and status to billing
	}
	return s.Records.Update(ctx, subscriptions.OwnerAdminGrant, accountID, clearedGrantPatch())
}

func clearedGrantPatch() subscriptions.Patch {
	return subscriptions.Patch{
		subscriptions.FieldAdminGrantedPro:     false,
		subscriptions.FieldAdminGrantedBy:      nil,
		subscriptions.FieldAdminGrantExpiresAt: nil,
		subscriptions.FieldAdminGrantNote:      nil,
	}
}

func withDowngrade(p subscriptions.Patch) subscriptions.Patch {
	p[subscriptions.FieldTier] = subscriptions.TierFree
	p[subscriptions.FieldStatus] = subscriptions.StatusActive
	return p
}
