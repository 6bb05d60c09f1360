package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subscription-engine/internal/domain/subscriptions"
	"subscription-engine/internal/logger"
)

type SyncResult struct {
	Synced bool                 `json:"synced"`
	Tier   subscriptions.Tier   `json:"tier"`
	Status subscriptions.Status `json:"status"`
}

// Sync pulls the provider's view of the account and applies it. Provider
// failures are reported as Synced=false, not as errors: the webhook will
// finish the job and a completed payment must not look failed.
func (s *Service) Sync(ctx context.Context, accountID uint) (SyncResult, error) {
	current, err := s.Records.Get(ctx, accountID)
	if err != nil {
		s.observe(ctx, "sync", accountID, err)
		return SyncResult{}, err
	}
	unsynced := SyncResult{Tier: current.Tier, Status: current.Status}

	var email, knownID string
	if current.StripeCustomerID != nil {
		knownID = *current.StripeCustomerID
	}
	if knownID == "" && s.Accounts != nil {
		acc, err := s.Accounts.Get(ctx, accountID)
		if err != nil {
			s.observe(ctx, "sync", accountID, err)
			return unsynced, nil
		}
		email = acc.Email
	}

	customerID, err := s.Provider.EnsureCustomer(ctx, accountID, email, knownID)
	if err != nil {
		s.observe(ctx, "sync", accountID, providerError("ensure_customer", err))
		return unsynced, nil
	}
	snap, err := s.Provider.CurrentSubscription(ctx, customerID)
	if err != nil {
		s.observe(ctx, "sync", accountID, providerError("current_subscription", err))
		return unsynced, nil
	}
	snap.AccountID = accountID
	snap.CustomerID = customerID

	updated, err := s.ApplySnapshot(ctx, snap)
	if err == nil {
		updated, err = s.clearExpiredGrant(ctx, updated)
	}
	s.observe(ctx, "sync", accountID, err)
	if err != nil {
		return unsynced, nil
	}
	return SyncResult{Synced: true, Tier: updated.Tier, Status: updated.Status}, nil
}

// ApplySnapshot writes the billing fields derived from snap. It is the one
// mapping shared by Sync and the webhook. Applying the same snapshot twice
// leaves the record unchanged, and a snapshot observed before the last
// applied one is discarded, so late or redelivered webhooks cannot roll the
// record back.
func (s *Service) ApplySnapshot(ctx context.Context, snap subscriptions.ProviderSnapshot) (*subscriptions.UserSubscription, error) {
	current, err := s.locate(ctx, snap)
	if err != nil {
		return nil, err
	}

	observed := snap.ObservedAt
	if observed.IsZero() {
		observed = s.now().Truncate(time.Second)
	}
	observed = observed.UTC()
	if current.StripeSyncedAt != nil && observed.Before(*current.StripeSyncedAt) {
		s.log.InfoContext(ctx, "stale billing snapshot discarded",
			logger.AccountID(current.AccountID),
			slog.String("subscription_id", snap.SubscriptionID),
			slog.Time("observed_at", observed),
			slog.Time("synced_at", *current.StripeSyncedAt))
		return current, nil
	}

	patch := s.snapshotPatch(*current, snap)
	if patch.ChangesNothing(*current) {
		return current, nil
	}
	patch[subscriptions.FieldStripeSyncedAt] = observed
	return s.Records.Update(ctx, subscriptions.OwnerBillingSync, current.AccountID, patch)
}

func (s *Service) locate(ctx context.Context, snap subscriptions.ProviderSnapshot) (*subscriptions.UserSubscription, error) {
	if snap.AccountID != 0 {
		return s.Records.Get(ctx, snap.AccountID)
	}
	if snap.SubscriptionID != "" {
		sub, err := s.Records.FindBySubscriptionID(ctx, snap.SubscriptionID)
		if !errors.Is(err, ErrNotFound) {
			return sub, err
		}
	}
	return s.Records.FindByCustomerID(ctx, snap.CustomerID)
}

func (s *Service) snapshotPatch(current subscriptions.UserSubscription, snap subscriptions.ProviderSnapshot) subscriptions.Patch {
	patch := subscriptions.Patch{}
	if snap.CustomerID != "" {
		patch[subscriptions.FieldStripeCustomerID] = snap.CustomerID
	}

	tracked := current.HasBillingSubscription() && *current.StripeSubscriptionID == snap.SubscriptionID
	switch {
	case snap.Live():
		paused := snap.Paused || snap.Status == subscriptions.ProviderStatusPaused
		patch[subscriptions.FieldTier] = subscriptions.TierPro
		patch[subscriptions.FieldStatus] = subscriptions.StatusActive
		patch[subscriptions.FieldStripeSubscriptionID] = snap.SubscriptionID
		patch[subscriptions.FieldStripePriceID] = optionalString(snap.PriceID)
		patch[subscriptions.FieldStripeCurrentPeriodEnd] = optionalTime(snap.CurrentPeriodEnd)
		patch[subscriptions.FieldCancelAtPeriodEnd] = snap.CancelAtPeriodEnd
		patch[subscriptions.FieldTrialStartedAt] = nil
		patch[subscriptions.FieldTrialEndsAt] = nil
		patch[subscriptions.FieldPausedAt] = nil
		patch[subscriptions.FieldPauseResumesAt] = nil
		if paused {
			pausedAt := s.now().UTC()
			if current.PausedAt != nil {
				pausedAt = *current.PausedAt
			}
			patch[subscriptions.FieldStatus] = subscriptions.StatusPaused
			patch[subscriptions.FieldPausedAt] = pausedAt
			patch[subscriptions.FieldPauseResumesAt] = optionalTime(snap.PauseResumesAt)
		}

	case snap.Ended() && tracked,
		snap.Status == subscriptions.ProviderStatusNone && current.HasBillingSubscription():
		patch[subscriptions.FieldTier] = subscriptions.TierFree
		patch[subscriptions.FieldStatus] = subscriptions.StatusCancelled
		patch[subscriptions.FieldStripeSubscriptionID] = nil
		patch[subscriptions.FieldStripePriceID] = nil
		patch[subscriptions.FieldStripeCurrentPeriodEnd] = nil
		patch[subscriptions.FieldCancelAtPeriodEnd] = false
		patch[subscriptions.FieldPausedAt] = nil
		patch[subscriptions.FieldPauseResumesAt] = nil
	}
	return patch
}

// clearExpiredGrant removes a grant whose expiry has passed. If the grant was
// all that held pro, the account returns to free.
func (s *Service) clearExpiredGrant(ctx context.Context, sub *subscriptions.UserSubscription) (*subscriptions.UserSubscription, error) {
	if !sub.AdminGrantedPro || sub.AdminGrantActive(s.now()) {
		return sub, nil
	}

	heldByGrant := !sub.HasBillingSubscription() &&
		sub.Tier == subscriptions.TierPro && sub.Status == subscriptions.StatusActive
	if heldByGrant {
		updated, err := s.Records.Update(ctx, subscriptions.OwnerAdminGrant, sub.AccountID,
			withDowngrade(clearedGrantPatch()),
			subscriptions.NoBillingSubscription(), subscriptions.StatusIs(subscriptions.StatusActive))
		if !errors.Is(err, ErrConflict) {
			if err == nil {
				s.log.InfoContext(ctx, "expired admin grant cleared", logger.AccountID(sub.AccountID))
			}
			return updated, err
		}
	}
	return s.Records.Update(ctx, subscriptions.OwnerAdminGrant, sub.AccountID, clearedGrantPatch())
}

func optionalString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func optionalTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}
