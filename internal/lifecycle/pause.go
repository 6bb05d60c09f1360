package lifecycle

import (
	"context"
	"fmt"
	"time"

	"subscription-engine/internal/domain/subscriptions"
	"subscription-engine/internal/logger"
)

// Pause suspends billing until resumeAt. The provider is paused first; the
// local record changes only after it accepted.
func (s *Service) Pause(ctx context.Context, accountID uint, resumeAt time.Time) (sub *subscriptions.UserSubscription, err error) {
	defer func() { s.observe(ctx, "pause", accountID, err) }()

	current, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPausable(current, resumeAt); err != nil {
		return nil, err
	}

	subID := *current.StripeSubscriptionID
	if err := s.Provider.Pause(ctx, subID, resumeAt); err != nil {
		return nil, providerError("pause", err)
	}

	sub, err = s.Records.Update(ctx, subscriptions.OwnerPause, accountID,
		subscriptions.Patch{
			subscriptions.FieldStatus:         subscriptions.StatusPaused,
			subscriptions.FieldPausedAt:       s.now().UTC(),
			subscriptions.FieldPauseResumesAt: resumeAt.UTC(),
		},
		subscriptions.StatusIs(subscriptions.StatusActive),
		subscriptions.SubscriptionIDIs(subID),
		subscriptions.CancelPending(false),
	)
	if err != nil {
		s.log.WarnContext(ctx, "provider paused but local record was not updated; awaiting webhook",
			logger.AccountID(accountID), logger.Error(err))
	}
	return sub, err
}

func (s *Service) checkPausable(sub *subscriptions.UserSubscription, resumeAt time.Time) error {
	switch {
	case sub.IsPaused():
		return ErrAlreadyPaused
	case !sub.HasBillingSubscription(), sub.IsTrialing(), sub.Tier != subscriptions.TierPro, sub.Status != subscriptions.StatusActive:
		return ErrNotPausable
	case sub.CancelAtPeriodEnd:
		return ErrPendingCancellation
	}

	now := s.now()
	if !resumeAt.After(now) {
		return ErrResumeDateInPast
	}
	if resumeAt.After(now.Add(s.maxPause)) {
		return fmt.Errorf("%w (at most %d days)", ErrResumeDateTooFar, int(s.maxPause/(24*time.Hour)))
	}
	return nil
}

// Resume reinstates billing on a paused subscription.
func (s *Service) Resume(ctx context.Context, accountID uint) (sub *subscriptions.UserSubscription, err error) {
	defer func() { s.observe(ctx, "resume", accountID, err) }()

	current, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !current.IsPaused() {
		return nil, ErrNotPaused
	}
	if !current.HasBillingSubscription() {
		return nil, ErrNoBillingSubscription
	}

	if err := s.Provider.Resume(ctx, *current.StripeSubscriptionID); err != nil {
		return nil, providerError("resume", err)
	}

	return s.Records.Update(ctx, subscriptions.OwnerPause, accountID, resumedPatch(),
		subscriptions.StatusIs(subscriptions.StatusPaused))
}
