package lifecycle

import (
	"context"
	"time"

	"subscription-engine/internal/domain/subscriptions"
)

// Provision creates the account's record at signup and starts the configured
// trial. Calling it again returns the existing record untouched.
func (s *Service) Provision(ctx context.Context, accountID uint) (sub *subscriptions.UserSubscription, created bool, err error) {
	defer func() {
		if created || err != nil {
			s.observe(ctx, "provision", accountID, err)
		}
	}()

	cfg, err := s.Configs.Get(ctx)
	if err != nil {
		return nil, false, err
	}

	rec := subscriptions.NewFree(accountID)
	if cfg.TrialDays > 0 {
		now := s.now()
		ends := now.Add(time.Duration(cfg.TrialDays) * 24 * time.Hour)
		rec.Tier = subscriptions.TierPro
		rec.Status = subscriptions.StatusTrialing
		rec.TrialStartedAt = &now
		rec.TrialEndsAt = &ends
	}
	return s.Records.Create(ctx, rec)
}

// CancelTrial ends a trial immediately and returns the account to free.
// Accounts that have a billing subscription go through CancelSubscription.
func (s *Service) CancelTrial(ctx context.Context, accountID uint, reason *string) (sub *subscriptions.UserSubscription, err error) {
	defer func() { s.observe(ctx, "cancel_trial", accountID, err) }()

	current, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.cancelTrial(ctx, current, reason)
}

func (s *Service) cancelTrial(ctx context.Context, current *subscriptions.UserSubscription, reason *string) (*subscriptions.UserSubscription, error) {
	if current.HasBillingSubscription() {
		return nil, ErrHasBillingSubscription
	}
	if !current.IsTrialing() {
		return nil, ErrNotTrialing
	}

	updated, err := s.Records.Update(ctx, subscriptions.OwnerTrial, current.AccountID,
		subscriptions.Patch{
			subscriptions.FieldTier:           subscriptions.TierFree,
			subscriptions.FieldStatus:         subscriptions.StatusActive,
			subscriptions.FieldTrialStartedAt: nil,
			subscriptions.FieldTrialEndsAt:    nil,
		},
		subscriptions.StatusIs(subscriptions.StatusTrialing),
		subscriptions.NoBillingSubscription(),
	)
	if err != nil {
		return nil, err
	}

	s.saveFeedback(ctx, current.AccountID, subscriptions.FeedbackTrial, reason)
	return updated, nil
}
