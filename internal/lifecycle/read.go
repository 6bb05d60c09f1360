package lifecycle

import (
	"context"
	"errors"

	"subscription-engine/internal/domain/access"
	"subscription-engine/internal/domain/subscriptions"
)

// View is a subscription record with the entitlement resolved at read time.
type View struct {
	Subscription subscriptions.UserSubscription `json:"subscription"`
	Policy       access.Policy                  `json:"policy"`
}

// Current returns the account's record and resolved access. A pause whose
// resume date has passed is closed first, since the provider resumes billing
// on that date by itself.
func (s *Service) Current(ctx context.Context, accountID uint) (View, error) {
	sub, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return View{}, err
	}

	if sub, err = s.reconcileExpiredPause(ctx, sub); err != nil {
		return View{}, err
	}

	cfg, err := s.Configs.Get(ctx)
	if err != nil {
		return View{}, err
	}
	return View{Subscription: *sub, Policy: s.resolver.Policy(s.now(), *sub, cfg)}, nil
}

// ListSubscriptions returns every record with its resolved access.
func (s *Service) ListSubscriptions(ctx context.Context) ([]View, error) {
	subs, err := s.Records.List(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Configs.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]View, 0, len(subs))
	for _, sub := range subs {
		out = append(out, View{Subscription: sub, Policy: s.resolver.Policy(now, sub, cfg)})
	}
	return out, nil
}

func (s *Service) reconcileExpiredPause(ctx context.Context, sub *subscriptions.UserSubscription) (*subscriptions.UserSubscription, error) {
	if !sub.IsPaused() || sub.PauseResumesAt == nil || sub.PauseResumesAt.After(s.now()) {
		return sub, nil
	}

	updated, err := s.Records.Update(ctx, subscriptions.OwnerPause, sub.AccountID, resumedPatch(),
		subscriptions.StatusIs(subscriptions.StatusPaused))
	if errors.Is(err, ErrConflict) {
		// someone else already moved it out of paused
		return s.Records.Get(ctx, sub.AccountID)
	}
	if err != nil {
		return nil, err
	}
	s.observe(ctx, "pause_expired", sub.AccountID, nil)
	return updated, nil
}

func resumedPatch() subscriptions.Patch {
	return subscriptions.Patch{
		subscriptions.FieldStatus:         subscriptions.StatusActive,
		subscriptions.FieldPausedAt:       nil,
		subscriptions.FieldPauseResumesAt: nil,
	}
}
