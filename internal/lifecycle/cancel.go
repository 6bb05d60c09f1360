package lifecycle

import (
	"context"
	"time"

	"subscription-engine/internal/domain/subscriptions"
)

type Offer struct {
	Available       bool   `json:"offer_available"`
	DiscountPercent int    `json:"discount_percent,omitempty"`
	DurationMonths  int    `json:"duration_months,omitempty"`
	Message         string `json:"message,omitempty"`
}

// offerEligible decides whether a retention discount may be shown or
// applied. Trials, pending cancellations and admin-granted accounts are not
// offered one, and each account gets at most one.
func offerEligible(sub subscriptions.UserSubscription, cfg subscriptions.SubscriptionConfig, now time.Time) bool {
	return cfg.OfferConfigured() &&
		sub.HasLivePaidSubscription() &&
		sub.Status == subscriptions.StatusActive &&
		!sub.CancelAtPeriodEnd &&
		!sub.AdminGrantActive(now) &&
		sub.RetentionOfferUsedAt == nil
}

func (s *Service) CancelOffer(ctx context.Context, accountID uint) (Offer, error) {
	sub, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return Offer{}, err
	}
	cfg, err := s.Configs.Get(ctx)
	if err != nil {
		return Offer{}, err
	}
	if !offerEligible(*sub, cfg, s.now()) {
		return Offer{}, nil
	}
	return Offer{
		Available:       true,
		DiscountPercent: cfg.CancelOfferDiscountPercent,
		DurationMonths:  cfg.CancelOfferDurationMonths,
		Message:         cfg.RenderOfferMessage(),
	}, nil
}

// AcceptCancelOffer applies the retention discount and keeps the
// subscription. Eligibility is checked again against the current record,
// not the one the offer was shown for.
func (s *Service) AcceptCancelOffer(ctx context.Context, accountID uint) (sub *subscriptions.UserSubscription, err error) {
	defer func() { s.observe(ctx, "accept_offer", accountID, err) }()

	current, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Configs.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !offerEligible(*current, cfg, s.now()) {
		return nil, ErrOfferUnavailable
	}

	subID := *current.StripeSubscriptionID
	if err := s.Provider.ApplyDiscount(ctx, subID, cfg.CancelOfferDiscountPercent, cfg.CancelOfferDurationMonths); err != nil {
		return nil, providerError("apply_discount", err)
	}

	return s.Records.Update(ctx, subscriptions.OwnerCancellation, accountID,
		subscriptions.Patch{subscriptions.FieldRetentionOfferUsedAt: s.now().UTC()},
		subscriptions.SubscriptionIDIs(subID),
		subscriptions.OfferUnused(),
	)
}

// CancelSubscription routes on the presence of a billing subscription id: a
// billed account is cancelled at period end and keeps pro until then, a bare
// trial reverts to free immediately.
func (s *Service) CancelSubscription(ctx context.Context, accountID uint, reason *string) (sub *subscriptions.UserSubscription, err error) {
	defer func() { s.observe(ctx, "cancel", accountID, err) }()

	current, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !current.HasBillingSubscription() {
		if current.IsTrialing() {
			return s.cancelTrial(ctx, current, reason)
		}
		return nil, ErrNothingToCancel
	}
	if current.CancelAtPeriodEnd {
		return nil, ErrPendingCancellation
	}

	subID := *current.StripeSubscriptionID
	if err := s.Provider.CancelAtPeriodEnd(ctx, subID); err != nil {
		return nil, providerError("cancel_at_period_end", err)
	}

	sub, err = s.Records.Update(ctx, subscriptions.OwnerCancellation, accountID,
		subscriptions.Patch{subscriptions.FieldCancelAtPeriodEnd: true},
		subscriptions.SubscriptionIDIs(subID),
	)
	if err != nil {
		return nil, err
	}
	s.saveFeedback(ctx, accountID, subscriptions.FeedbackSubscription, reason)
	return sub, nil
}
