package lifecycle

import (
	"context"

	"subscription-engine/internal/domain/subscriptions"
)

// CreateCheckoutSession returns a hosted checkout URL for interval. The
// provider customer is created once and remembered on the record.
func (s *Service) CreateCheckoutSession(ctx context.Context, accountID uint, interval string) (url string, err error) {
	defer func() { s.observe(ctx, "checkout", accountID, err) }()

	iv, ok := subscriptions.ParseInterval(interval)
	if !ok {
		return "", ErrInvalidInterval
	}
	cfg, err := s.Configs.Get(ctx)
	if err != nil {
		return "", err
	}
	priceID, ok := cfg.PriceIDFor(iv)
	if !ok {
		return "", ErrPriceNotConfigured
	}

	current, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	if current.HasLivePaidSubscription() {
		return "", ErrAlreadySubscribed
	}

	customerID, err := s.ensureCustomer(ctx, current)
	if err != nil {
		return "", err
	}

	url, err = s.Provider.CreateCheckoutSession(ctx, CheckoutRequest{
		AccountID:  accountID,
		CustomerID: customerID,
		PriceID:    priceID,
		Interval:   iv,
		SuccessURL: s.appURL + "/account?subscription=success",
		CancelURL:  s.appURL + "/account?subscription=cancelled",
	})
	if err != nil {
		return "", providerError("checkout", err)
	}
	return url, nil
}

// CreatePortalSession returns the hosted billing management URL.
func (s *Service) CreatePortalSession(ctx context.Context, accountID uint) (url string, err error) {
	defer func() { s.observe(ctx, "portal", accountID, err) }()

	current, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	if !current.HasBillingSubscription() || current.StripeCustomerID == nil || *current.StripeCustomerID == "" {
		return "", ErrNoBillingSubscription
	}

	url, err = s.Provider.CreatePortalSession(ctx, *current.StripeCustomerID, s.appURL+"/account")
	if err != nil {
		return "", providerError("portal", err)
	}
	return url, nil
}

func (s *Service) ensureCustomer(ctx context.Context, sub *subscriptions.UserSubscription) (string, error) {
	if sub.StripeCustomerID != nil && *sub.StripeCustomerID != "" {
		return *sub.StripeCustomerID, nil
	}

	var email string
	if s.Accounts != nil {
		acc, err := s.Accounts.Get(ctx, sub.AccountID)
		if err != nil {
			return "", err
		}
		email = acc.Email
	}

	customerID, err := s.Provider.EnsureCustomer(ctx, sub.AccountID, email, "")
	if err != nil {
		return "", providerError("ensure_customer", err)
	}
	if _, err := s.Records.Update(ctx, subscriptions.OwnerBillingSync, sub.AccountID,
		subscriptions.Patch{subscriptions.FieldStripeCustomerID: customerID}); err != nil {
		return "", err
	}
	return customerID, nil
}
