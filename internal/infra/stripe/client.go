package stripe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v75"
	portalsession "github.com/stripe/stripe-go/v75/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/coupon"
	"github.com/stripe/stripe-go/v75/customer"
	"github.com/stripe/stripe-go/v75/subscription"

	"subscription-engine/internal/domain/subscriptions"
	"subscription-engine/internal/lifecycle"
)

var ErrWebhookNotConfigured = errors.New("stripe webhook secret not configured")

// Client is the Stripe implementation of the lifecycle billing provider.
type Client struct {
	webhookSecret string
	appEnv        string
}

// NewClient sets the process-wide Stripe key, the way every stripe-go
// package-level call expects it.
func NewClient(secretKey, webhookSecret, appEnv string) *Client {
	stripe.Key = secretKey
	return &Client{webhookSecret: webhookSecret, appEnv: appEnv}
}

var _ lifecycle.Provider = (*Client)(nil)

// EnsureCustomer returns the Stripe customer for accountID, creating it at most
// once. A known id is trusted unless Stripe reports it deleted.
func (c *Client) EnsureCustomer(ctx context.Context, accountID uint, email, knownID string) (string, error) {
	if knownID != "" {
		params := &stripe.CustomerParams{}
		params.Context = ctx
		cus, err := customer.Get(knownID, params)
		if err == nil && !cus.Deleted {
			return cus.ID, nil
		}
		if err != nil && !isNotFound(err) {
			return "", wrap("get customer", err)
		}
	}

	search := &stripe.CustomerSearchParams{}
	search.Context = ctx
	search.Query = fmt.Sprintf("metadata['%s']:'%d'", MetadataAccountID, accountID)
	it := customer.Search(search)
	for it.Next() {
		if cus := it.Customer(); cus != nil && !cus.Deleted {
			return cus.ID, nil
		}
	}
	if err := it.Err(); err != nil {
		return "", wrap("search customer", err)
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			MetadataAccountID: fmt.Sprint(accountID),
			"app_env":         c.appEnv,
		},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.Context = ctx
	// search is eventually consistent; the key stops a quick retry from
	// creating a second customer
	params.SetIdempotencyKey(fmt.Sprintf("customer-%d", accountID))
	cus, err := customer.New(params)
	if err != nil {
		return "", wrap("create customer", err)
	}
	return cus.ID, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req lifecycle.CheckoutRequest) (string, error) {
	accountID := fmt.Sprint(req.AccountID)
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(req.CustomerID),

		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},

		ClientReferenceID: stripe.String(accountID),

		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				MetadataAccountID: accountID,
				"interval":        string(req.Interval),
			},
		},
	}
	params.AddMetadata(MetadataAccountID, accountID)
	params.Context = ctx

	s, err := checkoutsession.New(params)
	if err != nil {
		return "", wrap("create checkout session", err)
	}
	return s.URL, nil
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	portal, err := portalsession.New(params)
	if err != nil {
		return "", wrap("create portal session", err)
	}
	return portal.URL, nil
}

// CurrentSubscription reads every subscription of the customer and returns
// the one that decides entitlement. No subscription yields status none.
func (c *Client) CurrentSubscription(ctx context.Context, customerID string) (subscriptions.ProviderSnapshot, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx
	observed := observedNow()

	var subs []*stripe.Subscription
	it := subscription.List(params)
	for it.Next() {
		subs = append(subs, it.Subscription())
	}
	if err := it.Err(); err != nil {
		return subscriptions.ProviderSnapshot{}, wrap("list subscriptions", err)
	}

	snap := SnapshotFromSubscription(pickSubscription(subs))
	snap.CustomerID = customerID
	snap.ObservedAt = observed
	return snap, nil
}

// Subscription fetches one subscription by id.
func (c *Client) Subscription(ctx context.Context, subscriptionID string) (subscriptions.ProviderSnapshot, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	observed := observedNow()
	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return subscriptions.ProviderSnapshot{}, wrap("get subscription", err)
	}
	snap := SnapshotFromSubscription(sub)
	snap.ObservedAt = observed
	return snap, nil
}

func (c *Client) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	if _, err := subscription.Update(subscriptionID, params); err != nil {
		return wrap("cancel at period end", err)
	}
	return nil
}

// Pause stops invoicing until resumesAt. Stripe resumes collection on that
// date without further calls.
func (c *Client) Pause(ctx context.Context, subscriptionID string, resumesAt time.Time) error {
	params := &stripe.SubscriptionParams{
		PauseCollection: &stripe.SubscriptionPauseCollectionParams{
			Behavior:  stripe.String("void"),
			ResumesAt: stripe.Int64(resumesAt.Unix()),
		},
	}
	params.Context = ctx
	if _, err := subscription.Update(subscriptionID, params); err != nil {
		return wrap("pause subscription", err)
	}
	return nil
}

func (c *Client) Resume(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{}
	params.AddExtra("pause_collection", "")
	params.Context = ctx
	if _, err := subscription.Update(subscriptionID, params); err != nil {
		return wrap("resume subscription", err)
	}
	return nil
}

// ApplyDiscount creates a repeating percent-off coupon and attaches it to the
// subscription.
func (c *Client) ApplyDiscount(ctx context.Context, subscriptionID string, percentOff, months int) error {
	cp := &stripe.CouponParams{
		PercentOff:       stripe.Float64(float64(percentOff)),
		Duration:         stripe.String(string(stripe.CouponDurationRepeating)),
		DurationInMonths: stripe.Int64(int64(months)),
		Name:             stripe.String(fmt.Sprintf("Retention %d%% x %dmo", percentOff, months)),
	}
	cp.Context = ctx
	cp.SetIdempotencyKey("retention-" + subscriptionID)
	cpn, err := coupon.New(cp)
	if err != nil {
		return wrap("create coupon", err)
	}

	params := &stripe.SubscriptionParams{Coupon: stripe.String(cpn.ID)}
	params.Context = ctx
	if _, err := subscription.Update(subscriptionID, params); err != nil {
		return wrap("apply coupon", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var serr *stripe.Error
	return errors.As(err, &serr) && serr.HTTPStatusCode == 404
}

// wrap keeps Stripe's human-readable message instead of the raw JSON body.
func wrap(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Msg != "" {
		return fmt.Errorf("stripe: %s: %s", op, serr.Msg)
	}
	return fmt.Errorf("stripe: %s: %w", op, err)
}

// observedNow stamps API reads at whole seconds, the resolution of event
// created times, so an event from the same second is not taken as older.
func observedNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
