package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"

	"subscription-engine/internal/domain/subscriptions"
)

var (
	ErrSignature    = errors.New("stripe signature verification failed")
	ErrEventPayload = errors.New("malformed stripe event payload")
)

// Event is a verified webhook delivery reduced to what reconciliation needs.
type Event struct {
	ID   string
	Type string

	// Snapshot is set for subscription events.
	Snapshot *subscriptions.ProviderSnapshot

	// Checkout is set for checkout.session.completed, which carries ids only.
	Checkout *CheckoutCompleted
}

type CheckoutCompleted struct {
	AccountID      uint
	CustomerID     string
	SubscriptionID string
}

// Handled reports whether the event type feeds reconciliation.
func (e Event) Handled() bool {
	return e.Snapshot != nil || e.Checkout != nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// Unknown event types are returned with neither Snapshot nor Checkout set.
func ParseWebhook(payload []byte, signature, secret string) (Event, error) {
	if secret == "" {
		return Event{}, ErrWebhookNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch out.Type {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted",
		"customer.subscription.paused",
		"customer.subscription.resumed":
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrEventPayload, err)
		}
		snap := SnapshotFromSubscription(&sub)
		if out.Type == "customer.subscription.deleted" {
			snap.Status = subscriptions.ProviderStatusCanceled
		}
		// the payload is the state at event creation, which may be older
		// than what is already stored when deliveries arrive out of order
		if ev.Created > 0 {
			snap.ObservedAt = time.Unix(ev.Created, 0).UTC()
		}
		out.Snapshot = &snap

	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrEventPayload, err)
		}
		if session.Subscription == nil || session.Subscription.ID == "" {
			// one-off payments do not touch subscriptions
			return out, nil
		}
		cc := &CheckoutCompleted{
			AccountID:      accountIDFromMetadata(session.Metadata),
			SubscriptionID: session.Subscription.ID,
		}
		if cc.AccountID == 0 {
			cc.AccountID = parseAccountID(session.ClientReferenceID)
		}
		if session.Customer != nil {
			cc.CustomerID = session.Customer.ID
		}
		out.Checkout = cc
	}
	return out, nil
}

// ParseWebhook verifies with the client's configured secret.
func (c *Client) ParseWebhook(payload []byte, signature string) (Event, error) {
	return ParseWebhook(payload, signature, c.webhookSecret)
}

// Resolve turns a handled event into the snapshot to apply. Checkout
// completions are resolved by fetching the subscription they created, so
// they carry the fetch time rather than the event time.
func (c *Client) Resolve(ctx context.Context, ev Event) (*subscriptions.ProviderSnapshot, error) {
	if ev.Snapshot != nil {
		return ev.Snapshot, nil
	}
	if ev.Checkout == nil {
		return nil, nil
	}

	snap, err := c.Subscription(ctx, ev.Checkout.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if snap.AccountID == 0 {
		snap.AccountID = ev.Checkout.AccountID
	}
	if snap.CustomerID == "" {
		snap.CustomerID = ev.Checkout.CustomerID
	}
	return &snap, nil
}
