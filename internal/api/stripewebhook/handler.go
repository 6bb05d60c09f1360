package stripewebhooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"subscription-engine/internal/domain/billing"
	"subscription-engine/internal/domain/subscriptions"
	stripeinfra "subscription-engine/internal/infra/stripe"
	"subscription-engine/internal/lifecycle"
	"subscription-engine/internal/logger"
)

const maxBodyBytes = 65536

type EventSource interface {
	ParseWebhook(payload []byte, signature string) (stripeinfra.Event, error)
	Resolve(ctx context.Context, ev stripeinfra.Event) (*subscriptions.ProviderSnapshot, error)
}

type SnapshotApplier interface {
	ApplySnapshot(ctx context.Context, snap subscriptions.ProviderSnapshot) (*subscriptions.UserSubscription, error)
}

// EventLog remembers processed event ids so redeliveries are acknowledged
// without being applied twice.
type EventLog interface {
	Seen(ctx context.Context, stripeEventID string) (bool, error)
	Record(ctx context.Context, ev *billing.WebhookEvent) error
}

type Handler struct {
	source EventSource
	apply  SnapshotApplier
	events EventLog
	log    *slog.Logger
}

func NewHandler(source EventSource, apply SnapshotApplier, events EventLog, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{source: source, apply: apply, events: events, log: log.With(logger.Component("stripe_webhook"))}
}

// StripeWebhook verifies and applies one delivery. Any 5xx makes Stripe
// retry, so only failures worth retrying return one.
func (h *Handler) StripeWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	ev, err := h.source.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, stripeinfra.ErrWebhookNotConfigured) {
		h.log.ErrorContext(ctx, "webhook received but STRIPE_WEBHOOK_SECRET is not set")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}
	if err != nil {
		h.log.WarnContext(ctx, "rejected webhook", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	log := h.log.With(slog.String("event_id", ev.ID), logger.EventType(ev.Type))

	seen, err := h.events.Seen(ctx, ev.ID)
	if err != nil {
		log.ErrorContext(ctx, "event log lookup failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Event log unavailable"})
		return
	}
	if seen {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	record := &billing.WebhookEvent{StripeEventID: ev.ID, Type: ev.Type}
	if !ev.Handled() {
		h.record(ctx, log, record)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	snap, err := h.source.Resolve(ctx, ev)
	if err != nil {
		log.ErrorContext(ctx, "could not resolve event", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if snap.SubscriptionID != "" {
		record.StripeSubscriptionID = &snap.SubscriptionID
	}

	sub, err := h.apply.ApplySnapshot(ctx, *snap)
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		// no local account for this customer; retrying will not help
		log.WarnContext(ctx, "webhook for unknown account",
			slog.String("customer_id", snap.CustomerID), slog.String("subscription_id", snap.SubscriptionID))
		h.record(ctx, log, record)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	case err != nil:
		log.ErrorContext(ctx, "could not apply snapshot", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	record.AccountID = &sub.AccountID
	h.record(ctx, log, record)
	log.InfoContext(ctx, "webhook applied", logger.AccountID(sub.AccountID),
		slog.String("tier", string(sub.Tier)), slog.String("status", string(sub.Status)))
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// record failures are logged only: the snapshot is already applied and
// applying it again is harmless.
func (h *Handler) record(ctx context.Context, log *slog.Logger, ev *billing.WebhookEvent) {
	ev.ProcessedAt = time.Now().UTC()
	if err := h.events.Record(ctx, ev); err != nil {
		log.WarnContext(ctx, "could not record webhook event", logger.Error(err))
	}
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
