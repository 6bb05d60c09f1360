package stripewebhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subscription-engine/internal/domain/billing"
	"subscription-engine/internal/domain/subscriptions"
	stripeinfra "subscription-engine/internal/infra/stripe"
	"subscription-engine/internal/testutil"
)

const secret = "whsec_test"

var now = time.Date(2026, time.April, 14, 10, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func signed(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func subscriptionEvent(eventID, typ, status string) []byte {
	return subscriptionEventAt(eventID, typ, status, false, time.Time{})
}

// subscriptionEventAt builds a subscription event; a zero created omits the
// event timestamp.
func subscriptionEventAt(eventID, typ, status string, cancelAtPeriodEnd bool, created time.Time) []byte {
	createdField := ""
	if !created.IsZero() {
		createdField = fmt.Sprintf(`"created": %d,`, created.Unix())
	}
	return []byte(fmt.Sprintf(`{
		"id": %q, "object": "event", "type": %q, %s
		"data": {"object": {
			"id": "sub_1", "object": "subscription", "customer": "cus_1", "status": %q,
			"cancel_at_period_end": %t, "current_period_end": 1777593600,
			"metadata": {"account_id": "1"},
			"items": {"object": "list", "data": [{"id": "si_1", "object": "subscription_item", "price": {"id": "price_month", "object": "price"}}]}
		}}
	}`, eventID, typ, createdField, status, cancelAtPeriodEnd))
}

type env struct {
	stack  *testutil.Stack
	router *gin.Engine
}

func newEnv(t *testing.T, webhookSecret string) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	stack := testutil.NewStack(t, now)
	client := stripeinfra.NewClient("sk_test_unused", webhookSecret, "test")
	h := NewHandler(client, stack.Service, stack.Events, testutil.DiscardLogger())

	r := gin.New()
	r.POST("/webhook", h.StripeWebhook)
	return &env{stack: stack, router: r}
}

func (e *env) post(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestWebhook_AppliesSubscriptionAndDedupes(t *testing.T) {
	e := newEnv(t, secret)
	ctx := context.Background()
	trial := *subscriptions.NewFree(1)
	trial.Tier = subscriptions.TierPro
	trial.Status = subscriptions.StatusTrialing
	trial.TrialEndsAt = ptr(now.Add(3 * 24 * time.Hour))
	e.stack.Subscription(t, trial)

	payload := subscriptionEvent("evt_1", "customer.subscription.created", "active")
	w := e.post(payload, signed(payload))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "received")

	sub, err := e.stack.Records.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusActive, sub.Status)
	assert.Equal(t, "sub_1", *sub.StripeSubscriptionID)
	assert.Equal(t, "cus_1", *sub.StripeCustomerID)
	assert.Nil(t, sub.TrialEndsAt)

	var ev billing.WebhookEvent
	require.NoError(t, e.stack.DB.Where("stripe_event_id = ?", "evt_1").First(&ev).Error)
	require.NotNil(t, ev.AccountID)
	assert.Equal(t, uint(1), *ev.AccountID)

	w = e.post(payload, signed(payload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "duplicate")
}

func TestWebhook_DeletedEndsSubscription(t *testing.T) {
	e := newEnv(t, secret)
	e.stack.Subscription(t, subscriptions.UserSubscription{
		AccountID:            1,
		Tier:                 subscriptions.TierPro,
		Status:               subscriptions.StatusActive,
		StripeCustomerID:     ptr("cus_1"),
		StripeSubscriptionID: ptr("sub_1"),
		CancelAtPeriodEnd:    true,
	})

	payload := subscriptionEvent("evt_2", "customer.subscription.deleted", "canceled")
	w := e.post(payload, signed(payload))
	require.Equal(t, http.StatusOK, w.Code)

	sub, err := e.stack.Records.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.TierFree, sub.Tier)
	assert.Equal(t, subscriptions.StatusCancelled, sub.Status)
	assert.Nil(t, sub.StripeSubscriptionID)
	assert.False(t, sub.CancelAtPeriodEnd)
}

func TestWebhook_OutOfOrderDeliveryDoesNotRollBack(t *testing.T) {
	paid := subscriptions.UserSubscription{
		AccountID:            1,
		Tier:                 subscriptions.TierPro,
		Status:               subscriptions.StatusActive,
		StripeCustomerID:     ptr("cus_1"),
		StripeSubscriptionID: ptr("sub_1"),
		StripePriceID:        ptr("price_month"),
	}

	t.Run("deleted then older updated", func(t *testing.T) {
		e := newEnv(t, secret)
		e.stack.Subscription(t, paid)

		deleted := subscriptionEventAt("evt_del", "customer.subscription.deleted", "canceled", false, now.Add(-time.Hour))
		require.Equal(t, http.StatusOK, e.post(deleted, signed(deleted)).Code)
		updated := subscriptionEventAt("evt_upd", "customer.subscription.updated", "active", false, now.Add(-2*time.Hour))
		require.Equal(t, http.StatusOK, e.post(updated, signed(updated)).Code)

		sub, err := e.stack.Records.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, subscriptions.TierFree, sub.Tier)
		assert.Equal(t, subscriptions.StatusCancelled, sub.Status)
		assert.Nil(t, sub.StripeSubscriptionID)
	})

	t.Run("cancel request then older update", func(t *testing.T) {
		e := newEnv(t, secret)
		e.stack.Subscription(t, paid)

		cancel := subscriptionEventAt("evt_c1", "customer.subscription.updated", "active", true, now.Add(-time.Hour))
		require.Equal(t, http.StatusOK, e.post(cancel, signed(cancel)).Code)
		stale := subscriptionEventAt("evt_c0", "customer.subscription.updated", "active", false, now.Add(-2*time.Hour))
		require.Equal(t, http.StatusOK, e.post(stale, signed(stale)).Code)

		sub, err := e.stack.Records.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, sub.CancelAtPeriodEnd)
		require.NotNil(t, sub.StripeSyncedAt)
		assert.True(t, sub.StripeSyncedAt.Equal(now.Add(-time.Hour)))
	})
}

func TestWebhook_UnknownAccountIsAcknowledged(t *testing.T) {
	e := newEnv(t, secret)

	payload := subscriptionEvent("evt_3", "customer.subscription.updated", "active")
	w := e.post(payload, signed(payload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
}

func TestWebhook_IgnoredType(t *testing.T) {
	e := newEnv(t, secret)

	payload := []byte(`{"id":"evt_4","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`)
	w := e.post(payload, signed(payload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")

	seen, err := e.stack.Events.Seen(context.Background(), "evt_4")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestWebhook_BadSignature(t *testing.T) {
	e := newEnv(t, secret)

	payload := subscriptionEvent("evt_5", "customer.subscription.updated", "active")
	w := e.post(payload, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_SecretNotConfigured(t *testing.T) {
	e := newEnv(t, "")

	payload := subscriptionEvent("evt_6", "customer.subscription.updated", "active")
	w := e.post(payload, signed(payload))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
