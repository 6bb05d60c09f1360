package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subscription-engine/internal/domain/subscriptions"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(id, typ, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"data":{"object":%s}}`, id, typ, object))
}

const subscriptionObject = `{
	"id": "sub_1",
	"object": "subscription",
	"customer": "cus_1",
	"status": "active",
	"cancel_at_period_end": false,
	"current_period_end": 1777593600,
	"metadata": {"account_id": "7"},
	"items": {"object": "list", "data": [{"id": "si_1", "object": "subscription_item", "price": {"id": "price_month", "object": "price"}}]}
}`

func TestParseWebhook_SubscriptionUpdated(t *testing.T) {
	payload := eventPayload("evt_1", "customer.subscription.updated", subscriptionObject)

	ev, err := ParseWebhook(payload, sign(payload, testSecret), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.True(t, ev.Handled())
	require.NotNil(t, ev.Snapshot)
	assert.Equal(t, uint(7), ev.Snapshot.AccountID)
	assert.Equal(t, "cus_1", ev.Snapshot.CustomerID)
	assert.Equal(t, "price_month", ev.Snapshot.PriceID)
	assert.Equal(t, subscriptions.ProviderStatusActive, ev.Snapshot.Status)
}

func TestParseWebhook_DeletedIsAlwaysCanceled(t *testing.T) {
	payload := eventPayload("evt_2", "customer.subscription.deleted", subscriptionObject)

	ev, err := ParseWebhook(payload, sign(payload, testSecret), testSecret)
	require.NoError(t, err)
	require.NotNil(t, ev.Snapshot)
	assert.Equal(t, subscriptions.ProviderStatusCanceled, ev.Snapshot.Status)
}

func TestParseWebhook_ObservedAtFromEventCreated(t *testing.T) {
	created := time.Date(2026, time.April, 14, 9, 30, 0, 0, time.UTC)
	payload := []byte(fmt.Sprintf(`{"id":"evt_6","object":"event","type":"customer.subscription.updated","created":%d,"data":{"object":%s}}`,
		created.Unix(), subscriptionObject))

	ev, err := ParseWebhook(payload, sign(payload, testSecret), testSecret)
	require.NoError(t, err)
	require.NotNil(t, ev.Snapshot)
	assert.True(t, ev.Snapshot.ObservedAt.Equal(created))

	payload = eventPayload("evt_7", "customer.subscription.updated", subscriptionObject)
	ev, err = ParseWebhook(payload, sign(payload, testSecret), testSecret)
	require.NoError(t, err)
	assert.True(t, ev.Snapshot.ObservedAt.IsZero())
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	session := `{"id":"cs_1","object":"checkout.session","client_reference_id":"9","customer":"cus_9","subscription":"sub_9","metadata":{}}`
	payload := eventPayload("evt_3", "checkout.session.completed", session)

	ev, err := ParseWebhook(payload, sign(payload, testSecret), testSecret)
	require.NoError(t, err)
	assert.Nil(t, ev.Snapshot)
	require.NotNil(t, ev.Checkout)
	assert.Equal(t, CheckoutCompleted{AccountID: 9, CustomerID: "cus_9", SubscriptionID: "sub_9"}, *ev.Checkout)
}

func TestParseWebhook_IgnoredType(t *testing.T) {
	payload := eventPayload("evt_4", "invoice.paid", `{"id":"in_1","object":"invoice"}`)

	ev, err := ParseWebhook(payload, sign(payload, testSecret), testSecret)
	require.NoError(t, err)
	assert.False(t, ev.Handled())
	assert.Equal(t, "invoice.paid", ev.Type)
}

func TestParseWebhook_Rejections(t *testing.T) {
	payload := eventPayload("evt_5", "customer.subscription.updated", subscriptionObject)

	_, err := ParseWebhook(payload, sign(payload, "whsec_other"), testSecret)
	assert.ErrorIs(t, err, ErrSignature)

	_, err = ParseWebhook(payload, "", testSecret)
	assert.ErrorIs(t, err, ErrSignature)

	_, err = ParseWebhook(payload, sign(payload, testSecret), "")
	assert.ErrorIs(t, err, ErrWebhookNotConfigured)
}
