package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subscription-engine/internal/domain/accounts"
	"subscription-engine/internal/domain/subscriptions"
	stripeinfra "subscription-engine/internal/infra/stripe"
	"subscription-engine/internal/metrics"
	"subscription-engine/internal/testutil"
)

const secret = "routes-secret"

func bearer(t *testing.T, userID uint) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + s
}

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stack := testutil.NewStack(t, time.Date(2026, time.April, 14, 10, 0, 0, 0, time.UTC))
	stack.Account(t, 1, accounts.RoleUser)
	stack.Account(t, 2, accounts.RoleAdmin)
	stack.Subscription(t, *subscriptions.NewFree(1))

	reg := prometheus.NewRegistry()
	r := gin.New()
	RegisterRoutes(r, Deps{
		DB:        stack.DB,
		Service:   stack.Service,
		Stripe:    stripeinfra.NewClient("sk_test_unused", "whsec_test", "test"),
		JWTSecret: secret,
		Log:       testutil.DiscardLogger(),
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
	})

	call := func(method, path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/subscription", "").Code)
	assert.Equal(t, http.StatusBadRequest, call(http.MethodPost, "/webhook", "").Code)

	w := call(http.MethodGet, "/subscription", bearer(t, 1))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusForbidden, call(http.MethodGet, "/admin/subscriptions", bearer(t, 1)).Code)
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/admin/subscriptions", bearer(t, 2)).Code)

	w = call(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `path="/subscription"`))
}
