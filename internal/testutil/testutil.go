// Package testutil builds in-memory fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"subscription-engine/database"
	"subscription-engine/internal/domain/accounts"
	"subscription-engine/internal/domain/subscriptions"
	"subscription-engine/internal/lifecycle"
	"subscription-engine/internal/metrics"
	"subscription-engine/internal/repository"
)

// NewDB opens a private in-memory SQLite database with the full schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Provider is a testify mock of the billing provider.
type Provider struct {
	mock.Mock
}

var _ lifecycle.Provider = (*Provider)(nil)

func (m *Provider) EnsureCustomer(ctx context.Context, accountID uint, email, knownID string) (string, error) {
	args := m.Called(ctx, accountID, email, knownID)
	return args.String(0), args.Error(1)
}

func (m *Provider) CreateCheckoutSession(ctx context.Context, req lifecycle.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *Provider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	args := m.Called(ctx, customerID, returnURL)
	return args.String(0), args.Error(1)
}

func (m *Provider) CurrentSubscription(ctx context.Context, customerID string) (subscriptions.ProviderSnapshot, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(subscriptions.ProviderSnapshot), args.Error(1)
}

func (m *Provider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	return m.Called(ctx, subscriptionID).Error(0)
}

func (m *Provider) Pause(ctx context.Context, subscriptionID string, resumesAt time.Time) error {
	return m.Called(ctx, subscriptionID, resumesAt).Error(0)
}

func (m *Provider) Resume(ctx context.Context, subscriptionID string) error {
	return m.Called(ctx, subscriptionID).Error(0)
}

func (m *Provider) ApplyDiscount(ctx context.Context, subscriptionID string, percentOff, months int) error {
	return m.Called(ctx, subscriptionID, percentOff, months).Error(0)
}

// Stack is a lifecycle service over real gorm repositories and a mock provider.
type Stack struct {
	DB       *gorm.DB
	Service  *lifecycle.Service
	Provider *Provider
	Records  *repository.SubscriptionRepository
	Configs  *repository.ConfigRepository
	Recipes  *repository.RecipeRepository
	Accounts *repository.AccountRepository
	Events   *repository.WebhookEventRepository
}

// NewStack wires a Stack whose clock is fixed at now.
func NewStack(t *testing.T, now time.Time) *Stack {
	t.Helper()
	db := NewDB(t)
	s := &Stack{
		DB:       db,
		Provider: &Provider{},
		Records:  repository.NewSubscriptionRepository(db),
		Configs:  repository.NewConfigRepository(db),
		Recipes:  repository.NewRecipeRepository(db),
		Accounts: repository.NewAccountRepository(db),
		Events:   repository.NewWebhookEventRepository(db),
	}
	s.Service = lifecycle.New(lifecycle.Deps{
		Records:  s.Records,
		Configs:  s.Configs,
		Accounts: s.Accounts,
		Feedback: repository.NewFeedbackRepository(db),
		Recipes:  s.Recipes,
		Provider: s.Provider,
	},
		lifecycle.WithClock(func() time.Time { return now }),
		lifecycle.WithAppURL("https://app.example.com"),
		lifecycle.WithLogger(DiscardLogger()),
		lifecycle.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
	t.Cleanup(func() { s.Provider.AssertExpectations(t) })
	return s
}

// Account inserts an account row.
func (s *Stack) Account(t *testing.T, id uint, role string) accounts.Account {
	t.Helper()
	a := accounts.Account{ID: id, Email: fmt.Sprintf("user%d@example.com", id), Role: role}
	require.NoError(t, s.DB.Create(&a).Error)
	return a
}

// Subscription inserts sub as-is.
func (s *Stack) Subscription(t *testing.T, sub subscriptions.UserSubscription) {
	t.Helper()
	require.NoError(t, s.DB.Create(&sub).Error)
}
