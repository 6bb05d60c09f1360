package lifecycle_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"subscription-engine/internal/domain/access"
	"subscription-engine/internal/domain/accounts"
	"subscription-engine/internal/domain/subscriptions"
	"subscription-engine/internal/lifecycle"
	"subscription-engine/internal/metrics"
	"subscription-engine/internal/repository"
	"subscription-engine/internal/testutil"
)

var now = time.Date(2026, time.April, 14, 10, 0, 0, 0, time.UTC)

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func ptr[T any](v T) *T { return &v }

var entitlement = access.NewResolver()

// memRecords is an in-memory Record Manager with the same ownership and
// guard semantics as the gorm repository.
type memRecords struct {
	mu      sync.Mutex
	rows    map[uint]subscriptions.UserSubscription
	updates int
}

func newMemRecords(subs ...subscriptions.UserSubscription) *memRecords {
	r := &memRecords{rows: map[uint]subscriptions.UserSubscription{}}
	for _, s := range subs {
		r.rows[s.AccountID] = s
	}
	return r
}

func (r *memRecords) Get(_ context.Context, id uint) (*subscriptions.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", repository.ErrNotFound, id)
	}
	return &s, nil
}

func (r *memRecords) Create(_ context.Context, sub *subscriptions.UserSubscription) (*subscriptions.UserSubscription, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.rows[sub.AccountID]; ok {
		return &s, false, nil
	}
	r.rows[sub.AccountID] = *sub
	out := *sub
	return &out, true, nil
}

func (r *memRecords) Update(_ context.Context, owner subscriptions.Owner, id uint, patch subscriptions.Patch, guards ...subscriptions.Guard) (*subscriptions.UserSubscription, error) {
	if err := patch.Check(owner); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", repository.ErrNotFound, id)
	}
	for _, g := range guards {
		if !g.Matches(s) {
			return nil, fmt.Errorf("%w: account %d", repository.ErrConflict, id)
		}
	}
	patch.ApplyTo(&s)
	r.rows[id] = s
	r.updates++
	out := s
	return &out, nil
}

func (r *memRecords) List(context.Context) ([]subscriptions.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]subscriptions.UserSubscription, 0, len(r.rows))
	for _, s := range r.rows {
		out = append(out, s)
	}
	return out, nil
}

func (r *memRecords) FindByCustomerID(_ context.Context, id string) (*subscriptions.UserSubscription, error) {
	return r.find(func(s subscriptions.UserSubscription) bool {
		return s.StripeCustomerID != nil && *s.StripeCustomerID == id
	})
}

func (r *memRecords) FindBySubscriptionID(_ context.Context, id string) (*subscriptions.UserSubscription, error) {
	return r.find(func(s subscriptions.UserSubscription) bool {
		return s.StripeSubscriptionID != nil && *s.StripeSubscriptionID == id
	})
}

func (r *memRecords) find(match func(subscriptions.UserSubscription) bool) (*subscriptions.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if match(s) {
			out := s
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRecords) mustGet(t *testing.T, id uint) subscriptions.UserSubscription {
	t.Helper()
	s, err := r.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get %d: %v", id, err)
	}
	return *s
}

type memConfigs struct {
	cfg subscriptions.SubscriptionConfig
}

func (c *memConfigs) Get(context.Context) (subscriptions.SubscriptionConfig, error) { return c.cfg, nil }

func (c *memConfigs) Update(_ context.Context, u subscriptions.ConfigUpdate, by uint) (subscriptions.SubscriptionConfig, error) {
	merged := u.Apply(c.cfg)
	if err := merged.Validate(); err != nil {
		return subscriptions.SubscriptionConfig{}, err
	}
	merged.UpdatedBy = &by
	c.cfg = merged
	return merged, nil
}

type memAccounts map[uint]accounts.Account

func (m memAccounts) Get(_ context.Context, id uint) (*accounts.Account, error) {
	a, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

type memFeedback struct {
	rows []subscriptions.CancellationFeedback
}

func (f *memFeedback) Create(_ context.Context, fb *subscriptions.CancellationFeedback) error {
	f.rows = append(f.rows, *fb)
	return nil
}

type memRecipes map[uint]int64

func (m memRecipes) CountByAccount(_ context.Context, id uint) (int64, error) { return m[id], nil }

type fixture struct {
	svc      *lifecycle.Service
	records  *memRecords
	configs  *memConfigs
	feedback *memFeedback
	recipes  memRecipes
	provider *testutil.Provider
}

func newFixture(t *testing.T, subs ...subscriptions.UserSubscription) *fixture {
	t.Helper()
	return newFixtureWith(t, nil, subs...)
}

func newFixtureWith(t *testing.T, opts []lifecycle.Option, subs ...subscriptions.UserSubscription) *fixture {
	t.Helper()
	f := &fixture{
		records:  newMemRecords(subs...),
		configs:  &memConfigs{cfg: subscriptions.DefaultConfig()},
		feedback: &memFeedback{},
		recipes:  memRecipes{},
		provider: &testutil.Provider{},
	}
	opts = append([]lifecycle.Option{
		lifecycle.WithClock(func() time.Time { return now }),
		lifecycle.WithAppURL("https://app.example.com/"),
		lifecycle.WithLogger(testutil.DiscardLogger()),
		lifecycle.WithMetrics(metrics.New(prometheus.NewRegistry())),
	}, opts...)
	f.svc = lifecycle.New(lifecycle.Deps{
		Records:  f.records,
		Configs:  f.configs,
		Accounts: memAccounts{1: {ID: 1, Email: "cook@example.com"}},
		Feedback: f.feedback,
		Recipes:  f.recipes,
		Provider: f.provider,
	}, opts...)
	t.Cleanup(func() { f.provider.AssertExpectations(t) })
	return f
}

// paidActive is a billed pro account in good standing.
func paidActive(id uint) subscriptions.UserSubscription {
	return subscriptions.UserSubscription{
		AccountID:              id,
		Tier:                   subscriptions.TierPro,
		Status:                 subscriptions.StatusActive,
		StripeCustomerID:       ptr("cus_1"),
		StripeSubscriptionID:   ptr("sub_1"),
		StripePriceID:          ptr("price_month"),
		StripeCurrentPeriodEnd: ptr(now.Add(days(20))),
	}
}

func trialing(id uint) subscriptions.UserSubscription {
	return subscriptions.UserSubscription{
		AccountID:      id,
		Tier:           subscriptions.TierPro,
		Status:         subscriptions.StatusTrialing,
		TrialStartedAt: ptr(now.Add(-days(2))),
		TrialEndsAt:    ptr(now.Add(days(5))),
	}
}
