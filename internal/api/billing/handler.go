package billing

import (
	"context"
	"time"

	"subscription-engine/internal/domain/subscriptions"
	"subscription-engine/internal/lifecycle"
)

// Service is the part of the lifecycle service the billing endpoints use.
type Service interface {
	Current(ctx context.Context, accountID uint) (lifecycle.View, error)
	Provision(ctx context.Context, accountID uint) (*subscriptions.UserSubscription, bool, error)
	Sync(ctx context.Context, accountID uint) (lifecycle.SyncResult, error)

	CreateCheckoutSession(ctx context.Context, accountID uint, interval string) (string, error)
	CreatePortalSession(ctx context.Context, accountID uint) (string, error)

	Pause(ctx context.Context, accountID uint, resumeAt time.Time) (*subscriptions.UserSubscription, error)
	Resume(ctx context.Context, accountID uint) (*subscriptions.UserSubscription, error)

	CancelOffer(ctx context.Context, accountID uint) (lifecycle.Offer, error)
	AcceptCancelOffer(ctx context.Context, accountID uint) (*subscriptions.UserSubscription, error)
	CancelSubscription(ctx context.Context, accountID uint, reason *string) (*subscriptions.UserSubscription, error)
	CancelTrial(ctx context.Context, accountID uint, reason *string) (*subscriptions.UserSubscription, error)
	AdvanceCancelFlow(ctx context.Context, accountID uint, flow lifecycle.CancelFlow, action lifecycle.CancelAction, reason string) (lifecycle.CancelFlow, error)

	ResetToFreeTier(ctx context.Context, accountID uint) (*subscriptions.UserSubscription, error)
}

// Handler serves the authenticated /subscription endpoints.
type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}
