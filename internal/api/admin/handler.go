package admin

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"subscription-engine/internal/api/respond"
	"subscription-engine/internal/domain/subscriptions"
	"subscription-engine/internal/lifecycle"
)

// Service is the part of the lifecycle service the admin dashboard uses.
type Service interface {
	ListSubscriptions(ctx context.Context) ([]lifecycle.View, error)
	Grant(ctx context.Context, req lifecycle.GrantRequest) (*subscriptions.UserSubscription, error)
	Revoke(ctx context.Context, accountID uint) (*subscriptions.UserSubscription, error)
	ResetToFreeTier(ctx context.Context, accountID uint) (*subscriptions.UserSubscription, error)
	Config(ctx context.Context) (subscriptions.SubscriptionConfig, error)
	UpdateConfig(ctx context.Context, u subscriptions.ConfigUpdate, adminID uint) (subscriptions.SubscriptionConfig, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListSubscriptions(c *gin.Context) {
	views, err := h.svc.ListSubscriptions(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GrantPro gives the account pro access outside billing. A missing
// expires_at grants it permanently.
func (h *Handler) GrantPro(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}
	var body struct {
		ExpiresAt *time.Time `json:"expires_at"`
		Note      *string    `json:"note"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respond.BadRequest(c, "expires_at must be an RFC 3339 timestamp")
			return
		}
	}
	adminID, ok := respond.UserID(c)
	if !ok {
		return
	}

	sub, err := h.svc.Grant(c.Request.Context(), lifecycle.GrantRequest{
		AccountID: accountID,
		ExpiresAt: body.ExpiresAt,
		Note:      body.Note,
		GrantedBy: adminID,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

func (h *Handler) RevokePro(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	sub, err := h.svc.Revoke(c.Request.Context(), accountID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

// ResetToFree is a support action for records stuck in a bad state. It
// does not touch Stripe.
func (h *Handler) ResetToFree(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	sub, err := h.svc.ResetToFreeTier(c.Request.Context(), accountID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.svc.Config(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateConfig applies only the fields present in the body.
func (h *Handler) UpdateConfig(c *gin.Context) {
	var body subscriptions.ConfigUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}
	adminID, ok := respond.UserID(c)
	if !ok {
		return
	}

	cfg, err := h.svc.UpdateConfig(c.Request.Context(), body, adminID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func accountParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("account_id"), 10, 64)
	if err != nil || id == 0 {
		respond.BadRequest(c, "Invalid account id")
		return 0, false
	}
	return uint(id), true
}
