package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"subscription-engine/internal/api/respond"
)

// GetSubscription returns the caller's record and resolved access.
func (h *Handler) GetSubscription(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	view, err := h.svc.Current(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Provision creates the caller's record at signup. Repeat calls return the
// existing record.
func (h *Handler) Provision(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	sub, created, err := h.svc.Provision(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"subscription": sub, "created": created})
}

// Sync reconciles with Stripe after the checkout redirect. Stripe failures
// come back as synced=false with 200.
func (h *Handler) Sync(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	res, err := h.svc.Sync(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ResetToFree puts the caller's own record back to free/active. A paid
// Stripe subscription, if any, is picked up again by the next sync.
func (h *Handler) ResetToFree(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	sub, err := h.svc.ResetToFreeTier(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}
