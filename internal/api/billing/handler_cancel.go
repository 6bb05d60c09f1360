package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"subscription-engine/internal/api/respond"
	"subscription-engine/internal/lifecycle"
)

type reasonBody struct {
	Reason *string `json:"reason"`
}

// bindReason accepts an empty body; the reason is optional.
func bindReason(c *gin.Context) (*string, bool) {
	var body reasonBody
	if c.Request.ContentLength == 0 {
		return nil, true
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return nil, false
	}
	return body.Reason, true
}

func (h *Handler) GetCancelOffer(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	offer, err := h.svc.CancelOffer(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (h *Handler) AcceptCancelOffer(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	sub, err := h.svc.AcceptCancelOffer(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

// CancelSubscription ends a trial immediately or a paid subscription at the
// end of the current period.
func (h *Handler) CancelSubscription(c *gin.Context) {
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	sub, err := h.svc.CancelSubscription(c.Request.Context(), userID, reason)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

func (h *Handler) CancelTrial(c *gin.Context) {
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	sub, err := h.svc.CancelTrial(c.Request.Context(), userID, reason)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

// AdvanceCancelFlow takes the client-held flow and one action. A missing
// flow starts a new one.
func (h *Handler) AdvanceCancelFlow(c *gin.Context) {
	var body struct {
		Flow   *lifecycle.CancelFlow  `json:"flow"`
		Action lifecycle.CancelAction `json:"action" binding:"required,oneof=submit_reason accept_offer decline_offer confirm abort"`
		Reason string                 `json:"reason" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Missing or invalid action")
		return
	}
	flow := lifecycle.NewCancelFlow()
	if body.Flow != nil {
		flow = *body.Flow
	}

	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	next, err := h.svc.AdvanceCancelFlow(c.Request.Context(), userID, flow, body.Action, body.Reason)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, next)
}
