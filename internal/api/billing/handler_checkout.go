package billing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"subscription-engine/internal/api/respond"
	"subscription-engine/internal/lifecycle"
)

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body struct {
		Interval string `json:"interval" binding:"required,oneof=weekly monthly yearly"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Missing or invalid interval")
		return
	}

	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	url, err := h.svc.CreateCheckoutSession(c.Request.Context(), userID, body.Interval)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) CreateBillingPortal(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	url, err := h.svc.CreatePortalSession(c.Request.Context(), userID)
	if errors.Is(err, lifecycle.ErrNoBillingSubscription) {
		// the front end keys its "subscribe first" prompt on this code
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "no_subscription", "message": err.Error()})
		return
	}
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
