package billing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"subscription-engine/internal/api/respond"
)

func (h *Handler) Pause(c *gin.Context) {
	var body struct {
		ResumeAt string `json:"resume_at"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}
	resumeAt, ok := parseResumeDate(body.ResumeAt)
	if !ok {
		respond.BadRequest(c, "resume_at must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		return
	}

	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	sub, err := h.svc.Pause(c.Request.Context(), userID, resumeAt)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

func (h *Handler) Resume(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	sub, err := h.svc.Resume(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

// parseResumeDate accepts a full timestamp or a calendar date, read as
// midnight UTC.
func parseResumeDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
