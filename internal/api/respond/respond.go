// Package respond holds the JSON envelope and error mapping shared by the
// API handlers.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"subscription-engine/internal/lifecycle"
	"subscription-engine/internal/logger"
)

var ErrUnauthenticated = errors.New("user not identified")

// UserID returns the authenticated account id set by the auth middleware.
// It writes the 401 itself when there is none.
func UserID(c *gin.Context) (uint, bool) {
	id := c.GetUint("user_id")
	if id == 0 {
		Error(c, ErrUnauthenticated)
		return 0, false
	}
	return id, true
}

// Status maps a service error onto its HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, lifecycle.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrConflict), errors.Is(err, lifecycle.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, lifecycle.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, lifecycle.ErrProvider):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Error writes {success:false, message}. Internal failures are logged and
// answered with a generic message.
func Error(c *gin.Context, err error) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			logger.Error(err), slog.String("path", c.FullPath()))
		msg = "Internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// BadRequest answers a body that could not be bound.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}
