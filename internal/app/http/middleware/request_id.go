package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"subscription-engine/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates the caller's request id or mints one, and puts it on
// the request context so every log line of the request carries it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
