package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"subscription-engine/internal/api/respond"
	"subscription-engine/internal/lifecycle"
)

type RecipeGate interface {
	CanSaveRecipe(ctx context.Context, accountID uint) (lifecycle.RecipeQuota, error)
}

// RequireRecipeQuota blocks recipe saves once a free account reaches its
// limit. Pro accounts always pass.
func RequireRecipeQuota(gate RecipeGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}

		q, err := gate.CanSaveRecipe(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if !q.Allowed {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"success": false,
				"message": "Free plan recipe limit reached. Upgrade to Pro to save more recipes.",
				"count":   q.Count,
				"limit":   q.Limit,
			})
			return
		}

		c.Next()
	}
}
