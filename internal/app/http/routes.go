package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	adminapi "subscription-engine/internal/api/admin"
	"subscription-engine/internal/api/billing"
	recipesapi "subscription-engine/internal/api/recipes"
	stripewebhooks "subscription-engine/internal/api/stripewebhook"
	"subscription-engine/internal/app/http/middleware"
	stripeinfra "subscription-engine/internal/infra/stripe"
	"subscription-engine/internal/lifecycle"
	"subscription-engine/internal/metrics"
	"subscription-engine/internal/repository"
)

// Deps is everything the HTTP layer needs. Gatherer may be nil to skip
// the /metrics endpoint.
type Deps struct {
	DB        *gorm.DB
	Service   *lifecycle.Service
	Stripe    *stripeinfra.Client
	JWTSecret string
	Log       *slog.Logger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestID(), middleware.Observe(d.Log, d.Metrics))

	accounts := repository.NewAccountRepository(d.DB)
	recipeStore := repository.NewRecipeRepository(d.DB)
	events := repository.NewWebhookEventRepository(d.DB)

	webhook := stripewebhooks.NewHandler(d.Stripe, d.Service, events, d.Log)
	billingHandler := billing.NewHandler(d.Service)
	recipeHandler := recipesapi.NewHandler(recipeStore, d.Service)
	adminHandler := adminapi.NewHandler(d.Service)

	// The webhook body is signed; it must reach the handler byte for byte.
	r.POST("/webhook", webhook.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.SanitizeAndCleanInputMiddleware())

	sub := auth.Group("/subscription")
	sub.GET("", billingHandler.GetSubscription)
	sub.POST("/provision", billingHandler.Provision)
	sub.POST("/sync", billingHandler.Sync)
	sub.POST("/checkout", billingHandler.CreateCheckoutSession)
	sub.POST("/portal", billingHandler.CreateBillingPortal)
	sub.POST("/pause", billingHandler.Pause)
	sub.POST("/resume", billingHandler.Resume)
	sub.GET("/cancel-offer", billingHandler.GetCancelOffer)
	sub.POST("/cancel-offer/accept", billingHandler.AcceptCancelOffer)
	sub.POST("/cancel", billingHandler.CancelSubscription)
	sub.POST("/cancel-trial", billingHandler.CancelTrial)
	sub.POST("/cancel-flow", billingHandler.AdvanceCancelFlow)
	sub.POST("/reset", billingHandler.ResetToFree)

	auth.GET("/recipes", recipeHandler.List)
	auth.GET("/recipes/can-save", recipeHandler.CanSave)
	auth.POST("/recipes", middleware.RequireRecipeQuota(d.Service), recipeHandler.Create)
	auth.DELETE("/recipes/:id", recipeHandler.Delete)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(d.JWTSecret),
		middleware.RequireAdmin(accounts),
		middleware.SanitizeAndCleanInputMiddleware(),
	)
	admin.GET("/subscriptions", adminHandler.ListSubscriptions)
	admin.POST("/subscriptions/:account_id/grant", adminHandler.GrantPro)
	admin.POST("/subscriptions/:account_id/revoke", adminHandler.RevokePro)
	admin.POST("/subscriptions/:account_id/reset", adminHandler.ResetToFree)
	admin.GET("/subscription-config", adminHandler.GetConfig)
	admin.PUT("/subscription-config", adminHandler.UpdateConfig)
}
