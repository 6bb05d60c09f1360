package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"subscription-engine/config"
	"subscription-engine/database"
	routes "subscription-engine/internal/app/http"
	stripeinfra "subscription-engine/internal/infra/stripe"
	"subscription-engine/internal/lifecycle"
	"subscription-engine/internal/logger"
	"subscription-engine/internal/metrics"
	"subscription-engine/internal/repository"
)

func main() {
	cfg := config.LoadEnv()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	appLog := logger.New(cfg.LogFormat, cfg.LogLevel, os.Stdout)
	slog.SetDefault(appLog)
	db := database.InitDB(cfg.DBURL)
	m := metrics.New(prometheus.DefaultRegisterer)

	configOpts := []repository.ConfigOption{repository.WithLogger(appLog)}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := repository.ConnectRedis(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatalf("❌ Failed to connect to redis: %v", err)
		}
		defer client.Close()
		configOpts = append(configOpts, repository.WithCache(repository.NewRedisCache(client, "subscription-engine:"), cfg.ConfigCacheTTL))
	}

	stripeClient := stripeinfra.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.AppEnv)

	svc := lifecycle.New(lifecycle.Deps{
		Records:  repository.NewSubscriptionRepository(db),
		Configs:  repository.NewConfigRepository(db, configOpts...),
		Accounts: repository.NewAccountRepository(db),
		Feedback: repository.NewFeedbackRepository(db),
		Recipes:  repository.NewRecipeRepository(db),
		Provider: stripeClient,
	},
		lifecycle.WithMaxPauseDays(cfg.MaxPauseDays),
		lifecycle.WithAppURL(cfg.AppURL),
		lifecycle.WithLogger(appLog),
		lifecycle.WithMetrics(m),
	)

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS must run before the route handlers
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		DB:        db,
		Service:   svc,
		Stripe:    stripeClient,
		JWTSecret: cfg.JWTSecret,
		Log:       appLog,
		Metrics:   m,
		Gatherer:  prometheus.DefaultGatherer,
	})

	appLog.Info("listening", "port", cfg.Port, "env", cfg.AppEnv)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server stopped: %v", err)
	}
}
