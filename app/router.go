// Package app wires the shared HTTP routes for the subscription backend.
package app

import (
	"time"

	"github.com/drewsephski/Dream/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP router: public webhook/health/metrics/promo
// routes plus the bearer-authenticated client API.
func NewRouter() (*gin.Engine, error) {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	router.Use(MetricsMiddleware())

	router.GET("/health", Health)
	router.GET("/metrics", MetricsHandler())
	router.POST("/webhook/stripe", StripeWebhook)
	router.GET("/api/promo", PromoHandler)

	verifier, err := auth.NewVerifierFromEnv()
	if err != nil && !auth.AuthDisabled() {
		return nil, err
	}

	protected := router.Group("/")
	protected.Use(auth.Middleware(verifier, auth.MiddlewareConfig{
		OnAuthenticated: func(c *gin.Context, claims *auth.Claims) error {
			return UpsertAppFromClaims(c.Request.Context(), claims)
		},
	}))
	protected.GET("/me", Me)
	protected.GET("/me/budget", UserBudgetHandler)
	protected.GET("/api/subscription/status", GetSubscriptionStatusHandler)
	protected.POST("/api/subscription/create", CreateSubscriptionHandler)
	protected.POST("/api/billing/portal-session", CreatePortalSession)
	protected.POST("/api/chat/error", ChatErrorHandler)

	return router, nil
}
