// Package app implements the privileged subscription command operations the
// desktop client calls across the process boundary.
package app

import (
	"context"
	"log"
	"net/http"

	"github.com/drewsephski/Dream/app/config"
	"github.com/drewsephski/Dream/app/models"

	"github.com/gin-gonic/gin"
)

// CreateSubscription creates a billing customer and a hosted checkout
// session, then eagerly persists the record as active/pro. A user who
// abandons checkout stays recorded as active until a webhook corrects it;
// that inconsistency window is a known property of this flow, not a bug.
// Failures are returned inside the result, never as a raw error.
func CreateSubscription(ctx context.Context, cfg *config.Config, params models.CreateSubscriptionParams) models.CreateSubscriptionResult {
	log.Printf("creating subscription user=%s", params.UserID)

	appID, err := parseAppID(params.UserID)
	if err != nil {
		log.Printf("create subscription failed user=%s err=%v", params.UserID, err)
		return models.CreateSubscriptionResult{Success: false, Error: "invalid user id"}
	}

	customerID, err := ensureStripeCustomer(ctx, appID, params.UserEmail, params.UserName)
	if err != nil {
		log.Printf("create subscription failed user=%s err=%v", params.UserID, err)
		return models.CreateSubscriptionResult{Success: false, Error: err.Error()}
	}

	priceID := params.PriceID
	if priceID == "" {
		priceID = cfg.Stripe.PriceIDProMonthly
	}

	sess, err := newCheckoutSession(customerID, priceID, params.UserID, cfg)
	if err != nil {
		log.Printf("create subscription failed user=%s err=%v", params.UserID, err)
		return models.CreateSubscriptionResult{Success: false, Error: err.Error()}
	}

	if err := setAppSubscription(ctx, appID, sess.ID, models.StatusActive, models.TierPro); err != nil {
		log.Printf("create subscription failed user=%s err=%v", params.UserID, err)
		return models.CreateSubscriptionResult{Success: false, Error: err.Error()}
	}

	log.Printf("created checkout session user=%s session=%s", params.UserID, sess.ID)
	return models.CreateSubscriptionResult{Success: true, SessionID: sess.ID}
}

// GetSubscriptionStatus looks up the local record. Absent records, bad ids,
// and internal failures all degrade to the free tier; it never errors.
func GetSubscriptionStatus(ctx context.Context, userID string) models.SubscriptionStatusResult {
	notSubscribed := models.SubscriptionStatusResult{IsSubscribed: false, Tier: models.TierFree}

	if db == nil || userID == "" {
		return notSubscribed
	}

	appID, err := parseAppID(userID)
	if err != nil {
		return notSubscribed
	}

	app, err := getAppByID(ctx, appID)
	if err != nil {
		log.Printf("subscription status lookup failed user=%s err=%v", userID, err)
		return notSubscribed
	}

	return statusResult(app)
}

// statusResult projects a record into the status contract; a record that
// never saw a checkout reports the free tier.
func statusResult(app models.App) models.SubscriptionStatusResult {
	tier := app.Tier
	if tier == "" {
		tier = models.TierFree
	}
	return models.SubscriptionStatusResult{
		IsSubscribed: app.IsSubscribed(),
		Tier:         tier,
	}
}

// CreateSubscriptionHandler is the HTTP face of CreateSubscription for the
// desktop client.
func CreateSubscriptionHandler(c *gin.Context) {
	var params models.CreateSubscriptionParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if params.UserID == "" || params.UserEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user information missing"})
		return
	}
	if _, ok := requestApp(c, params.UserID); !ok {
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("create subscription config load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}

	result := CreateSubscription(c.Request.Context(), cfg, params)
	c.JSON(http.StatusOK, result)
}

// GetSubscriptionStatusHandler reports {isSubscribed, tier} for a user id
// the caller owns.
func GetSubscriptionStatusHandler(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
		return
	}
	app, ok := requestApp(c, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, statusResult(app))
}
