package app

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/drewsephski/Dream/app/config"
	"github.com/drewsephski/Dream/app/models"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeWebhook reconciles the local record with the payment provider's
// ground truth. Signature verification is the sole authentication for this
// channel: it runs unconditionally before any event is interpreted, and a
// missing secret hard-fails rather than bypassing the check. Once the
// signature passes the response is always 200 so the provider does not
// retry events whose local handling failed permanently.
func StripeWebhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		log.Printf("stripe webhook read failed: %v", err)
		c.String(http.StatusBadRequest, "Webhook Error: invalid payload")
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("stripe webhook config load failed: %v", err)
		c.String(http.StatusBadRequest, "Webhook Error: webhook not configured")
		return
	}

	endpointSecret := cfg.Stripe.WebhookSecret
	if sigHeader == "" || endpointSecret == "" {
		log.Printf("stripe webhook missing signature or webhook secret")
		c.String(http.StatusBadRequest, "Webhook Error: missing signature or webhook secret")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		sigHeader,
		endpointSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		log.Printf("stripe webhook signature failed: %v", err)
		c.String(http.StatusBadRequest, "Webhook Error: "+err.Error())
		return
	}

	firstSeen, err := markWebhookEvent(c.Request.Context(), event.ID, string(event.Type))
	if err != nil {
		log.Printf("stripe webhook event log failed id=%s err=%v", event.ID, err)
		firstSeen = true
	}
	if !firstSeen {
		log.Printf("stripe webhook duplicate delivery id=%s type=%s", event.ID, event.Type)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		handleCheckoutCompleted(c.Request.Context(), event)
	case "customer.subscription.deleted":
		handleSubscriptionDeleted(c.Request.Context(), event)
	case "invoice.payment_failed":
		handleInvoicePaymentFailed(c.Request.Context(), event)
	default:
		log.Printf("stripe webhook unhandled event type=%s", event.Type)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func handleCheckoutCompleted(ctx context.Context, event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		log.Printf("stripe session unmarshal failed: %v", err)
		return
	}

	appID, ok := resolveAppID(sess.ClientReferenceID, sess.Metadata)
	if !ok {
		log.Printf("stripe session missing client reference id=%s", event.ID)
		return
	}

	subscriptionID := ""
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}

	if err := setAppSubscription(ctx, appID, subscriptionID, models.StatusActive, models.TierPro); err != nil {
		log.Printf("stripe plan activation failed app=%d err=%v", appID, err)
		return
	}
	log.Printf("subscription activated app=%d", appID)
}

func handleSubscriptionDeleted(ctx context.Context, event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		log.Printf("stripe subscription unmarshal failed: %v", err)
		return
	}

	appID, ok := resolveAppID(legacyClientReference(event), sub.Metadata)
	if !ok {
		log.Printf("stripe subscription missing user reference id=%s", event.ID)
		return
	}

	if err := setAppCancelled(ctx, appID); err != nil {
		log.Printf("stripe plan downgrade failed app=%d err=%v", appID, err)
		return
	}
	log.Printf("subscription cancelled app=%d", appID)
}

func handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		log.Printf("stripe invoice unmarshal failed: %v", err)
		return
	}

	appID, ok := resolveAppID(legacyClientReference(event), inv.Metadata)
	if !ok {
		log.Printf("stripe invoice missing user reference id=%s", event.ID)
		return
	}

	if err := setAppPastDue(ctx, appID); err != nil {
		log.Printf("stripe past_due update failed app=%d err=%v", appID, err)
		return
	}
	log.Printf("subscription past_due app=%d", appID)
}

// resolveAppID finds the target record from a metadata userId or the legacy
// client-reference field. A missing or non-numeric reference skips the
// update; one unresolvable event never fails the whole request.
func resolveAppID(clientReference string, metadata map[string]string) (int64, bool) {
	ref := clientReference
	if userID, ok := metadata["userId"]; ok && userID != "" {
		ref = userID
	}
	if ref == "" {
		return 0, false
	}
	id, err := parseAppID(ref)
	if err != nil {
		return 0, false
	}
	return id, true
}

// legacyClientReference digs client_reference_id out of the raw event
// payload for event objects that no longer carry it as a typed field.
func legacyClientReference(event stripe.Event) string {
	var payload struct {
		ClientReferenceID string `json:"client_reference_id"`
	}
	if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
		return ""
	}
	return payload.ClientReferenceID
}

// CreatePortalSession creates a Stripe Customer Portal session so a
// subscriber can manage billing from the desktop client. The portal is
// opened for the caller's own customer only.
func CreatePortalSession(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
		return
	}
	app, ok := requestApp(c, userID)
	if !ok {
		return
	}
	if app.StripeCustomerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stripe customer missing for user"})
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("portal config load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(app.StripeCustomerID),
		ReturnURL: stripe.String(cfg.Stripe.PortalReturnURL),
	}

	sess, err := portal.New(params)
	if err != nil {
		log.Printf("stripe portal session failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": sess.URL})
}
