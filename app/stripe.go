package app

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/drewsephski/Dream/app/config"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
)

// InitStripe wires the Stripe API key from the environment.
func InitStripe() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config for stripe: %v", err)
	}
	stripe.Key = cfg.Stripe.SecretKey
}

// ensureStripeCustomer finds or creates a Stripe Customer for the given app
// record. It uses apps.stripe_customer_id when present, otherwise creates a
// new customer keyed by email/name, then stores that in the apps table.
func ensureStripeCustomer(ctx context.Context, appID int64, email, name string) (string, error) {
	if db == nil {
		return "", errors.New("db not initialized")
	}

	var stripeID sql.NullString
	err := db.QueryRowContext(
		ctx,
		`
			SELECT stripe_customer_id
			FROM apps
			WHERE id = $1;
		`,
		appID,
	).Scan(&stripeID)
	if err != nil {
		return "", err
	}

	if stripeID.Valid && stripeID.String != "" {
		return stripeID.String, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"app_id": itoa64(appID),
		},
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	if err := setAppStripeCustomer(ctx, appID, cust.ID); err != nil {
		return "", err
	}

	return cust.ID, nil
}

// newCheckoutSession starts a subscription-mode Checkout Session carrying the
// user id as client_reference_id so the webhook can find the record later.
func newCheckoutSession(customerID, priceID, userID string, cfg *config.Config) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(userID),
		SuccessURL:        stripe.String(cfg.Stripe.SuccessURL),
		CancelURL:         stripe.String(cfg.Stripe.CancelURL),
		Metadata: map[string]string{
			"userId": userID,
		},
	}

	return session.New(params)
}
