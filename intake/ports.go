// Package intake drives the subscription sign-up flow: collect identity and
// a payment instrument, verify email when needed, and hand the user off to
// hosted checkout.
package intake

import (
	"context"

	"github.com/drewsephski/Dream/app/models"
)

// User is the identity provider's view of the acting user.
type User struct {
	ID    string
	Email string
	Name  string
}

// Session is the current identity-provider session state.
type Session struct {
	SignedIn bool
	User     User
}

// SignUpResult reports the outcome of an email verification attempt.
type SignUpResult struct {
	Complete         bool
	CreatedSessionID string
	CreatedUserID    string
}

// Identity is the identity-provider collaborator: session state plus the
// sign-up and email-verification flow.
type Identity interface {
	Session() Session
	CreateSignUp(ctx context.Context, email string, metadata map[string]string) error
	PrepareEmailVerification(ctx context.Context) error
	AttemptEmailVerification(ctx context.Context, code string) (SignUpResult, error)
	ActivateSession(ctx context.Context, sessionID string) error
}

// PaymentMethod is a tokenized payment instrument handle.
type PaymentMethod struct {
	ID string
}

// Payments is the payment-provider collaborator: the embedded collection
// widget and the hosted checkout redirect.
type Payments interface {
	// Ready reports whether the collection widget has initialized. No
	// network call may start before it has.
	Ready() bool
	CreatePaymentMethod(ctx context.Context) (PaymentMethod, error)
	RedirectToCheckout(ctx context.Context, sessionID string) error
}

// Backend is the privileged-process counterpart. Implementations are
// constructed explicitly and injected; there is no shared singleton.
type Backend interface {
	CreateSubscription(ctx context.Context, params models.CreateSubscriptionParams) (models.CreateSubscriptionResult, error)
}
