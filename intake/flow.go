package intake

import (
	"context"
	"log"

	"github.com/drewsephski/Dream/app/models"

	"github.com/google/uuid"
)

// State is the intake flow's current step.
type State string

const (
	// StateCollecting renders the email/payment form.
	StateCollecting State = "collecting"
	// StateVerifying waits for the email verification code.
	StateVerifying State = "verifying"
	// StateSubscribing tokenizes the card and calls the backend.
	StateSubscribing State = "subscribing"
	// StateRedirected means control left for hosted checkout; final
	// confirmation arrives later over the webhook channel.
	StateRedirected State = "redirected"
)

// Flow is the subscription intake state machine. All steps are awaited
// sequentially; closing the flow mid-step does not cancel side effects of
// calls already in flight.
type Flow struct {
	id       string
	identity Identity
	payments Payments
	backend  Backend
	priceID  string

	state State

	// sign-up state carried from form submit through verification
	email         string
	createdUserID string
}

// NewFlow builds a flow over injected collaborators. priceID selects the
// single fixed tier.
func NewFlow(identity Identity, payments Payments, backend Backend, priceID string) *Flow {
	return &Flow{
		id:       uuid.NewString(),
		identity: identity,
		payments: payments,
		backend:  backend,
		priceID:  priceID,
		state:    StateCollecting,
	}
}

func (f *Flow) State() State {
	return f.state
}

func (f *Flow) ID() string {
	return f.id
}

// Submit handles the form submission from the collecting state. An
// authenticated user goes straight to subscribing; anyone else starts the
// sign-up and email-verification flow. Every failure is retryable and
// leaves local state consistent.
func (f *Flow) Submit(ctx context.Context, email string) error {
	if f.state != StateCollecting {
		return flowErr(ErrInvalidState, "flow is not accepting a submission", nil)
	}

	session := f.identity.Session()

	if !session.SignedIn && email == "" {
		return flowErr(ErrMissingEmail, "please enter your email to continue", nil)
	}

	if !f.payments.Ready() {
		return flowErr(ErrPaymentNotReady, "please wait for the payment system to load", nil)
	}

	if session.SignedIn {
		f.state = StateSubscribing
		return f.subscribe(ctx)
	}

	if err := f.identity.CreateSignUp(ctx, email, map[string]string{"selectedTier": string(models.TierPro)}); err != nil {
		log.Printf("sign-up create failed flow=%s err=%v", f.id, err)
		return flowErr(ErrSignUpUnavailable, "failed to start sign-up process", err)
	}

	if err := f.identity.PrepareEmailVerification(ctx); err != nil {
		log.Printf("sign-up verification prepare failed flow=%s err=%v", f.id, err)
		return flowErr(ErrSignUpUnavailable, "failed to send verification email", err)
	}

	f.email = email
	f.state = StateVerifying
	return nil
}

// Verify handles the verification code from the verifying state. On success
// a session is activated and the flow proceeds to subscribing; on failure
// it stays in verifying for another attempt.
func (f *Flow) Verify(ctx context.Context, code string) error {
	if f.state != StateVerifying {
		return flowErr(ErrInvalidState, "flow is not awaiting verification", nil)
	}

	result, err := f.identity.AttemptEmailVerification(ctx, code)
	if err != nil {
		log.Printf("verification attempt failed flow=%s err=%v", f.id, err)
		return flowErr(ErrVerificationFailed, "failed to verify your email", err)
	}
	if !result.Complete {
		return flowErr(ErrVerificationFailed, "please check your code and try again", nil)
	}

	if err := f.identity.ActivateSession(ctx, result.CreatedSessionID); err != nil {
		log.Printf("session activation failed flow=%s err=%v", f.id, err)
		return flowErr(ErrVerificationFailed, "failed to establish session", err)
	}

	f.createdUserID = result.CreatedUserID
	f.state = StateSubscribing
	return f.subscribe(ctx)
}

// subscribe tokenizes the payment instrument and invokes the backend
// subscription-creation operation, then hands off to hosted checkout. A
// backend failure returns the flow to collecting.
func (f *Flow) subscribe(ctx context.Context) error {
	if !f.payments.Ready() {
		f.state = StateCollecting
		return flowErr(ErrPaymentNotReady, "please wait for the payment system to load", nil)
	}

	if _, err := f.payments.CreatePaymentMethod(ctx); err != nil {
		log.Printf("payment method creation failed flow=%s err=%v", f.id, err)
		f.state = StateCollecting
		return flowErr(ErrTokenizationFailed, "failed to process payment information", err)
	}

	userID, userEmail, userName := f.resolveUser()
	if userID == "" || userEmail == "" {
		f.state = StateCollecting
		return flowErr(ErrUserInfoMissing, "user information is missing", nil)
	}

	result, err := f.backend.CreateSubscription(ctx, models.CreateSubscriptionParams{
		UserID:    userID,
		UserEmail: userEmail,
		UserName:  userName,
		PriceID:   f.priceID,
	})
	if err != nil {
		log.Printf("create subscription call failed flow=%s err=%v", f.id, err)
		f.state = StateCollecting
		return flowErr(ErrSubscribeFailed, "failed to create subscription", err)
	}
	if !result.Success {
		log.Printf("create subscription rejected flow=%s err=%s", f.id, result.Error)
		f.state = StateCollecting
		return flowErr(ErrSubscribeFailed, result.Error, nil)
	}

	if err := f.payments.RedirectToCheckout(ctx, result.SessionID); err != nil {
		log.Printf("checkout redirect failed flow=%s session=%s err=%v", f.id, result.SessionID, err)
		f.state = StateCollecting
		return flowErr(ErrRedirectFailed, "failed to open checkout", err)
	}

	f.state = StateRedirected
	return nil
}

// resolveUser prefers the signed-in session and falls back to the identity
// created during this flow's sign-up.
func (f *Flow) resolveUser() (id, email, name string) {
	session := f.identity.Session()
	if session.SignedIn {
		return session.User.ID, session.User.Email, session.User.Name
	}
	return f.createdUserID, f.email, ""
}
