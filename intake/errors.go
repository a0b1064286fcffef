package intake

import "fmt"

// ErrorKind distinguishes the retryable failure modes of the intake flow.
type ErrorKind string

const (
	ErrMissingEmail       ErrorKind = "missing_email"
	ErrPaymentNotReady    ErrorKind = "payment_not_ready"
	ErrSignUpUnavailable  ErrorKind = "signup_unavailable"
	ErrTokenizationFailed ErrorKind = "tokenization_failed"
	ErrVerificationFailed ErrorKind = "verification_failed"
	ErrSubscribeFailed    ErrorKind = "subscribe_failed"
	ErrRedirectFailed     ErrorKind = "redirect_failed"
	ErrUserInfoMissing    ErrorKind = "user_info_missing"
	ErrInvalidState       ErrorKind = "invalid_state"
)

// FlowError is a non-fatal flow failure. Every kind leaves the flow in a
// state that can be retried by resubmission.
type FlowError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *FlowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FlowError) Unwrap() error {
	return e.Cause
}

func flowErr(kind ErrorKind, message string, cause error) *FlowError {
	return &FlowError{Kind: kind, Message: message, Cause: cause}
}
