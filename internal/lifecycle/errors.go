package lifecycle

import (
	"errors"

	"subscription-engine/internal/repository"
)

var (
	ErrNotFound = repository.ErrNotFound
	ErrConflict = repository.ErrConflict

	// ErrPrecondition is matched by every rejection caused by the account's
	// current state. Nothing is written when it is returned.
	ErrPrecondition = errors.New("precondition failed")
	ErrInvalidInput = errors.New("invalid input")
	ErrProvider     = errors.New("billing provider error")
)

// Error is a caller-facing rejection. Its message is safe to show to users.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string        { return e.msg }
func (e *Error) Is(target error) bool { return target == e.kind }

func precondition(msg string) *Error { return &Error{kind: ErrPrecondition, msg: msg} }
func invalidInput(msg string) *Error { return &Error{kind: ErrInvalidInput, msg: msg} }

var (
	ErrNotTrialing            = precondition("account is not in a trial")
	ErrHasBillingSubscription = precondition("account has a paid subscription; cancel the subscription instead")
	ErrNoBillingSubscription  = precondition("account has no billing subscription")
	ErrAlreadySubscribed      = precondition("account already has an active subscription")
	ErrNotPausable            = precondition("only an active paid subscription can be paused")
	ErrAlreadyPaused          = precondition("subscription is already paused")
	ErrNotPaused              = precondition("subscription is not paused")
	ErrPendingCancellation    = precondition("subscription is already set to cancel at period end")
	ErrNothingToCancel        = precondition("account has no trial or subscription to cancel")
	ErrOfferUnavailable       = precondition("no retention offer is available for this account")

	ErrInvalidInterval     = invalidInput("interval must be weekly, monthly or yearly")
	ErrPriceNotConfigured  = invalidInput("no price is configured for this interval")
	ErrResumeDateInPast    = invalidInput("resume date must be in the future")
	ErrResumeDateTooFar    = invalidInput("resume date is too far in the future")
	ErrGrantExpiryInPast   = invalidInput("grant expiry must be in the future")
	ErrInvalidTransition   = invalidInput("action is not allowed at this step of the cancellation")
	ErrUnknownCancelAction = invalidInput("unknown cancellation action")
)

// ProviderError carries a billing provider failure. Err holds the
// provider's own message.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string        { return "billing provider: " + e.Op + ": " + e.Err.Error() }
func (e *ProviderError) Unwrap() error        { return e.Err }
func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

func providerError(op string, err error) error {
	return &ProviderError{Op: op, Err: err}
}
