package booking

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/client"
)

// Kind classifies a failure by what the user can do about it.
type Kind int

const (
	// KindValidation is fixable by editing the draft.
	KindValidation Kind = iota + 1
	// KindAuth means the session is gone; the user must sign in again.
	KindAuth
	// KindConflict means someone else got there first (slot taken, order used).
	KindConflict
	// KindTransient is retryable as is.
	KindTransient
	// KindPayment is a rejected payment proof.
	KindPayment
	// KindCheckout means the hosted checkout could not be opened.
	KindCheckout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	case KindPayment:
		return "payment"
	case KindCheckout:
		return "checkout"
	default:
		return "unknown"
	}
}

var (
	ErrDateOutOfRange      = errors.New("date outside the booking window")
	ErrServiceUnavailable  = errors.New("slot service unavailable")
	ErrCheckoutUnavailable = errors.New("checkout could not be loaded")
	ErrInFlight            = errors.New("request already in flight")
	ErrInvalidTransition   = errors.New("invalid wizard transition")
)

// Error is a classified booking failure.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func validationError(op, message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Fields: fields}
}

// classify maps an API or transport failure onto a Kind.
func classify(op string, err error) *Error {
	apiErr, ok := client.AsAPIError(err)
	if !ok {
		// no response at all counts as a server error
		return &Error{Kind: KindTransient, Op: op, Message: "Could not reach the server, please try again", Err: err}
	}

	e := &Error{Op: op, Message: apiErr.Message, Fields: apiErr.Errors, Err: err}
	switch {
	case apiErr.Code == "VERIFICATION_FAILED":
		e.Kind = KindPayment
	case apiErr.Code == "SUBMISSION_IN_PROGRESS":
		e.Kind = KindTransient
	case apiErr.Status == http.StatusUnauthorized:
		e.Kind = KindAuth
	case apiErr.Status == http.StatusConflict:
		e.Kind = KindConflict
	case apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError:
		e.Kind = KindTransient
	default:
		e.Kind = KindValidation
	}
	if e.Message == "" {
		e.Message = http.StatusText(apiErr.Status)
	}
	return e
}
