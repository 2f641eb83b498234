package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure kinds the presence core reports.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidArgument
	KindNotFound
	KindStoreUnavailable
	KindDeliveryFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindStoreUnavailable:
		return "STORE_UNAVAILABLE"
	case KindDeliveryFailure:
		return "DELIVERY_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Error is a domain error tagged with its kind and a wire code.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of message or code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound         = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "not found"}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable, Code: "STORE_UNAVAILABLE", Message: "presence store unavailable"}
	ErrDeliveryFailure  = &Error{Kind: KindDeliveryFailure, Code: "DELIVERY_FAILURE", Message: "delivery failed"}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument, Code: "INVALID_ARGUMENT", Message: "invalid argument"}
)

func NewNotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func NewInvalidArgument(code, message string) *Error {
	return &Error{Kind: KindInvalidArgument, Code: code, Message: message}
}

func NewStoreUnavailable(op string, err error) *Error {
	return &Error{
		Kind:    KindStoreUnavailable,
		Code:    "STORE_UNAVAILABLE",
		Message: fmt.Sprintf("presence store %s failed", op),
		Err:     err,
	}
}

func NewDeliveryFailure(connectionID string, err error) *Error {
	return &Error{
		Kind:    KindDeliveryFailure,
		Code:    "DELIVERY_FAILURE",
		Message: fmt.Sprintf("delivery to connection %s failed", connectionID),
		Err:     err,
	}
}

// KindOf reports the kind of the outermost *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Failure is the wire description of a failed operation.
type Failure struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Describe turns anything a handler can fail with into a Failure.
// Domain errors keep their code, plain errors keep their message, and
// everything else (recovered panic values) is reported as unknown.
func Describe(v any) Failure {
	switch err := v.(type) {
	case *Error:
		return Failure{Message: err.Error(), Code: err.Code}
	case error:
		var de *Error
		if errors.As(err, &de) {
			return Failure{Message: err.Error(), Code: de.Code}
		}
		return Failure{Message: err.Error()}
	default:
		return Failure{Message: "An unknown error occurred"}
	}
}
