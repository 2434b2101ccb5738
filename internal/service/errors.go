package service

import (
	"errors"
	"fmt"
)

// Kind classifies service failures so the transport layer can map them to
// stable status codes without inspecting messages.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindDuplicate
	KindInvalidCredentials
	KindExpired
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindExpired:
		return "expired"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	}
	return "unexpected"
}

// Error is a classified service failure. Message is safe to show to clients;
// Err carries the internal cause and is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrUsernameTaken       = &Error{Kind: KindDuplicate, Message: "Username is already taken"}
	ErrEmailTaken          = &Error{Kind: KindDuplicate, Message: "Email is already in use"}
	ErrBadCredentials      = &Error{Kind: KindInvalidCredentials, Message: "Bad credentials"}
	ErrMissingAPIKey       = &Error{Kind: KindInvalidCredentials, Message: "Missing API Key"}
	ErrInvalidAPIKey       = &Error{Kind: KindInvalidCredentials, Message: "Invalid API key"}
	ErrExpiredAPIKey       = &Error{Kind: KindExpired, Message: "Expired API key"}
	ErrUserNotFound        = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrMeasurementNotFound = &Error{Kind: KindNotFound, Message: "Measurement not found"}
	ErrAccessDenied        = &Error{Kind: KindForbidden, Message: "Access denied"}
)

// KindOf returns the Kind of err, or KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// unexpected wraps an internal failure. The message shown to clients is fixed.
func unexpected(op string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "An unexpected error occurred", Err: fmt.Errorf("%s: %w", op, err)}
}
