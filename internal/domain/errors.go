package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned when an identity already owns the email.
	// Store-level unique violations are translated to this sentinel too.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAuthenticationFailed groups both credential failure variants.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrUserNotFound         = fmt.Errorf("%w: user not found", ErrAuthenticationFailed)
	ErrInvalidPassword      = fmt.Errorf("%w: invalid password", ErrAuthenticationFailed)
	// ErrTokenMissing is returned when no bearer credential was presented at all.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenInvalid covers every token rejection (signature, expiry, structure).
	// Callers must not branch on the wrapped reason beyond logging it.
	ErrTokenInvalid = errors.New("token invalid")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("resource not found")
	// ErrStoreFailure wraps unexpected persistence errors.
	ErrStoreFailure = errors.New("store failure")
)

// ClientError pairs an error kind with the message that is safe to return to callers.
type ClientError struct {
	kind    error
	message string
}

// NewClientError builds an error that matches kind with errors.Is and carries message.
func NewClientError(kind error, message string) error {
	return &ClientError{kind: kind, message: message}
}

func (e *ClientError) Error() string {
	return e.kind.Error() + ": " + e.message
}

func (e *ClientError) Unwrap() error {
	return e.kind
}

// Message returns the caller-facing text.
func (e *ClientError) Message() string {
	return e.message
}

// ClientMessage extracts the caller-facing message from err, if one was attached.
func ClientMessage(err error) (string, bool) {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.message, true
	}
	return "", false
}

// StoreFailure wraps err as ErrStoreFailure while keeping the cause inspectable.
func StoreFailure(operation string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, operation, err)
}
