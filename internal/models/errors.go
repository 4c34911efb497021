package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials         = errors.New("invalid email or password")
	ErrEmailTaken                 = errors.New("email already in use")
	ErrOutOfStock                 = errors.New("not enough stock")
	ErrInvalidQuantity            = errors.New("quantity must be at least 1")
	ErrValidationFailed           = errors.New("validation failed")
	ErrPaymentAuthorizationFailed = errors.New("payment authorization failed")
	ErrNotFound                   = errors.New("not found")

	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrPaymentInProgress  = errors.New("payment is already being processed")
	ErrInvalidTransition  = errors.New("invalid checkout transition")
	ErrMalformedRecord    = errors.New("malformed session record")
	ErrRecordNotPersisted = errors.New("no persisted session record")
)

// ValidationError reports the field that blocked an operation.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

type NotFoundError struct {
	Kind string
	ID   int
}

func NewNotFoundError(kind string, id int) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
