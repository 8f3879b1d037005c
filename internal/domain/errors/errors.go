package errors

import (
	"errors"
	"fmt"
)

var (
	// Stock ledger errors
	ErrTicketNotFound          = errors.New("ticket not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrDuplicatePriceReference = errors.New("duplicate price reference")

	// User mapping errors
	ErrUserMappingNotFound = errors.New("user mapping not found")

	// Provider errors
	ErrPriceNotRecognized  = errors.New("price reference not recognized by provider")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrSessionNotFound     = errors.New("checkout session not found")

	// Webhook errors
	ErrInvalidWebhookPayload   = errors.New("invalid webhook payload")
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError represents a validation error on caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
