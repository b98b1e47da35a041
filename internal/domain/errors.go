package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a domain error.
type ErrorCode string

const (
	// ErrCodeValidation - malformed, missing, or out-of-range input
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeNotFound - referenced portfolio or holding does not exist
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInsufficientFunds - a BUY exceeds the portfolio's cash balance
	ErrCodeInsufficientFunds ErrorCode = "insufficient_funds"
	// ErrCodeStateConflict - the operation conflicts with current state (e.g. oversell)
	ErrCodeStateConflict ErrorCode = "state_conflict"
	// ErrCodeExternalUnavailable - the market-data provider failed.
	// Never fatal to a ledger write; reads degrade with inline status flags.
	ErrCodeExternalUnavailable ErrorCode = "external_unavailable"
)

// Error is the typed domain error carried across module boundaries.
// Field identifies the offending input for validation errors; Required and
// Available carry amounts for insufficient-funds errors.
type Error struct {
	Code      ErrorCode
	Field     string
	Message   string
	Required  float64
	Available float64
	Err       error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error attributed to a field
func NewValidationError(field, message string) *Error {
	return &Error{Code: ErrCodeValidation, Field: field, Message: message}
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: message}
}

// NewInsufficientFundsError creates an insufficient-funds error carrying
// the required and available amounts
func NewInsufficientFundsError(required, available float64) *Error {
	return &Error{
		Code:      ErrCodeInsufficientFunds,
		Message:   fmt.Sprintf("insufficient funds: required %.2f, available %.2f", required, available),
		Required:  required,
		Available: available,
	}
}

// NewStateConflictError creates a state-conflict error
func NewStateConflictError(message string) *Error {
	return &Error{Code: ErrCodeStateConflict, Message: message}
}

// NewExternalUnavailableError wraps a market-data provider failure
func NewExternalUnavailableError(message string, err error) *Error {
	return &Error{Code: ErrCodeExternalUnavailable, Message: message, Err: err}
}

// CodeOf returns the domain error code, or "" for non-domain errors
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsInsufficientFunds reports whether err is an insufficient-funds error
func IsInsufficientFunds(err error) bool { return CodeOf(err) == ErrCodeInsufficientFunds }

// IsStateConflict reports whether err is a state-conflict error
func IsStateConflict(err error) bool { return CodeOf(err) == ErrCodeStateConflict }

// IsExternalUnavailable reports whether err is an external-unavailable error
func IsExternalUnavailable(err error) bool { return CodeOf(err) == ErrCodeExternalUnavailable }
