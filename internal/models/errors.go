package models

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable, caller-visible error classification.
type ErrorCode string

// Error codes returned across the service boundary.
const (
	CodeUnauthenticated         ErrorCode = "UNAUTHENTICATED"
	CodeForbidden               ErrorCode = "FORBIDDEN"
	CodeValidation              ErrorCode = "VALIDATION_ERROR"
	CodeNotFound                ErrorCode = "NOT_FOUND"
	CodeInvalidUserState        ErrorCode = "INVALID_USER_STATE"
	CodeInvalidBeneficiaryState ErrorCode = "INVALID_BENEFICIARY_STATE"
	CodeInvalidEFTState         ErrorCode = "INVALID_EFT_STATE"
	CodeInsufficientFunds       ErrorCode = "INSUFFICIENT_FUNDS"
	CodeMinBalanceBreach        ErrorCode = "MIN_BALANCE_BREACH"
	CodeAccountNotActive        ErrorCode = "ACCOUNT_NOT_ACTIVE"
	CodeRTGSClosed              ErrorCode = "RTGS_CLOSED"
	CodeRTGSBelowMin            ErrorCode = "RTGS_BELOW_MIN"
	CodeNEFTOutsideWindow       ErrorCode = "NEFT_OUTSIDE_WINDOW"
	CodeExternalFailure         ErrorCode = "EXTERNAL_FAILURE"
	CodeConflict                ErrorCode = "CONFLICT"
	CodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// Error is a structured domain error carrying a stable code.
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// NewError builds a domain error with a code and formatted message.
func NewError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code and message to an underlying cause.
func WrapError(code ErrorCode, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf extracts the ErrorCode from an error chain, defaulting to
// INTERNAL_ERROR for unclassified errors.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsCode reports whether the error chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// Common constructors used throughout the services.

func ErrNotFound(entity, key string) *Error {
	return NewError(CodeNotFound, "%s '%s' not found", entity, key)
}

func ErrValidation(format string, args ...interface{}) *Error {
	return NewError(CodeValidation, format, args...)
}

func ErrForbidden(format string, args ...interface{}) *Error {
	return NewError(CodeForbidden, format, args...)
}

func ErrConflict(format string, args ...interface{}) *Error {
	return NewError(CodeConflict, format, args...)
}
