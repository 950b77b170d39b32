package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the stable, client-visible failure category.
type ErrorCode string

const (
	CodeValidation       ErrorCode = "VALIDATION_ERROR"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeInvalidHierarchy ErrorCode = "INVALID_HIERARCHY"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeInternal         ErrorCode = "INTERNAL"
)

// Error is the canonical service error. Field and Row are only set for
// validation failures (Row is 1-based and only used by imports).
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Field   string
	Row     int
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Validation reports the first failing field.
func Validation(op, field, message string) error {
	return &Error{
		Code:    CodeValidation,
		Op:      strings.TrimSpace(op),
		Field:   strings.TrimSpace(field),
		Message: strings.TrimSpace(message),
	}
}

// AtRow copies err and attaches a 1-based row number. Non-validation errors pass through.
func AtRow(err error, row int) error {
	var aggErr *Error
	if !errors.As(err, &aggErr) || aggErr.Code != CodeValidation {
		return err
	}
	cp := *aggErr
	cp.Row = row
	return &cp
}

func NotFound(op, what string) error {
	return NewError(CodeNotFound, op, what+" not found", nil)
}

func InvalidHierarchy(op, message string) error {
	return NewError(CodeInvalidHierarchy, op, message, nil)
}

// Wrap annotates an existing error with the given code.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or wrapped err) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// As returns the *Error carried by err, if any.
func As(err error) (*Error, bool) {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return nil, false
	}
	return aggErr, true
}
