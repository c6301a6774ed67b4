package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a saveslot error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrInvalidSelection  ErrorCode = "INVALID_SELECTION"
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrNameAlreadyExists ErrorCode = "NAME_ALREADY_EXISTS"
	ErrIO                ErrorCode = "IO_ERROR"
	ErrLaunchFailed      ErrorCode = "LAUNCH_FAILED"
	ErrInternal          ErrorCode = "INTERNAL"
)

// SlotError represents a structured error with code, message, and details.
type SlotError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *SlotError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *SlotError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates an error for invalid parameters or configuration.
func NewInvalidRequest(msg string) *SlotError {
	return &SlotError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewInvalidSelection creates an error for a profile name that cannot be used.
// It is returned before any filesystem mutation happens.
func NewInvalidSelection(name, reason string) *SlotError {
	return &SlotError{
		Code:    ErrInvalidSelection,
		Message: fmt.Sprintf("invalid profile %q: %s", name, reason),
		Details: map[string]any{"name": name, "reason": reason},
	}
}

// NewNotFound creates an error for a missing profile or entry.
func NewNotFound(identifier string) *SlotError {
	return &SlotError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewNameAlreadyExists creates an error for profile name collisions.
func NewNameAlreadyExists(name string) *SlotError {
	return &SlotError{
		Code:    ErrNameAlreadyExists,
		Message: fmt.Sprintf("profile %q already exists", name),
		Details: map[string]any{"name": name},
	}
}

// NewIO creates an error for a failed filesystem operation.
// The operation name and every path involved end up in the message so the
// user can diagnose permission or disk problems.
func NewIO(op string, err error, paths ...string) *SlotError {
	msg := op
	if len(paths) > 0 {
		msg = fmt.Sprintf("%s %s", op, strings.Join(paths, " -> "))
	}
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &SlotError{
		Code:    ErrIO,
		Message: msg,
		Details: map[string]any{"op": op, "paths": paths},
		Err:     err,
	}
}

// NewLaunchFailed creates an error for a game executable that could not be started.
func NewLaunchFailed(executable string, err error) *SlotError {
	msg := fmt.Sprintf("launch failed: %s", executable)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &SlotError{
		Code:    ErrLaunchFailed,
		Message: msg,
		Details: map[string]any{"executable": executable},
		Err:     err,
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *SlotError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SlotError{
		Code:    ErrInternal,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err (or anything it wraps) is a SlotError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SlotError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As is errors.As for *SlotError, exposed so callers don't need both packages.
func As(err error) (*SlotError, bool) {
	var sErr *SlotError
	if stderrors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}
