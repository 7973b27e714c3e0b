package core

import (
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Lookup errors
	ErrNoNode = &ExecutionError{
		Category: ErrCategoryLookup,
		Code:     "no_node",
		Message:  "no node found",
	}
	ErrNoHandler = &ExecutionError{
		Category: ErrCategoryLookup,
		Code:     "no_handler",
		Message:  "element has no handler for this action",
	}

	// Resolution errors
	ErrNoScrollTarget = &ExecutionError{
		Category: ErrCategoryResolution,
		Code:     "no_scroll_target",
		Message:  "no scroll target found",
	}

	// Command errors
	ErrInvalidCommand = &ExecutionError{
		Category: ErrCategoryCommand,
		Code:     "invalid_command",
		Message:  "invalid command",
	}
	ErrUnknownAction = &ExecutionError{
		Category: ErrCategoryCommand,
		Code:     "unknown_action",
		Message:  "unknown action",
	}
	ErrInvalidDirection = &ExecutionError{
		Category: ErrCategoryCommand,
		Code:     "invalid_direction",
		Message:  "invalid direction",
	}

	// Transport errors
	ErrLoopStopped = &ExecutionError{
		Category: ErrCategoryTransport,
		Code:     "loop_stopped",
		Message:  "main loop is not running",
	}
	ErrUnauthorized = &ExecutionError{
		Category: ErrCategoryTransport,
		Code:     "unauthorized",
		Message:  "unauthorized",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Is reports whether target is an ExecutionError with the same code.
// This lets errors.Is match copies made by the With* helpers.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
