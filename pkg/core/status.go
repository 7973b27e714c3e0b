package core

// Status is the outcome reported to the agent for a command.
type Status string

// Status values
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// IsSuccess returns true if the status indicates success
func (s Status) IsSuccess() bool {
	return s == StatusOK
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryLookup                          // testID not registered, handler missing
	ErrCategoryResolution                      // No scroll target could be resolved
	ErrCategoryCommand                         // Malformed command, unknown action, bad direction
	ErrCategoryTransport                       // Connection lost, main loop stopped, unauthorized
	ErrCategoryConfig                          // Invalid configuration
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryLookup:
		return "lookup"
	case ErrCategoryResolution:
		return "resolution"
	case ErrCategoryCommand:
		return "command"
	case ErrCategoryTransport:
		return "transport"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
