package gcobj

import "fmt"

// ErrorCode classifies the fatal conditions the allocator can hit. The
// public surface never returns these to the host — they are always routed
// through FatalError and a panic, per this package's "never returns failure
// codes" propagation policy.
type ErrorCode int

const (
	ErrorOutOfMemory ErrorCode = iota
	ErrorInvalidArgument
	ErrorAllocationFailed
	ErrorPlatform
)

// String renders the error code for diagnostics.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrorOutOfMemory:
		return "OutOfMemory"
	case ErrorInvalidArgument:
		return "InvalidArgument"
	case ErrorAllocationFailed:
		return "AllocationFailed"
	case ErrorPlatform:
		return "Platform"
	default:
		return fmt.Sprintf("Unknown(%d)", int(ec))
	}
}

// FatalError is the single error type the allocator constructs internally.
// Every public entry point that can fail wraps one of these in a panic
// rather than returning it, since malloc-compatible semantics leave no
// room for an error return.
type FatalError struct {
	Code    ErrorCode
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("gc: %s: %s", e.Code, e.Message)
}

// Fatalf builds a FatalError with a formatted message.
func Fatalf(code ErrorCode, format string, args ...interface{}) *FatalError {
	return &FatalError{Code: code, Message: fmt.Sprintf(format, args...)}
}
