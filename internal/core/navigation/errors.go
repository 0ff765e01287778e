package navigation

import (
	"errors"
	"fmt"
)

// Error categories shared by every layer on top of the engine binding.
var (
	ErrNotReady     = errors.New("not ready")
	ErrInvalidInput = errors.New("invalid input")
	ErrEngine       = errors.New("navigation engine failure")
)

// Specific causes. Each one maps onto one of the categories above.
var (
	ErrGeometryNotInitialized = errors.New("geometry is not initialized")
	ErrMeshNotBuilt           = errors.New("navmesh is not built")
	ErrCrowdNotInitialized    = errors.New("crowd is not initialized")
	ErrInvalidVector          = errors.New("invalid vector")
	ErrInvalidIndex           = errors.New("invalid index")
	ErrInvalidAgent           = errors.New("invalid agent index or agent not active")
	ErrNoNearbyPolygon        = errors.New("could not find nearest polygon")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrCorruptData            = errors.New("corrupt navmesh data")
)

// ErrorCode is the category of a navigation error.
type ErrorCode int

const (
	CodeUnknown ErrorCode = iota
	CodeNotReady
	CodeInvalidInput
	CodeEngine
)

func (c ErrorCode) String() string {
	switch c {
	case CodeNotReady:
		return "not-ready"
	case CodeInvalidInput:
		return "invalid-input"
	case CodeEngine:
		return "engine"
	default:
		return "unknown"
	}
}

func (c ErrorCode) sentinel() error {
	switch c {
	case CodeNotReady:
		return ErrNotReady
	case CodeInvalidInput:
		return ErrInvalidInput
	case CodeEngine:
		return ErrEngine
	default:
		return nil
	}
}

// Error is returned by every operation of the coordination layer. Op is the
// human readable operation name ("Add agent", "Set formation target").
type Error struct {
	Op      string
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the category sentinel of the error so that
// errors.Is(err, ErrNotReady) works for every not-ready cause.
func (e *Error) Is(target error) bool {
	s := e.Code.sentinel()
	return s != nil && target == s
}

// NotReady reports an operation attempted before its prerequisite stage.
func NotReady(op string, cause error) *Error {
	return &Error{Op: op, Code: CodeNotReady, Message: cause.Error(), Cause: cause}
}

// Invalid reports malformed caller input.
func Invalid(op string, cause error, format string, args ...any) *Error {
	return &Error{Op: op, Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// EngineFailure reports a failure of the engine binding itself.
func EngineFailure(op string, cause error, format string, args ...any) *Error {
	return &Error{Op: op, Code: CodeEngine, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the category of err.
func CodeOf(err error) ErrorCode {
	var navErr *Error
	if errors.As(err, &navErr) {
		return navErr.Code
	}
	switch {
	case errors.Is(err, ErrNotReady):
		return CodeNotReady
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrEngine):
		return CodeEngine
	}
	return CodeUnknown
}
