// Package errors provides the error taxonomy shared by every flowkit package.
// It includes error classification, the linking, loading and validation
// sentinels, and helper functions for consistent error wrapping.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input, topology or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Linking errors
	ErrNilEndpoint      = errors.New("link endpoint is nil")
	ErrDuplicateLink    = errors.New("link already exists")
	ErrLinkNotFound     = errors.New("link does not exist")
	ErrTargetNotFound   = errors.New("target not found")
	ErrCycle            = errors.New("link would create a cycle")
	ErrForeignElement   = errors.New("element belongs to another workflow")
	ErrDuplicateElement = errors.New("element already exists")
	ErrElementNotFound  = errors.New("element not found")

	// Loading errors
	ErrModuleNotFound   = errors.New("module not found")
	ErrInstantiation    = errors.New("module instantiation failed")
	ErrAccessViolation  = errors.New("illegal access to module")
	ErrNotAModule       = errors.New("not a module")
	ErrInvalidVersion   = errors.New("invalid version")
	ErrInvalidManifest  = errors.New("invalid module manifest")
	ErrArchiveNotFound  = errors.New("scan root not found")
	ErrUnsupportedKind  = errors.New("unsupported module kind")
	ErrDuplicateFactory = errors.New("factory already registered")

	// Validation errors
	ErrShapeMismatch     = errors.New("value is not assignable to the declared shape")
	ErrNilValue          = errors.New("value is nil")
	ErrInvalidParameter  = errors.New("invalid parameter value")
	ErrUnknownParameter  = errors.New("unknown parameter")
	ErrDuplicatePayload  = errors.New("payload already in container")
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// Workflow control errors
	ErrNoRoot         = errors.New("workflow has no root element")
	ErrNotActivated   = errors.New("workflow is not activated")
	ErrNotAlgorithm   = errors.New("root element must be an algorithm")
	ErrNotRunning     = errors.New("no workflow running")
	ErrAlreadyRunning = errors.New("workflow already running")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Connection errors
	ErrNoConnection      = errors.New("no connection available")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrCircuitOpen       = errors.New("circuit breaker open")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient and may be retried by the caller.
// flowkit itself never retries; the classification is informational.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	if errors.Is(err, ErrConnectionTimeout) ||
		errors.Is(err, ErrNoConnection) ||
		errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection", "temporary", "unavailable"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	if errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig) ||
		errors.Is(err, ErrInstantiation) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"fatal", "panic", "out of memory"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsInvalid checks if an error is due to invalid input or topology
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	for _, target := range invalidSentinels {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

var invalidSentinels = []error{
	ErrNilEndpoint, ErrDuplicateLink, ErrLinkNotFound, ErrTargetNotFound, ErrCycle,
	ErrForeignElement, ErrDuplicateElement, ErrElementNotFound,
	ErrModuleNotFound, ErrAccessViolation, ErrNotAModule, ErrInvalidVersion, ErrInvalidManifest,
	ErrShapeMismatch, ErrNilValue, ErrInvalidParameter, ErrUnknownParameter,
	ErrNoRoot, ErrNotActivated, ErrNotAlgorithm, ErrNotRunning, ErrAlreadyRunning,
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	if IsTransient(err) {
		return ErrorTransient
	}
	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}

	return ErrorTransient
}

// newClassified creates a new classified error.
// Use WrapTransient(), WrapFatal(), or WrapInvalid() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}
