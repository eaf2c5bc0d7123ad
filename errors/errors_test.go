package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			if result := test.class.String(); result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"circuit open", ErrCircuitOpen, true},
		{"context canceled", context.Canceled, true},
		{"timeout in message", fmt.Errorf("read timeout"), true},
		{"cycle", ErrCycle, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("connection")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := IsTransient(test.err); result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"duplicate link", ErrDuplicateLink, true},
		{"target not found", fmt.Errorf("resolve: %w", ErrTargetNotFound), true},
		{"shape mismatch", ErrShapeMismatch, true},
		{"not a module", ErrNotAModule, true},
		{"instantiation", ErrInstantiation, false},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: ErrCycle}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := IsInvalid(test.err); result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil error", nil, ErrorTransient},
		{"invalid config", ErrInvalidConfig, ErrorFatal},
		{"instantiation", ErrInstantiation, ErrorFatal},
		{"cycle", ErrCycle, ErrorInvalid},
		{"unknown error", fmt.Errorf("something odd"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := Classify(test.err); result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "Workflow", "Link", "duplicate link check") != nil {
		t.Fatal("wrapping nil must return nil")
	}

	err := Wrap(ErrDuplicateLink, "Workflow", "Link", "duplicate link check")
	expected := "Workflow.Link: duplicate link check failed: link already exists"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, ErrDuplicateLink) {
		t.Error("wrapped error should match its sentinel")
	}
}

func TestWrapClassified(t *testing.T) {
	tests := []struct {
		name     string
		wrapFunc func(error, string, string, string) error
		class    ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.wrapFunc(nil, "c", "m", "a") != nil {
				t.Fatal("wrapping nil must return nil")
			}

			err := test.wrapFunc(ErrModuleNotFound, "Loader", "Load", "factory lookup")

			var ce *ClassifiedError
			if !errors.As(err, &ce) {
				t.Fatalf("expected a ClassifiedError, got %T", err)
			}
			if ce.Class != test.class {
				t.Errorf("expected class %v, got %v", test.class, ce.Class)
			}
			if ce.Component != "Loader" || ce.Operation != "Load" {
				t.Errorf("unexpected context %s.%s", ce.Component, ce.Operation)
			}
			if !errors.Is(err, ErrModuleNotFound) {
				t.Error("classified error should unwrap to its sentinel")
			}
		})
	}
}
