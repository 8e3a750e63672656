package sdkcommon

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrNotRegistered is the cause of every resolution that finds no factory
var ErrNotRegistered = errors.New("service not registered")

// ResolveError describes a failed registration or resolution
type ResolveError struct {
	Key        ServiceKey
	Scope      Scope
	Cause      error
	Context    string
	StackTrace []byte
}

func (e *ResolveError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("resolve error for %s (%s) during %s: %v", e.Key, e.Scope, e.Context, e.Cause)
	}
	return fmt.Sprintf("resolve error for %s (%s): %v", e.Key, e.Scope, e.Cause)
}

func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// IsNotRegistered reports whether err signals an absent registration
func IsNotRegistered(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}

// SafeTypeAssertion performs safe type assertion with proper error
func SafeTypeAssertion[T any](value any) (T, error) {
	if value == nil {
		var zero T
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion error: expected %T, got %T (value: %v)", zero, value, value)
	}

	return typed, nil
}

func newResolveError(key ServiceKey, scope Scope, cause error, context string) *ResolveError {
	return &ResolveError{
		Key:        key,
		Scope:      scope,
		Cause:      cause,
		Context:    context,
		StackTrace: debug.Stack(),
	}
}
