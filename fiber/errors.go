package fiber

import (
	"errors"
	"fmt"
)

var (
	// Structural faults. These indicate a broken internal invariant and are
	// raised as panics carrying a *StructuralError.
	ErrUnknownKind        = errors.New("fiber: unknown fiber kind")
	ErrUnknownElementType = errors.New("fiber: unknown element type")
	ErrNoHostParent       = errors.New("fiber: no host parent")
	ErrHookOrder          = errors.New("fiber: hook order changed between renders")

	ErrNilHost            = errors.New("fiber: nil host adapter")
	ErrNotMounted         = errors.New("fiber: component is not mounted")
	ErrUnsupportedPayload = errors.New("fiber: unsupported update payload")
	ErrForeignTarget      = errors.New("fiber: update target belongs to another reconciler")
	ErrUnknownEvent       = errors.New("fiber: unknown event")
	ErrHookCallback       = errors.New("fiber: hook dispatch does not take a callback")
)

// StructuralError is the panic value for internal invariant violations.
type StructuralError struct {
	Op     string
	Detail string
	Err    error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Detail)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func structural(op string, err error, format string, args ...any) *StructuralError {
	return &StructuralError{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// LifecycleError reports a panic recovered from a user callback during the
// commit phase or event dispatch.
type LifecycleError struct {
	Phase     string
	Component string
	Cause     error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s in %s: %v", e.Phase, e.Component, e.Cause)
}

func (e *LifecycleError) Unwrap() error {
	return e.Cause
}

func panicToError(v any) error {
	switch v := v.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}
