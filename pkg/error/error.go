package error

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Kind classifies evaluation errors by how the typing mode treats them.
// Data errors (TypeMismatch, Overflow, CardinalityViolation, DivisionByZero)
// are recoverable: under PERMISSIVE they become MISSING at the point of failure.
// The remaining kinds always abort the statement.
type Kind int

const (
	// KindTypeMismatch is raised when an operator receives operands of a kind it
	// does not accept, e.g. 5 > 'a' or NOT {a: 1}.
	KindTypeMismatch Kind = iota

	// KindOverflow is raised when a numeric or interval result does not fit its
	// declared precision, or an integer operation leaves the machine range.
	KindOverflow

	// KindCardinalityViolation is raised when a scalar subquery returns more than one row.
	KindCardinalityViolation

	// KindDivisionByZero is raised by / and % with a zero divisor.
	KindDivisionByZero

	// KindUnresolvedBinding is raised when a variable or global cannot be found.
	KindUnresolvedBinding

	// KindInvalidPlan is raised when the plan tree is structurally malformed.
	KindInvalidPlan

	// KindCatalogFailure is raised when the catalog cannot serve a lookup.
	KindCatalogFailure
)

var kindCodes = map[Kind]string{
	KindTypeMismatch:         "TYPE_MISMATCH",
	KindOverflow:             "OVERFLOW",
	KindCardinalityViolation: "CARDINALITY_VIOLATION",
	KindDivisionByZero:       "DIVISION_BY_ZERO",
	KindUnresolvedBinding:    "UNRESOLVED_BINDING",
	KindInvalidPlan:          "INVALID_PLAN",
	KindCatalogFailure:       "CATALOG_FAILURE",
}

// String returns the stable error code for the kind.
func (k Kind) String() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// Recoverable reports whether PERMISSIVE mode may substitute MISSING for this kind.
func (k Kind) Recoverable() bool {
	switch k {
	case KindTypeMismatch, KindOverflow, KindCardinalityViolation, KindDivisionByZero:
		return true
	default:
		return false
	}
}

// Error represents a structured evaluation error with rich context information.
type Error struct {
	// Kind classifies the error and decides how the typing mode handles it.
	Kind Kind

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	// Example: "operands: int32, string" where Message might be "cannot compare".
	Detail string

	// Operation identifies the evaluator operation that failed.
	// Examples: "Add", "Cast", "ScalarSubquery", "Scan".
	Operation string

	// Component identifies the evaluator component where the error originated.
	// Examples: "expr", "join", "aggregation", "catalog".
	Component string

	// Cause is the underlying error that triggered this error.
	Cause error

	// Stack contains the call stack where this error was created.
	Stack []uintptr
}

// New creates a new Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Stack:   captureStack(),
	}
}

// Newf creates a new Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(),
	}
}

// Wrap wraps an existing error with evaluator context.
// If the error already is an *Error, it is enriched with operation and
// component context (only if not already set) and its kind is kept.
func Wrap(err error, kind Kind, operation, component string) *Error {
	if err == nil {
		return nil
	}

	var evalErr *Error
	if errors.As(err, &evalErr) {
		if evalErr.Operation == "" {
			evalErr.Operation = operation
		}
		if evalErr.Component == "" {
			evalErr.Component = component
		}
		return evalErr
	}

	return &Error{
		Kind:      kind,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// TypeMismatch creates a KindTypeMismatch error.
func TypeMismatch(format string, args ...any) *Error {
	return &Error{Kind: KindTypeMismatch, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// Overflow creates a KindOverflow error.
func Overflow(format string, args ...any) *Error {
	return &Error{Kind: KindOverflow, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// CardinalityViolation creates a KindCardinalityViolation error.
func CardinalityViolation(format string, args ...any) *Error {
	return &Error{Kind: KindCardinalityViolation, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// DivisionByZero creates a KindDivisionByZero error.
func DivisionByZero(operation string) *Error {
	return &Error{Kind: KindDivisionByZero, Message: "division by zero", Operation: operation, Stack: captureStack()}
}

// Unresolved creates a KindUnresolvedBinding error for the given name.
func Unresolved(name string) *Error {
	return &Error{Kind: KindUnresolvedBinding, Message: "unresolved binding", Detail: name, Stack: captureStack()}
}

// InvalidPlan creates a KindInvalidPlan error.
func InvalidPlan(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidPlan, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// WithOperation sets the operation if it is not already set and returns the receiver.
func (e *Error) WithOperation(operation string) *Error {
	if e.Operation == "" {
		e.Operation = operation
	}
	return e
}

// WithDetail sets the detail and returns the receiver.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// KindOf extracts the kind of err if it is, or wraps, an *Error.
func KindOf(err error) (Kind, bool) {
	var evalErr *Error
	if errors.As(err, &evalErr) {
		return evalErr.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsRecoverable reports whether err is a data error PERMISSIVE mode may absorb.
func IsRecoverable(err error) bool {
	k, ok := KindOf(err)
	return ok && k.Recoverable()
}

// captureStack captures the current call stack for debugging purposes.
// It skips the first 3 frames to exclude captureStack, the constructor, and the
// immediate caller, focusing on the actual error origin.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [KIND] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Kind, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error, enabling error chain traversal
// with Go's standard error handling functions like errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// FormatStack returns a human-readable stack trace for debugging purposes.
func (e *Error) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n",
			f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}
