// Package recipe defines the transformation unit contract: a named recipe
// produces exactly one variable from a list of ingredient variables and
// implements the nonlinear, tangent-linear and adjoint execution modes.
// It also provides the recipe registry and the engine's error taxonomy.
package recipe

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies engine errors for programmatic handling.
type ErrorKind string

const (
	// KindDuplicateRecipe indicates a registry name collision at startup.
	// Fatal: two factories cannot share one name.
	KindDuplicateRecipe ErrorKind = "duplicate_recipe"

	// KindUnknownRecipe indicates a create call for an unregistered name.
	KindUnknownRecipe ErrorKind = "unknown_recipe"

	// KindUnresolvableVariable indicates no candidate chain in the cookbook
	// can derive the requested variable from the available set.
	KindUnresolvableVariable ErrorKind = "unresolvable_variable"

	// KindCyclicDependency indicates the cookbook search re-entered a
	// variable already being resolved on the current path.
	KindCyclicDependency ErrorKind = "cyclic_dependency"

	// KindMissingMetadata indicates a recipe's numeric precondition failed:
	// a required metadata key is absent from an ingredient field.
	KindMissingMetadata ErrorKind = "missing_metadata"

	// KindExecutionFailure indicates a recipe's NL/TL/AD call failed.
	// The remainder of the plan is abandoned; earlier writes stand.
	KindExecutionFailure ErrorKind = "execution_failure"

	// KindMissingTrajectory indicates an adjoint execution was requested
	// before any NL/TL pass established the reference state for the plan.
	KindMissingTrajectory ErrorKind = "missing_trajectory"

	// KindNoTLAD indicates a diagnostic-only recipe was asked to run in
	// tangent-linear or adjoint mode.
	KindNoTLAD ErrorKind = "no_tlad"

	// KindValidation covers malformed configuration or plan input.
	KindValidation ErrorKind = "validation"
)

// Error is the classified error used across the engine. Resolution-time
// kinds are recoverable by the caller (a different cookbook or available
// set may succeed); execution-time kinds leave partial field mutation
// visible.
type Error struct {
	// Kind is the error classification.
	Kind ErrorKind

	// Message is the human-readable description.
	Message string

	// Recipe names the recipe involved, if any.
	Recipe string

	// Variable names the variable involved, if any.
	Variable string

	// Path holds the resolution path for cyclic dependency errors.
	Path []string

	// Err is the wrapped underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Message)
	if e.Variable != "" {
		fmt.Fprintf(&b, " (variable=%s", e.Variable)
		if e.Recipe != "" {
			fmt.Fprintf(&b, ", recipe=%s", e.Recipe)
		}
		b.WriteString(")")
	} else if e.Recipe != "" {
		fmt.Fprintf(&b, " (recipe=%s)", e.Recipe)
	}
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Path, " -> "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *Error) Unwrap() error { return e.Err }

// Is matches two engine errors by kind, so sentinel comparisons like
// errors.Is(err, &Error{Kind: KindCyclicDependency}) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithRecipe attaches recipe context to the error.
func (e *Error) WithRecipe(name string) *Error {
	e.Recipe = name
	return e
}

// WithVariable attaches variable context to the error.
func (e *Error) WithVariable(name string) *Error {
	e.Variable = name
	return e
}

// WithPath attaches a resolution path to the error, e.g. the cycle found
// during cookbook search.
func (e *Error) WithPath(path []string) *Error {
	e.Path = path
	return e
}

// NewError creates a classified error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, or the empty kind when err is
// not an engine error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// HasKind reports whether any error in err's chain carries the given
// kind. Unlike IsKind it sees through wrapping, e.g. a missing_metadata
// cause inside an execution_failure.
func HasKind(err error, kind ErrorKind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
