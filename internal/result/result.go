// Package result provides the explicit Success/Error sum type used across
// the repository and engine boundaries in place of Go's usual (T, error)
// idiom ("Result-vs-exception duality") — expected absence
// and validation failure are distinct, typed outcomes, never panics or
// sentinel errors.
package result

import "fmt"

// Kind classifies why a Result failed.
type Kind string

const (
	// NotFound means the requested entity or row does not exist. This is
	// an expected, non-exceptional outcome — callers branch on it, they
	// do not log it as an error.
	NotFound Kind = "NotFound"

	// ValidationError means the caller's input or requested state change
	// is invalid on its own terms (malformed field, forbidden transition,
	// unmet prerequisite).
	ValidationError Kind = "ValidationError"

	// ConflictError means the operation collided with an existing
	// constraint (e.g. a unique ordinal, a foreign key still referenced).
	ConflictError Kind = "ConflictError"

	// DatabaseError means the repository failed for a reason unrelated to
	// the caller's input (I/O failure, malformed row, driver error).
	DatabaseError Kind = "DatabaseError"
)

// Err is the error payload of a failed Result.
type Err struct {
	Kind    Kind
	Message string
}

func (e *Err) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Result holds either a value or an Err, never both.
type Result[T any] struct {
	value T
	err   *Err
	ok    bool
}

// Ok constructs a successful Result.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Fail constructs a failed Result of kind with the given message.
func Fail[T any](kind Kind, message string) Result[T] {
	return Result[T]{err: &Err{Kind: kind, Message: message}}
}

// Failf constructs a failed Result with a formatted message.
func Failf[T any](kind Kind, format string, args ...any) Result[T] {
	return Fail[T](kind, fmt.Sprintf(format, args...))
}

// FromErr wraps a failed Result from an existing *Err, useful for
// re-propagating a failure from one Result[A] into a Result[B].
func FromErr[T any](err *Err) Result[T] {
	return Result[T]{err: err}
}

// IsOk reports whether the Result is a success.
func (r Result[T]) IsOk() bool { return r.ok }

// IsErr reports whether the Result is a failure.
func (r Result[T]) IsErr() bool { return !r.ok }

// Value returns the success value. Callers must check IsOk first; Value
// returns the zero value of T when the Result is an error.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure payload, or nil if the Result is a success.
func (r Result[T]) Err() *Err { return r.err }

// Unwrap returns (value, error) pairs in the conventional Go shape, for
// interop with code that wants the familiar idiom at a leaf call site.
func (r Result[T]) Unwrap() (T, error) {
	if r.ok {
		return r.value, nil
	}
	return r.value, r.err
}
