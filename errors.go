// Package deferred: error taxonomy.
package deferred

import (
	"errors"
	"fmt"
)

// ProgrammingErrorKind classifies a programming-error signal: an invariant
// violation in the use of this package's API, as opposed to a carried error
// flowing down a chain's error path. Programming errors are never caught by
// a link; they are surfaced immediately via panic.
type ProgrammingErrorKind int

const (
	// DoubleComplete: Complete (or Fail) was called on a Deferred that had
	// already left the pending state.
	DoubleComplete ProgrammingErrorKind = iota
	// SelfReference: a Deferred was asked to adopt or chain itself, either
	// directly (Complete(d) or d.Chain(d)) or via a link returning d.
	SelfReference
	// NilLink: AddCallbacks was given nil on both paths, or a single-sided
	// wrapper (OnSuccess, OnError, OnBoth) was given a nil Link.
	NilLink
	// ChainOverflow: the chain already holds MaxChainPairs pairs; the
	// requested append would exceed the bound.
	ChainOverflow
	// NegativeTimeout: a join was asked to wait for a negative duration.
	NegativeTimeout
	// IllegalResume: a continuation's resume link fired while the outer
	// Deferred was not in the Paused state it was installed to resume.
	IllegalResume
)

// String returns a short, stable name for the kind, used in error messages.
func (k ProgrammingErrorKind) String() string {
	switch k {
	case DoubleComplete:
		return "double complete"
	case SelfReference:
		return "self reference"
	case NilLink:
		return "nil link"
	case ChainOverflow:
		return "chain overflow"
	case NegativeTimeout:
		return "negative timeout"
	case IllegalResume:
		return "illegal resume"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ProgrammingError represents an invariant violation in how a Deferred was
// used: double completion, self-reference, a nil link, a chain that grew
// past MaxChainPairs, a negative join timeout, or a resume firing against a
// Deferred that was not Paused. These surface as panics, never as a
// carried value on the error path, and are never recovered by the core
// itself.
type ProgrammingError struct {
	Kind    ProgrammingErrorKind
	Message string
}

// Error implements the error interface.
func (e *ProgrammingError) Error() string {
	if e.Message == "" {
		return "deferred: " + e.Kind.String()
	}
	return "deferred: " + e.Kind.String() + ": " + e.Message
}

// Is reports whether target is a *ProgrammingError of the same Kind,
// letting callers write errors.Is(err, &ProgrammingError{Kind: SelfReference}).
func (e *ProgrammingError) Is(target error) bool {
	var pe *ProgrammingError
	if errors.As(target, &pe) {
		return pe.Kind == e.Kind
	}
	return false
}

func newProgrammingError(kind ProgrammingErrorKind, message string) *ProgrammingError {
	return &ProgrammingError{Kind: kind, Message: message}
}

func panicProgrammingError(kind ProgrammingErrorKind, message string) {
	panic(newProgrammingError(kind, message))
}

// TimeoutError is returned (not panicked) by JoinTimeout/
// JoinUninterruptible when the timeout elapses before the Deferred
// settles; its Cause is then context.DeadlineExceeded. Join, which waits
// on a context instead, returns ctx.Err() rather than a TimeoutError. Unlike a ProgrammingError, a timeout is an ordinary runtime
// outcome of a blocking call, so it follows Go's usual (value, error)
// convention rather than the panic convention used for misuse.
type TimeoutError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "deferred: join: timed out"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// TypeError reports that a value flowing through a typed facade ([Typed])
// did not have the expected static type. The untyped core is monomorphic
// (every link operates on `any`); a typed facade can only validate the
// type at the boundary where it hands a value back to Go code.
type TypeError struct {
	Message string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	if e.Message == "" {
		return "deferred: type error"
	}
	return e.Message
}

// GroupedError is the carried error a [Group] or [GroupInOrder] parent
// Deferred completes with when one or more children settled with an error.
// It holds every child outcome (success values and errors alike, in
// traversal order for GroupInOrder, completion order otherwise) plus the
// first error encountered, so a caller can see which children succeeded
// alongside which failed rather than losing the successful outcomes.
type GroupedError struct {
	// Outcomes holds every child's terminal value (success values and
	// errors, side by side) with the same length and order semantics as
	// the Group's own success value would have had.
	Outcomes []any
	// First is the first error encountered while scanning Outcomes.
	First error
}

// Error implements the error interface.
func (e *GroupedError) Error() string {
	n := 0
	for _, o := range e.Outcomes {
		if _, ok := o.(error); ok {
			n++
		}
	}
	return fmt.Sprintf("deferred: group: %d of %d children failed: %v", n, len(e.Outcomes), e.First)
}

// Unwrap returns the first error, so errors.Is/errors.As can match through
// a GroupedError straight to the underlying cause.
func (e *GroupedError) Unwrap() error {
	return e.First
}

// WrapError wraps a non-nil cause with a message. The result satisfies
// errors.Is(result, cause) == true. A nil cause is not special-cased.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

// isErrorKind reports whether v is "of error kind", the dynamic test this
// package's invariants use to decide whether a link's success or error
// path applies: v implements the error interface.
func isErrorKind(v any) bool {
	_, ok := v.(error)
	return ok
}

// asError extracts the error kind from v, if it is one.
func asError(v any) (error, bool) {
	e, ok := v.(error)
	return e, ok
}
