package deferred

import (
	"context"
	"fmt"
	"time"
)

// Typed is a generic façade over the monomorphic *Deferred core: the chain
// itself still carries `any` internally, but construction and join return
// values statically typed as T. Building a typed chain (registering a Link
// that changes the carried type) is intentionally out of scope for this
// façade. A Link can return any type, including another *Deferred, so a
// generic Then[T, U] wrapper would need to re-derive the entire
// continuation protocol in terms of T and U without adding any safety the
// untyped core doesn't already provide at the one boundary that matters:
// reading the value back out.
type Typed[T any] struct {
	d *Deferred
}

// NewTyped returns a pending Typed[T].
func NewTyped[T any]() *Typed[T] {
	return &Typed[T]{d: New()}
}

// TypedSucceed returns a Typed[T] already terminal with success value v.
func TypedSucceed[T any](v T) *Typed[T] {
	return &Typed[T]{d: Succeed(v)}
}

// TypedFail returns a Typed[T] already terminal with error err.
func TypedFail[T any](err error) *Typed[T] {
	return &Typed[T]{d: Fail(err)}
}

// Underlying returns the untyped *Deferred backing t, for interop with
// AddCallbacks, Chain, Group, and the other untyped-core operations.
func (t *Typed[T]) Underlying() *Deferred {
	return t.d
}

// Complete sets t's terminal success value.
func (t *Typed[T]) Complete(v T) {
	t.d.Complete(v)
}

// Fail sets t's terminal error.
func (t *Typed[T]) Fail(err error) {
	t.d.Complete(err)
}

// typedResult converts an untyped (value, error) pair into (T, error),
// producing a *TypeError if the settled value's dynamic type is not T.
func typedResult[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	tv, ok := v.(T)
	if !ok {
		return zero, &TypeError{Message: fmt.Sprintf("deferred: typed: expected %T, got %T", zero, v)}
	}
	return tv, nil
}

// Join blocks until t settles or ctx is done, per (*Deferred).Join.
func (t *Typed[T]) Join(ctx context.Context) (T, error) {
	return typedResult[T](t.d.Join(ctx))
}

// JoinTimeout blocks until t settles or timeout elapses, per
// (*Deferred).JoinTimeout.
func (t *Typed[T]) JoinTimeout(timeout time.Duration) (T, error) {
	return typedResult[T](t.d.JoinTimeout(timeout))
}

// JoinUninterruptible blocks until t settles or timeout elapses, ignoring
// outer cancellation, per (*Deferred).JoinUninterruptible.
func (t *Typed[T]) JoinUninterruptible(timeout time.Duration) (T, error) {
	return typedResult[T](t.d.JoinUninterruptible(timeout))
}

// WithResolvers returns a pending Typed[T] alongside its own resolve and
// reject closures, ES2024 Promise.withResolvers-style. resolve and reject
// are equivalent to calling Complete/Fail on the returned Typed[T]
// directly; they exist for callers that want to hand the two closures to
// unrelated code without exposing the rest of the Typed[T] surface.
func WithResolvers[T any]() (t *Typed[T], resolve func(T), reject func(error)) {
	t = NewTyped[T]()
	resolve = t.Complete
	reject = t.Fail
	return t, resolve, reject
}
