package deferred

import (
	"context"
	"time"
)

// oneYear is the threshold above which a join timeout is almost certainly
// a mistake (e.g. a duration arithmetic bug), but not one worth failing
// the call over: this only logs a warning, since an absurdly long timeout
// is still a valid one.
const oneYear = 365 * 24 * time.Hour

// errorOrValue splits a terminal value into the (value, error) pair Join
// returns: if v is of error kind, it is returned as the error with a nil
// value; otherwise it is returned as the value with a nil error.
func errorOrValue(v any) (any, error) {
	if err, ok := asError(v); ok {
		return nil, err
	}
	return v, nil
}

// Join blocks the calling goroutine until d settles or ctx is done,
// whichever comes first. If ctx is done first, it returns ctx.Err(). A
// condition variable would need to recheck its predicate in a loop to
// guard against spurious wakeups; Go's channel-based select has no such
// failure mode, so a single select suffices.
func (d *Deferred) Join(ctx context.Context) (any, error) {
	ch := d.ToChannel()
	select {
	case v := <-ch:
		return errorOrValue(v)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// JoinTimeout blocks the calling goroutine until d settles or timeout
// elapses, whichever comes first. A negative timeout panics with a
// NegativeTimeout ProgrammingError. A timeout longer than one year is
// logged as a warning (likely a mistake) but otherwise honored as given.
// If the timeout elapses first, the returned error is a *TimeoutError.
func (d *Deferred) JoinTimeout(timeout time.Duration) (any, error) {
	if timeout < 0 {
		panicProgrammingError(NegativeTimeout, "JoinTimeout called with a negative duration")
	}
	if timeout > oneYear {
		logJoinTimeout(d, timeout)
	}

	ch := d.ToChannel()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return errorOrValue(v)
	case <-timer.C:
		return nil, &TimeoutError{Cause: context.DeadlineExceeded, Message: "deferred: join: timed out after " + timeout.String()}
	}
}

// JoinUninterruptible blocks the calling goroutine until d settles or
// timeout elapses. Unlike Join, it takes no context.Context at all, so
// there is nothing an outer caller can cancel: the only way this call
// returns early is the timeout itself. Its body is identical to
// JoinTimeout's; JoinTimeout already accepts no context, so there is no
// cancellation surface left for this method to additionally suppress.
// It exists as its own name so call sites can say, explicitly, that
// ignoring cancellation is the intended behavior rather than an
// oversight. A negative timeout panics with a NegativeTimeout
// ProgrammingError.
func (d *Deferred) JoinUninterruptible(timeout time.Duration) (any, error) {
	return d.JoinTimeout(timeout)
}
