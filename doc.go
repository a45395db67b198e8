// Package deferred provides a thread-safe asynchronous-result primitive,
// a "deferred", modeled on OpenTSDB's com.stumbleupon.async.Deferred: a
// single mutable object carrying a dynamic, append-after-creation, ordered
// chain of callbacks, rather than a new object per continuation the way
// JavaScript Promises or Go's own future-style libraries work.
//
// # Architecture
//
// A [Deferred] starts Pending, holding no value and an empty chain. Links
// are appended to its chain with [Deferred.AddCallbacks] (or the
// single-sided [Deferred.OnSuccess], [Deferred.OnError],
// [Deferred.OnBoth]) at any time, before or after the Deferred settles.
// [Deferred.Complete] supplies the terminal value (success or, if the
// value implements error, error kind) and drains the chain: each pair's
// success or error half runs in order, on whichever goroutine is doing the
// draining, threading its return value to the next pair as the new
// carried value.
//
// A Link may itself return another *Deferred. When that happens, the
// chain transparently suspends (the outer Deferred enters the Paused
// state) until the inner Deferred settles, then resumes with the inner
// Deferred's outcome as though the inner chain had been spliced in place,
// the continuation protocol implemented in deferred.go. If the inner
// Deferred is already Done, this happens
// synchronously, inline, without ever pausing.
//
// [Group] and [GroupInOrder] turn a slice of Deferreds into one Deferred
// that settles once they all have, carrying every child outcome and, if
// any child failed, a [GroupedError].
//
// # Thread Safety
//
// Every exported method on [Deferred] is safe to call concurrently from
// any goroutine. Internally, a single mutex per Deferred serializes chain
// append and chain drain so that the race between "a new pair is appended
// just as the chain goes empty" always resolves one way or the other,
// never losing the append: the transition to the Done state happens
// inside the same lock acquisition that observed the chain as empty.
//
// There is no scheduler, thread pool, timer wheel, or I/O anywhere in this
// package: a Link runs on the calling goroutine of whichever operation
// reaches it: Complete, an AddCallbacks call onto an already-Done
// Deferred, or the resumption of a paused continuation.
//
// # Usage
//
//	d := deferred.New()
//	d.OnSuccess(func(v any) any {
//	    return fmt.Sprintf("got %v", v)
//	})
//	d.OnError(func(v any) any {
//	    return "fallback"
//	})
//	d.Complete(42)
//	v, err := d.JoinTimeout(time.Second)
//
// # Error Types
//
// This package distinguishes two kinds of error:
//   - A carried error is any value flowing down a chain's error path: an
//     ordinary Go error value, tested dynamically via implements-error,
//     never a distinct wrapper type.
//   - A [ProgrammingError] is an invariant violation in how the API itself
//     was used (double completion, a nil Link, chain overflow, a negative
//     join timeout, a resume firing out of turn, a self-referencing
//     Deferred). These surface as panics, never as carried values, the
//     same way an out-of-range slice index does.
//
// [TimeoutError] is the one error returned (not panicked) by this
// package's own API, from JoinTimeout/JoinUninterruptible, since a
// timed-out blocking call is an ordinary runtime outcome rather than
// misuse; Join instead returns its context's ctx.Err(). [TypeError] plays the equivalent role for [Typed], whose Join
// methods must validate a settled value's dynamic type against T.
//
// All error types implement the standard [error] interface and, where it
// makes sense, [errors.Unwrap] and [errors.Is]-compatible matching.
package deferred
