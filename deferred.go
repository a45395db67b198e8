// Package deferred implements a thread-safe asynchronous-result primitive
// modeled on OpenTSDB's com.stumbleupon.async.Deferred: a single mutable
// object carrying an append-after-creation, ordered chain of callbacks,
// rather than a new object per continuation the way JavaScript Promises
// work. See doc.go for the package-level architecture description.
package deferred

import (
	"sync"
	"sync/atomic"
)

var deferredIDSeq atomic.Uint64

// deferredID returns a small, stable, process-local identity for d, used
// only to correlate log lines for the same Deferred; it carries no
// semantic weight.
func deferredID(d *Deferred) uint64 {
	if d == nil {
		return 0
	}
	return d.id
}

// Deferred is a single mutable carrier for a value that becomes available
// later, together with the ordered chain of Links registered against it.
// Unlike a future, the chain may be extended after the Deferred has already
// gone terminal (the extension simply drains immediately on the caller's
// goroutine); unlike a plain callback list, each Link may itself return
// another *Deferred, transparently suspending the chain until that inner
// Deferred settles.
//
// The zero value is not usable; construct one with [New], [Succeed], or
// [Fail].
type Deferred struct {
	id    uint64
	mu    sync.Mutex
	state atomicState
	value any
	chain chain
}

// New returns a pending Deferred with no value and an empty chain.
func New() *Deferred {
	return &Deferred{id: deferredIDSeq.Add(1)}
}

// Succeed returns a Deferred already terminal with the given success value.
// If v is of error kind (implements error), the Deferred is still
// constructed via the normal Complete path, so it is of error kind too.
// Succeed names the common case; it does not force success.
func Succeed(v any) *Deferred {
	d := New()
	d.Complete(v)
	return d
}

// Fail returns a Deferred already terminal with the given error.
func Fail(err error) *Deferred {
	d := New()
	d.Complete(err)
	return d
}

// State reports the Deferred's current lifecycle state. This is intended
// for diagnostics and tests; correct use of the API should not need to
// branch on it, since AddCallbacks/Chain/Join already account for every
// state.
func (d *Deferred) State() string {
	return d.state.load().String()
}

// requireLink panics with a NilLink ProgrammingError if link is nil.
func requireLink(link Link) Link {
	if link == nil {
		panicProgrammingError(NilLink, "nil Link passed to a single-sided callback registration")
	}
	return link
}

// AddCallbacks appends a (onSuccess, onError) pair to the tail of the
// chain. Exactly one half runs when this slot is reached, chosen by
// whether the value arriving at that point is of error kind; a nil half
// means "pass the value through unchanged" on that path. Passing nil for
// both panics with a NilLink ProgrammingError, since a pair that does
// nothing on either path is never useful and is almost certainly a bug.
//
// If the Deferred is already Done, the pair drains immediately, on the
// calling goroutine, before AddCallbacks returns. Otherwise it is queued
// and will drain whenever the active drain (if any) reaches it, or when
// Complete eventually runs.
func (d *Deferred) AddCallbacks(onSuccess, onError Link) {
	if onSuccess == nil && onError == nil {
		panicProgrammingError(NilLink, "AddCallbacks given a nil Link on both paths")
	}

	d.mu.Lock()
	if d.chain.len() >= MaxChainPairs {
		// Release the lock before panicking so the pairs already queued can
		// still be drained by a later Complete.
		d.mu.Unlock()
		panicProgrammingError(ChainOverflow, "chain already holds MaxChainPairs pairs")
	}
	beforeCap := len(d.chain.pairs)
	st := d.state.load()
	switch st {
	case stateDone:
		d.chain.push(onSuccess, onError)
		if len(d.chain.pairs) != beforeCap {
			logChainGrow(d, beforeCap, len(d.chain.pairs))
		}
		// This goroutine observed the chain as empty and the state as Done
		// inside the same lock acquisition, so it alone is responsible for
		// restarting the drain.
		d.state.store(stateRunning)
		d.mu.Unlock()
		logAppendToDone(d)
		d.drain()
	default:
		d.chain.push(onSuccess, onError)
		if len(d.chain.pairs) != beforeCap {
			logChainGrow(d, beforeCap, len(d.chain.pairs))
		}
		d.mu.Unlock()
	}
}

// OnSuccess registers link to run only if the value reaching this point in
// the chain is of success kind (does not implement error). Passing nil
// panics with a NilLink ProgrammingError.
func (d *Deferred) OnSuccess(link Link) {
	d.AddCallbacks(requireLink(link), nil)
}

// OnError registers link to run only if the value reaching this point in
// the chain is of error kind. Passing nil panics with a NilLink
// ProgrammingError.
func (d *Deferred) OnError(link Link) {
	d.AddCallbacks(nil, requireLink(link))
}

// OnBoth registers link to run regardless of which kind the value reaching
// this point is. Passing nil panics with a NilLink ProgrammingError.
func (d *Deferred) OnBoth(link Link) {
	requireLink(link)
	d.AddCallbacks(link, link)
}

// Chain arranges for other to be completed with this Deferred's outcome
// once it is reached in the chain: other.Complete(v) runs on whichever
// path v takes. other must be Pending when that happens, or Complete will
// panic with a DoubleComplete ProgrammingError, same as any other caller
// racing to complete it twice. Passing d itself panics with a
// SelfReference ProgrammingError.
func (d *Deferred) Chain(other *Deferred) {
	if other == d {
		panicProgrammingError(SelfReference, "Chain called with the Deferred itself as the target")
	}
	adopt := func(v any) any {
		other.Complete(v)
		return v
	}
	d.AddCallbacks(adopt, adopt)
}

// Complete sets d's terminal value and begins draining its chain. v may be
// a success value or, if it implements error, an error-kind value; there
// is no separate "reject" entry point at this layer, [Fail] is sugar for
// [New] followed by Complete(err). Complete panics with a DoubleComplete ProgrammingError if
// d is not Pending, and with a SelfReference ProgrammingError if v is d
// itself.
//
// If v is itself a *Deferred (distinct from d), d enters the Paused state
// before any link runs, and adopts v's eventual outcome via the ordinary
// continuation protocol, a deliberate extension over primitives that
// forbid completing with a deferred value outright.
func (d *Deferred) Complete(v any) {
	inner, isDeferred := v.(*Deferred)
	if isDeferred && inner == d {
		panicProgrammingError(SelfReference, "Complete called with the Deferred itself as the value")
	}
	if !d.state.compareAndSwap(statePending, stateRunning) {
		panicProgrammingError(DoubleComplete, "Complete called on a Deferred that had already left the Pending state")
	}
	if isDeferred {
		d.pauseOn(inner)
		return
	}
	d.value = v
	d.drain()
}

// drain runs the active draining loop for d. It must only be called by a
// goroutine that has just won the transition into stateRunning (via
// Complete, via AddCallbacks observing Done, or via a continuation resume
// observing Paused); that transition is this package's single-writer
// discipline, guaranteeing exactly one goroutine executes drain for d at
// any given time.
func (d *Deferred) drain() {
	for {
		d.mu.Lock()
		p, ok := d.chain.pop()
		if !ok {
			// Capture the terminal value before relinquishing ownership:
			// once stateDone is visible, a concurrent AddCallbacks call may
			// win ownership and start mutating d.value on another
			// goroutine, so nothing after the store below may read it.
			finalValue := d.value
			d.state.store(stateDone)
			d.mu.Unlock()
			logComplete(d, isErrorKind(finalValue))
			return
		}
		d.mu.Unlock()

		var link Link
		if isErrorKind(d.value) {
			link = p.onError
		} else {
			link = p.onSuccess
		}
		if link == nil {
			continue
		}

		result := link(d.value)

		if inner, ok := result.(*Deferred); ok {
			if inner == d {
				panicProgrammingError(SelfReference, "a Link returned the Deferred it is installed on")
			}
			d.pauseOn(inner)
			return
		}

		d.value = result
	}
}

// pauseOn suspends d's drain on inner. If inner is already Done, its
// carried value is read directly and d's drain resumes synchronously on
// this call stack, without d entering Paused and without installing
// anything on inner: the "fast path" of the continuation protocol.
// Otherwise d enters Paused and a resume Link is installed on both of
// inner's paths; it fires later, on whatever goroutine eventually
// completes inner: the "slow path".
func (d *Deferred) pauseOn(inner *Deferred) {
	inner.mu.Lock()
	if inner.state.load() == stateDone {
		// A Done Deferred's value only changes after a goroutine moves it
		// back to Running, which requires inner.mu, so it is stable here.
		v := inner.value
		inner.mu.Unlock()
		d.value = v
		d.drain()
		return
	}
	inner.mu.Unlock()

	d.state.store(statePaused)
	logContinuationPaused(d, inner)

	resume := func(value any) any {
		if !d.state.compareAndSwap(statePaused, stateRunning) {
			panicProgrammingError(IllegalResume, "continuation resume fired while the outer Deferred was not Paused")
		}
		logContinuationResumed(d, inner)
		d.value = value
		d.drain()
		return nil
	}
	inner.AddCallbacks(resume, resume)
}

// ToChannel returns a channel that receives, exactly once, the value d
// carries when its chain reaches the link this call appends, then closes.
// If d is already Done, the channel is returned pre-filled with its
// terminal value. Links appended after this call do not affect the value
// sent. This is a select-compatible alternative to Join that never
// blocks a goroutine inside the package itself.
func (d *Deferred) ToChannel() <-chan any {
	ch := make(chan any, 1)
	d.OnBoth(func(v any) any {
		ch <- v
		close(ch)
		return v
	})
	return ch
}
