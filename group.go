package deferred

import "sync"

// Group returns a Deferred that settles once every child has settled. Its
// success value is a []any the same length as children, holding each
// child's terminal value (success values and errors side by side) in
// completion order: the order children actually settled in, not the
// order they were passed in. If any child settled with an error, the
// parent settles with a *GroupedError carrying the same outcome slice and
// the first error encountered.
//
// Calling Group with no children returns an already-succeeded Deferred
// whose value is an empty, non-nil []any.
func Group(children ...*Deferred) *Deferred {
	return group(children, false)
}

// GroupInOrder is like [Group], except the outcome slice preserves the
// order children were passed in, regardless of the order they actually
// settled in.
func GroupInOrder(children ...*Deferred) *Deferred {
	return group(children, true)
}

func group(children []*Deferred, ordered bool) *Deferred {
	parent := New()
	n := len(children)
	if n == 0 {
		parent.Complete([]any{})
		return parent
	}

	outcomes := make([]any, n)

	var (
		mu        sync.Mutex
		remaining = n
		nextSlot  = 0
	)

	finalize := func() {
		failed := 0
		var first error
		for _, o := range outcomes {
			if e, ok := asError(o); ok {
				failed++
				if first == nil {
					first = e
				}
			}
		}
		logGroupFinalize(parent, n, failed)
		if failed == 0 {
			parent.Complete(outcomes)
		} else {
			parent.Complete(&GroupedError{Outcomes: outcomes, First: first})
		}
	}

	record := func(slot int, v any) {
		mu.Lock()
		outcomes[slot] = v
		remaining--
		done := remaining == 0
		mu.Unlock()
		if done {
			finalize()
		}
	}

	if ordered {
		for i, child := range children {
			i := i
			link := func(v any) any {
				record(i, v)
				return v
			}
			child.AddCallbacks(link, link)
		}
	} else {
		// A single shared Link instance, reused for every child's both
		// paths: completion order is whatever order the runtime delivers
		// calls into this closure, which is exactly the outcome order an
		// unordered Group reports.
		shared := func(v any) any {
			mu.Lock()
			slot := nextSlot
			nextSlot++
			mu.Unlock()
			record(slot, v)
			return v
		}
		for _, child := range children {
			child.AddCallbacks(shared, shared)
		}
	}

	return parent
}
