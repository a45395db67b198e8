package deferred

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSucceedAndJoin(t *testing.T) {
	t.Parallel()
	d := Succeed(42)
	v, err := d.JoinTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestFailAndJoin(t *testing.T) {
	t.Parallel()
	want := errors.New("boom")
	d := Fail(want)
	v, err := d.JoinTimeout(time.Second)
	require.Nil(t, v)
	require.ErrorIs(t, err, want)
}

func TestOnSuccessSkippedOnErrorPath(t *testing.T) {
	t.Parallel()
	var called bool
	d := Fail(errors.New("boom"))
	d.OnSuccess(func(v any) any {
		called = true
		return v
	})
	_, _ = d.JoinTimeout(time.Second)
	require.False(t, called)
}

func TestOnErrorRecoversToSuccessPath(t *testing.T) {
	t.Parallel()
	d := Fail(errors.New("boom"))
	d.OnError(func(v any) any {
		return "recovered"
	})
	v, err := d.JoinTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, "recovered", v)
}

func TestOnSuccessCanSwitchToErrorPath(t *testing.T) {
	t.Parallel()
	want := errors.New("switched")
	d := Succeed(1)
	d.OnSuccess(func(v any) any {
		return want
	})
	var sawErrorPath bool
	d.OnError(func(v any) any {
		sawErrorPath = true
		return v
	})
	_, err := d.JoinTimeout(time.Second)
	require.True(t, sawErrorPath)
	require.ErrorIs(t, err, want)
}

func TestPassThroughOnNilHalf(t *testing.T) {
	t.Parallel()
	d := Succeed("value")
	d.AddCallbacks(nil, func(v any) any {
		t.Fatal("error path should not run")
		return v
	})
	v, err := d.JoinTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, "value", v)
}

func TestAddCallbacksBothNilPanics(t *testing.T) {
	t.Parallel()
	d := New()
	require.PanicsWithValue(t, &ProgrammingError{Kind: NilLink, Message: "AddCallbacks given a nil Link on both paths"}, func() {
		d.AddCallbacks(nil, nil)
	})
}

func TestOnSuccessNilLinkPanics(t *testing.T) {
	t.Parallel()
	d := New()
	require.PanicsWithValue(t, &ProgrammingError{Kind: NilLink, Message: "nil Link passed to a single-sided callback registration"}, func() {
		d.OnSuccess(nil)
	})
}

func TestDoubleCompletePanics(t *testing.T) {
	t.Parallel()
	d := Succeed(1)
	require.PanicsWithValue(t, &ProgrammingError{Kind: DoubleComplete, Message: "Complete called on a Deferred that had already left the Pending state"}, func() {
		d.Complete(2)
	})
}

func TestCompleteSelfReferencePanics(t *testing.T) {
	t.Parallel()
	d := New()
	require.PanicsWithValue(t, &ProgrammingError{Kind: SelfReference, Message: "Complete called with the Deferred itself as the value"}, func() {
		d.Complete(d)
	})
}

func TestChainSelfReferencePanics(t *testing.T) {
	t.Parallel()
	d := New()
	require.PanicsWithValue(t, &ProgrammingError{Kind: SelfReference, Message: "Chain called with the Deferred itself as the target"}, func() {
		d.Chain(d)
	})
}

func TestLinkReturningSelfPanics(t *testing.T) {
	t.Parallel()
	d := New()
	d.OnSuccess(func(v any) any {
		return d
	})
	require.Panics(t, func() {
		d.Complete(1)
	})
}

func TestAppendAfterDoneDrainsImmediately(t *testing.T) {
	t.Parallel()
	d := Succeed(10)
	v, err := d.JoinTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, 10, v)

	var ran bool
	d.OnSuccess(func(val any) any {
		ran = true
		return val
	})
	require.True(t, ran, "AddCallbacks onto a Done Deferred must drain synchronously")
}

func TestContinuationFastPath(t *testing.T) {
	t.Parallel()
	inner := Succeed("inner value")
	outer := New()
	outer.OnSuccess(func(v any) any {
		return inner
	})
	outer.Complete(1)

	v, err := outer.JoinTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, "inner value", v)
}

func TestCompleteWithDeferredValuePausesBeforeAnyLinkRuns(t *testing.T) {
	t.Parallel()
	var linkRan bool
	outer := New()
	outer.OnSuccess(func(v any) any {
		linkRan = true
		return v
	})

	inner := New()
	outer.Complete(inner)
	require.Equal(t, "Paused", outer.State())
	require.False(t, linkRan, "no link may run until the nested deferred settles")

	inner.Complete("resolved later")
	require.True(t, linkRan)

	v, err := outer.JoinTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, "resolved later", v)
}

func TestCompleteWithAlreadyDoneDeferredValueFastPath(t *testing.T) {
	t.Parallel()
	inner := Succeed("already done")
	outer := New()
	outer.Complete(inner)

	v, err := outer.JoinTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, "already done", v)
}

func TestContinuationSlowPath(t *testing.T) {
	t.Parallel()
	inner := New()
	outer := New()
	outer.OnSuccess(func(v any) any {
		return inner
	})
	outer.Complete(1)

	require.Equal(t, "Paused", outer.State())

	inner.Complete("resumed value")

	v, err := outer.JoinTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, "resumed value", v)
}

func TestContinuationPropagatesInnerError(t *testing.T) {
	t.Parallel()
	innerErr := errors.New("inner failed")
	inner := New()
	outer := New()
	outer.OnSuccess(func(v any) any {
		return inner
	})
	outer.Complete(1)
	inner.Complete(innerErr)

	_, err := outer.JoinTimeout(time.Second)
	require.ErrorIs(t, err, innerErr)
}

func TestChainAdoptsOutcome(t *testing.T) {
	t.Parallel()
	source := New()
	target := New()
	source.Chain(target)
	source.Complete("adopted")

	v, err := target.JoinTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, "adopted", v)
}

func TestJoinTimeoutOnPendingReturnsTimeoutError(t *testing.T) {
	t.Parallel()
	d := New()
	_, err := d.JoinTimeout(10 * time.Millisecond)
	require.ErrorAs(t, err, new(*TimeoutError))
}

func TestJoinTimeoutNegativePanics(t *testing.T) {
	t.Parallel()
	d := New()
	require.PanicsWithValue(t, &ProgrammingError{Kind: NegativeTimeout, Message: "JoinTimeout called with a negative duration"}, func() {
		_, _ = d.JoinTimeout(-time.Second)
	})
}

func TestToChannelPreFilledWhenAlreadyDone(t *testing.T) {
	t.Parallel()
	d := Succeed("done")
	ch := d.ToChannel()
	select {
	case v := <-ch:
		require.Equal(t, "done", v)
	case <-time.After(time.Second):
		t.Fatal("expected pre-filled channel")
	}
}

func TestConcurrentAddCallbacksAndComplete(t *testing.T) {
	t.Parallel()
	d := New()

	const n = 200
	var wg sync.WaitGroup
	results := make([]any, n)

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.AddCallbacks(func(v any) any {
				results[i] = v
				return v
			}, func(v any) any {
				results[i] = v
				return v
			})
		}()
	}

	// Give appenders a chance to race with Complete from every angle.
	go d.Complete("final")
	wg.Wait()

	v, err := d.JoinTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, "final", v)

	for i, r := range results {
		require.Equal(t, "final", r, "callback %d did not observe the final value", i)
	}
}

func TestGrowsChainPastInitialCapacityEndToEnd(t *testing.T) {
	t.Parallel()
	d := New()
	const n = 50
	var count int
	for i := 0; i < n; i++ {
		d.OnSuccess(func(v any) any {
			count++
			return v
		})
	}
	d.Complete(0)
	require.Equal(t, n, count)
}

func TestChainOverflowPreservesEarlierLinksThroughPublicAPI(t *testing.T) {
	t.Parallel()
	d := New()
	var ran int
	for i := 0; i < MaxChainPairs; i++ {
		d.OnSuccess(func(v any) any {
			ran++
			return v
		})
	}

	require.PanicsWithValue(t, &ProgrammingError{Kind: ChainOverflow, Message: "chain already holds MaxChainPairs pairs"}, func() {
		d.OnSuccess(func(v any) any { return v })
	})

	d.Complete(0)
	require.Equal(t, MaxChainPairs, ran, "every link registered before the overflow must still run")
}

func TestErrorKindDetectionIsStructural(t *testing.T) {
	t.Parallel()
	d := New()
	var gotErrorPath bool
	d.OnError(func(v any) any {
		gotErrorPath = true
		return v
	})
	d.Complete(fmt.Errorf("structural error"))
	require.True(t, gotErrorPath)
}
