package helpers

import (
	"time"

	"github.com/ledgerkit/api-test-harness/framework/opt"
)

// NonBlockingSend pushes value onto ch unless the channel is full. It returns false if the
// value was dropped.
func NonBlockingSend[V any](ch chan<- V, value V) bool {
	select {
	case ch <- value:
		return true
	default:
		return false
	}
}

// TryReceive waits up to timeout for a value from ch. The result is undefined on timeout, and
// also if the channel was closed.
func TryReceive[V any](ch <-chan V, timeout time.Duration) opt.Maybe[V] {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			return opt.None[V]()
		}
		return opt.Some(value)
	case <-deadline.C:
		return opt.None[V]()
	}
}

// Drain returns every value that is immediately available on ch without waiting.
func Drain[V any](ch <-chan V) []V {
	var ret []V
	for {
		select {
		case value, ok := <-ch:
			if !ok {
				return ret
			}
			ret = append(ret, value)
		default:
			return ret
		}
	}
}

// RequireValue receives a value from ch, or fails and terminates the test if none arrives
// within the timeout.
func RequireValue[V any](t TestContext, ch <-chan V, timeout time.Duration) V {
	t.Helper()
	var empty V
	return RequireValueWithMessage(t, ch, timeout, "timed out waiting for value of type %T", empty)
}

// RequireValueWithMessage is RequireValue with a custom failure message.
func RequireValueWithMessage[V any](
	t TestContext,
	ch <-chan V,
	timeout time.Duration,
	msgFormat string,
	msgArgs ...interface{},
) V {
	t.Helper()
	received := TryReceive(ch, timeout)
	if !received.IsDefined() {
		t.Errorf(msgFormat, msgArgs...)
		t.FailNow()
	}
	return received.Value()
}

// RequireNoMoreValues fails and terminates the test if a value arrives on ch within the timeout.
func RequireNoMoreValues[V any](t TestContext, ch <-chan V, timeout time.Duration) {
	t.Helper()
	var empty V
	RequireNoMoreValuesWithMessage(t, ch, timeout, "received unexpected extra value of type %T", empty)
}

// RequireNoMoreValuesWithMessage is RequireNoMoreValues with a custom failure message.
func RequireNoMoreValuesWithMessage[V any](
	t TestContext,
	ch <-chan V,
	timeout time.Duration,
	msgFormat string,
	msgArgs ...interface{},
) {
	t.Helper()
	if TryReceive(ch, timeout).IsDefined() {
		t.Errorf(msgFormat, msgArgs...)
		t.FailNow()
	}
}
