package helpers

import (
	"testing"
	"time"

	"github.com/ledgerkit/api-test-harness/framework/opt"

	"github.com/stretchr/testify/assert"
)

func TestNonBlockingSend(t *testing.T) {
	unbuffered := make(chan string)
	assert.False(t, NonBlockingSend(unbuffered, "a"))

	buffered := make(chan string, 1)
	assert.True(t, NonBlockingSend(buffered, "a"))
	assert.False(t, NonBlockingSend(buffered, "b"))
	assert.Equal(t, "a", <-buffered)
}

func TestTryReceive(t *testing.T) {
	ch := make(chan string, 1)
	assert.Equal(t, opt.None[string](), TryReceive(ch, time.Millisecond))

	ch <- "a"
	assert.Equal(t, opt.Some("a"), TryReceive(ch, time.Millisecond))

	go func() {
		time.Sleep(time.Millisecond * 50)
		ch <- "b"
	}()
	assert.Equal(t, opt.Some("b"), TryReceive(ch, time.Second))

	close(ch)
	assert.Equal(t, opt.None[string](), TryReceive(ch, time.Second))
}

func TestDrain(t *testing.T) {
	ch := make(chan int, 5)
	assert.Nil(t, Drain(ch))

	ch <- 1
	ch <- 2
	assert.Equal(t, []int{1, 2}, Drain(ch))
	assert.Nil(t, Drain(ch))

	ch <- 3
	close(ch)
	assert.Equal(t, []int{3}, Drain(ch))
}

func TestRequireValue(t *testing.T) {
	tr1 := TestRecorder{PanicOnTerminate: true}
	ch := make(chan string, 1)
	assert.PanicsWithValue(t, &tr1, func() { _ = RequireValue(&tr1, ch, time.Millisecond) })
	if assert.Error(t, tr1.Err()) {
		assert.Contains(t, tr1.Err().Error(), "waiting for value of type string")
	}

	tr2 := TestRecorder{PanicOnTerminate: true}
	ch <- "a"
	assert.Equal(t, "a", RequireValue(&tr2, ch, time.Millisecond))
	assert.NoError(t, tr2.Err())
}

func TestRequireNoMoreValues(t *testing.T) {
	tr1 := TestRecorder{PanicOnTerminate: true}
	ch := make(chan string, 1)
	RequireNoMoreValues(&tr1, ch, time.Millisecond)
	assert.NoError(t, tr1.Err())

	tr2 := TestRecorder{PanicOnTerminate: true}
	ch <- "a"
	assert.Panics(t, func() { RequireNoMoreValues(&tr2, ch, time.Millisecond) })
	if assert.Error(t, tr2.Err()) {
		assert.Contains(t, tr2.Err().Error(), "extra value of type string")
	}
}
