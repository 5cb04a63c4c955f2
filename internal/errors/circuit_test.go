package errors

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TS07: Circuit breaker opens after max failures
func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	// Given: a circuit breaker with max 3 failures
	cb := NewCircuitBreaker("test",
		WithMaxFailures(3),
		WithResetTimeout(1*time.Second),
	)

	// When: recording 3 failures
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error {
			return errors.New("error")
		})
	}

	// Then: circuit is open
	assert.Equal(t, StateOpen, cb.State())

	// And: requests are rejected without calling fn
	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.False(t, called)
}

func TestCircuitBreaker_OpenErrorCarriesLastFailure(t *testing.T) {
	// Given: a breaker tripped by a model load failure
	cb := NewCircuitBreaker("encoder", WithMaxFailures(1), WithResetTimeout(time.Minute))
	loadErr := ModelUnavailable("all-minilm", errors.New("connection refused"))
	_ = cb.Execute(func() error { return loadErr })

	// When: executing again
	err := cb.Execute(func() error { return nil })

	// Then: the error is both circuit-open and the original failure
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, ErrCodeModelUnavailable, GetCode(err))
}

// TS08: Circuit breaker recovers after timeout
func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	// Given: an open circuit breaker with a controllable clock
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker("test",
		WithMaxFailures(2),
		WithResetTimeout(50*time.Millisecond),
		withClock(func() time.Time { return now }),
	)
	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error { return errors.New("error") })
	}
	require.Equal(t, StateOpen, cb.State())

	// When: the reset timeout elapses
	now = now.Add(60 * time.Millisecond)

	// Then: circuit is half-open and allows a probe
	assert.Equal(t, StateHalfOpen, cb.State())
	executed := false
	err := cb.Execute(func() error {
		executed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, executed)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	// Given: a half-open breaker that needs 3 failures to trip from closed
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker("test",
		WithMaxFailures(3),
		WithResetTimeout(time.Second),
		withClock(func() time.Time { return now }),
	)
	for i := 0; i < 3; i++ {
		cb.RecordFailure(errors.New("boom"))
	}
	now = now.Add(2 * time.Second)
	require.Equal(t, StateHalfOpen, cb.State())

	// When: the probe fails
	cb.RecordFailure(errors.New("still down"))

	// Then: the circuit reopens at once
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("defaults", WithMaxFailures(0), WithResetTimeout(0))

	assert.Equal(t, "defaults", cb.Name())
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())

	for i := 0; i < 4; i++ {
		cb.RecordFailure(errors.New("x"))
	}
	assert.Equal(t, StateClosed, cb.State())
	cb.RecordFailure(errors.New("x"))
	assert.Equal(t, StateOpen, cb.State())
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	// Given: a breaker shared by many goroutines
	cb := NewCircuitBreaker("concurrent", WithMaxFailures(1000))

	// When: recording failures and successes concurrently
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				cb.RecordFailure(errors.New("x"))
			} else {
				cb.RecordSuccess()
			}
			_ = cb.State()
		}(i)
	}
	wg.Wait()

	// Then: no race, breaker still usable
	assert.True(t, cb.Allow())
}
