package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// recordingSleep returns a SleepFunc that records delays without waiting.
func recordingSleep(delays *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRetryPolicy_Backoff_Bounds(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()
	for attempt := 0; attempt < 4; attempt++ {
		exp := time.Second << uint(attempt)
		assert.Equal(t, exp, p.Backoff(attempt, func() float64 { return 0 }), "attempt %d without jitter", attempt)

		maxJitter := p.Backoff(attempt, func() float64 { return 0.9999 })
		assert.Greater(t, maxJitter, exp)
		assert.Less(t, maxJitter, exp+time.Duration(0.3*float64(exp)))
	}
}

func TestRetrier_TransientTwiceThenSuccess(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	r := NewRetrier(DefaultRetryPolicy(), WithSleep(recordingSleep(&delays)))

	calls := 0
	attempts, err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &Error{Kind: KindTransient, Status: 503, Message: "unavailable"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	require.Len(t, delays, 2)

	assert.GreaterOrEqual(t, delays[0], 1000*time.Millisecond)
	assert.Less(t, delays[0], 1300*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 2000*time.Millisecond)
	assert.Less(t, delays[1], 2600*time.Millisecond)

	total := delays[0] + delays[1]
	assert.GreaterOrEqual(t, total, 3000*time.Millisecond)
	assert.Less(t, total, 3900*time.Millisecond)
}

func TestRetrier_QuotaFailsImmediately(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	r := NewRetrier(DefaultRetryPolicy(), WithSleep(recordingSleep(&delays)))

	calls := 0
	attempts, err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return newStatusError(429, "quota exceeded")
	})

	require.Error(t, err)
	assert.Equal(t, KindQuota, KindOf(err))
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestRetrier_AuthAndMalformedAreNotRetried(t *testing.T) {
	t.Parallel()

	for _, failure := range []error{
		newStatusError(401, "bad key"),
		newStatusError(403, "forbidden"),
		newMalformedError("response has no candidates", nil),
		newConfigError("gemini api key is not configured"),
	} {
		var delays []time.Duration
		r := NewRetrier(DefaultRetryPolicy(), WithSleep(recordingSleep(&delays)))
		calls := 0
		_, err := r.Do(context.Background(), func(context.Context) error {
			calls++
			return failure
		})
		assert.ErrorIs(t, err, failure)
		assert.Equal(t, 1, calls, "kind %s", KindOf(failure))
		assert.Empty(t, delays)
	}
}

func TestRetrier_ExhaustsAndReturnsLastError(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	r := NewRetrier(DefaultRetryPolicy(), WithSleep(recordingSleep(&delays)))

	calls := 0
	var last error
	attempts, err := r.Do(context.Background(), func(context.Context) error {
		calls++
		last = newStatusError(500+calls, "boom")
		return last
	})

	assert.Same(t, last, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2, "no sleep after the final attempt")
}

func TestRetrier_UntypedErrorsAreRetried(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	r := NewRetrier(RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, JitterFraction: 0.3},
		WithSleep(recordingSleep(&delays)))

	calls := 0
	_, err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("connection reset")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetrier_CanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrier(RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour, JitterFraction: 0})
	calls := 0
	attempts, err := r.Do(ctx, func(context.Context) error {
		calls++
		return newStatusError(503, "unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, KindCanceled, KindOf(err))
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestNewRetrier_ZeroAttemptsRunsOnce(t *testing.T) {
	t.Parallel()

	r := NewRetrier(RetryPolicy{})
	calls := 0
	_, _ = r.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}

// Not parallel: the goroutine snapshot must not see other tests' servers.
func TestRetrier_AbandonedCallLeaksNothing(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	r := NewRetrier(RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		_, err := r.Do(ctx, func(context.Context) error {
			close(started)
			return &Error{Kind: KindTransient, Status: 503}
		})
		done <- err
	}()

	<-started
	cancel()
	err := <-done
	assert.Equal(t, KindCanceled, KindOf(err))
}
