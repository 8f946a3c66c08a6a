package llm

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy holds retry configuration for completion calls.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; it doubles per attempt.
	BaseDelay time.Duration

	// JitterFraction bounds the random addition as a fraction of the backoff.
	JitterFraction float64
}

// DefaultRetryPolicy returns 3 attempts, 1s base delay and up to 30% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		JitterFraction: 0.3,
	}
}

// Backoff returns base·2^attempt plus jitter in [0, JitterFraction·base·2^attempt).
// attempt is zero-based: Backoff(0) is the wait after the first failure.
// rnd must return values in [0, 1).
func (p RetryPolicy) Backoff(attempt int, rnd func() float64) time.Duration {
	exp := p.BaseDelay << uint(attempt)
	jitter := time.Duration(rnd() * p.JitterFraction * float64(exp))
	return exp + jitter
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retrier runs an operation with bounded retries and exponential backoff.
// It keeps no state between calls and is safe for concurrent use.
type Retrier struct {
	policy RetryPolicy
	sleep  SleepFunc
	rand   func() float64
	logger *zap.Logger
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithSleep replaces the backoff sleeper (tests record delays instead of waiting).
func WithSleep(fn SleepFunc) RetrierOption {
	return func(r *Retrier) { r.sleep = fn }
}

// WithRand replaces the jitter source.
func WithRand(fn func() float64) RetrierOption {
	return func(r *Retrier) { r.rand = fn }
}

// WithRetryLogger sets the logger used for retry notices.
func WithRetryLogger(logger *zap.Logger) RetrierOption {
	return func(r *Retrier) { r.logger = logger }
}

// NewRetrier creates a Retrier. A policy with MaxAttempts < 1 runs once.
func NewRetrier(policy RetryPolicy, opts ...RetrierOption) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	r := &Retrier{
		policy: policy,
		sleep:  sleepContext,
		rand:   rand.Float64,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do calls fn until it succeeds, returns a non-retryable error, or attempts run
// out. It returns the number of attempts made and the last error.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	var lastErr error
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return attempt + 1, nil
		}
		lastErr = err

		kind := KindOf(err)
		if !kind.Retryable() {
			return attempt + 1, err
		}
		if attempt == r.policy.MaxAttempts-1 {
			break
		}

		delay := r.policy.Backoff(attempt, r.rand)
		r.logger.Info("completion attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", r.policy.MaxAttempts),
			zap.Duration("backoff", delay),
			zap.Stringer("kind", kind),
			zap.Error(err))

		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return attempt + 1, &Error{Kind: KindCanceled, Message: "abandoned during backoff", Err: sleepErr}
		}
	}
	return r.policy.MaxAttempts, lastErr
}
