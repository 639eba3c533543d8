package errors

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls exponential backoff.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryConfig is used for provider calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// RetryFunc is one attempt.
type RetryFunc func(ctx context.Context) error

// RetryCallback is invoked before sleeping for the next attempt.
type RetryCallback func(attempt int, err error, delay time.Duration)

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// attempts are used up.
func Retry(ctx context.Context, cfg RetryConfig, fn RetryFunc) error {
	return RetryWithNotify(ctx, cfg, fn, func(attempt int, err error, delay time.Duration) {
		LogRetry(attempt, cfg.MaxAttempts, err, delay)
	})
}

// RetryWithNotify is Retry with a caller supplied callback.
func RetryWithNotify(ctx context.Context, cfg RetryConfig, fn RetryFunc, notify RetryCallback) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == attempts-1 {
			return err
		}

		delay := backoff(cfg, attempt, err)
		if notify != nil {
			notify(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func backoff(cfg RetryConfig, attempt int, err error) time.Duration {
	if wait := retryAfter(err); wait > 0 {
		return wait
	}

	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if max := float64(cfg.MaxDelay); max > 0 && delay > max {
		delay = max
	}
	if cfg.Jitter {
		delay += delay * 0.25 * (rand.Float64()*2 - 1)
	}
	return time.Duration(delay)
}
