package resilience

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// BackoffFunc returns the wait before retry number attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// RetryConfig controls how an operation is retried.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff computes the delay between attempts. Nil means DefaultBackoff.
	Backoff BackoffFunc

	// ShouldRetry reports whether err is worth another attempt.
	// Nil retries every error.
	ShouldRetry func(err error) bool

	// OnRetry is called before each wait with the failed attempt number.
	OnRetry func(attempt int, err error)
}

// Exponential returns multiplier*2^(attempt-1), clamped to [minWait, maxWait].
func Exponential(multiplier, minWait, maxWait time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		delay := float64(multiplier) * math.Pow(2, float64(attempt-1))
		if delay > float64(maxWait) {
			delay = float64(maxWait)
		}
		if delay < float64(minWait) {
			delay = float64(minWait)
		}
		return time.Duration(delay)
	}
}

// DefaultBackoff waits 1s*2^(n-1), kept between 4s and 10s.
var DefaultBackoff = Exponential(time.Second, 4*time.Second, 10*time.Second)

// DefaultRetryConfig returns three attempts with DefaultBackoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Backoff:     DefaultBackoff,
	}
}

// Do runs fn until it succeeds, cfg.MaxAttempts is reached, or ctx is done.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for operations that produce a value. The last error is
// returned once attempts run out.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = applyDefaults(cfg)

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !cfg.ShouldRetry(err) || attempt == cfg.MaxAttempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		timer := time.NewTimer(cfg.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff == nil {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = func(error) bool { return true }
	}
	return cfg
}

// RetryLogger returns an OnRetry callback that logs each retry on logger.
func RetryLogger(logger *zap.Logger, operation string) func(int, error) {
	if logger == nil {
		logger = zap.L()
	}
	return func(attempt int, err error) {
		logger.Warn("retrying operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
