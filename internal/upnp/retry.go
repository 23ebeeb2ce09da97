package upnp

import (
	"context"
	"errors"
	"time"

	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/metrics"
)

// RetryConfig configures retry behavior for requests to a media server.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the retry policy used for Browse and stream requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// retryableError marks a failure that may succeed on another attempt:
// transport errors and 5xx responses without a SOAP fault.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func retryable(err error) error {
	return &retryableError{err: err}
}

// withRetry runs fn until it succeeds, returns a non-retryable error, or the
// attempts are used up. Backoff doubles up to MaxBackoff.
func withRetry(ctx context.Context, action string, cfg RetryConfig, fn func(context.Context) error) error {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logging.Info("UPnP %s succeeded on retry %d", action, attempt)
			}
			return nil
		}

		lastErr = err

		var re *retryableError
		if !errors.As(err, &re) || ctx.Err() != nil {
			return err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxRetries {
			metrics.UPnPRetryAttempts.WithLabelValues(action).Inc()
			logging.Debug("UPnP %s failed: %v, retrying in %v (attempt %d/%d)",
				action, err, backoff, attempt+1, cfg.MaxRetries)

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}

			backoff *= 2
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}

	logging.Warn("UPnP %s failed after %d retries: %v", action, cfg.MaxRetries, lastErr)
	metrics.UPnPRetryFailures.WithLabelValues(action).Inc()
	return lastErr
}
