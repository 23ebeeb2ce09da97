package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/google/renameio/v2"

	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/metrics"
)

// RetryConfig configures retries of filesystem operations.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig suits NFS and SMB mounts exported by a NAS.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// IsStale reports whether err is a stale file handle (ESTALE), which a
// network mount returns after the server side changed under an open handle.
func IsStale(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// Retry runs fn until it succeeds, fails with an error other than a stale
// file handle, or the retries are exhausted. operation labels metrics.
func Retry(operation, path string, config RetryConfig, fn func() error) error {
	backoff := config.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("Filesystem %s succeeded on retry %d for %s", operation, attempt, path)
			}
			return nil
		}
		if !IsStale(err) {
			return err
		}
		lastErr = err
		metrics.FilesystemStaleErrors.WithLabelValues(operation).Inc()

		if attempt < config.MaxRetries {
			metrics.FilesystemRetryAttempts.WithLabelValues(operation).Inc()
			logging.Debug("Stale file handle on %s of %s, retrying in %v (attempt %d/%d)",
				operation, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("Filesystem %s failed after %d retries for %s: %v", operation, config.MaxRetries, path, lastErr)
	metrics.FilesystemRetryFailures.WithLabelValues(operation).Inc()
	return lastErr
}

// ReadFile is os.ReadFile with stale-handle retries.
func ReadFile(path string, config RetryConfig) ([]byte, error) {
	var data []byte
	err := Retry("read", path, config, func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	})
	return data, err
}

// WriteFile atomically replaces path with data, retrying stale handles.
// Readers see either the old or the new content, never a partial file.
func WriteFile(path string, data []byte, perm os.FileMode, config RetryConfig) error {
	return Retry("write", path, config, func() error {
		return renameio.WriteFile(path, data, perm)
	})
}
