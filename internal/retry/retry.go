package retry

import (
	"errors"
	"strings"
	"syscall"
	"time"
)

// Retry executes fn with exponential backoff until it succeeds or maxAttempts is reached.
// The backoff doubles after each failed attempt starting from initialBackoff.
// Non-retryable errors (permission denied, missing directory) return immediately.
func Retry(fn func() error, maxAttempts int, initialBackoff time.Duration) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !IsRetryable(lastErr) {
			return lastErr
		}

		// Don't sleep after the last attempt
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	return lastErr
}

// IsRetryable returns true if the error is a transient storage error that should be retried.
// This covers interrupted or busy file operations and a locked SQLite database.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	for _, errno := range []syscall.Errno{syscall.EAGAIN, syscall.EBUSY, syscall.EINTR, syscall.ETXTBSY} {
		if errors.Is(err, errno) {
			return true
		}
	}

	// modernc.org/sqlite reports busy/locked states only through the message
	errStr := err.Error()
	if strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "resource temporarily unavailable") {
		return true
	}

	return false
}
