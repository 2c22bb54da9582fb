// Package retry provides bounded retries with exponential backoff for
// calls to remote services such as the GitHub API.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// RemoteAPIConfig returns config for GitHub API calls, which run once
// per job and can afford a short stall over a lost delivery.
func RemoteAPIConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// StatusError reports a non-2xx response from a remote service.
type StatusError struct {
	Service string
	Code    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.Code)
}

// IsRetryable checks if an error should be retried
type IsRetryable func(error) bool

// DefaultRetryable retries on temporary and timeout errors
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Check for temporary errors
	type temporary interface {
		Temporary() bool
	}
	if te, ok := err.(temporary); ok && te.Temporary() {
		return true
	}

	// Check for timeout errors
	type timeout interface {
		Timeout() bool
	}
	if te, ok := err.(timeout); ok && te.Timeout() {
		return true
	}

	return false
}

// HTTPRetryable retries rate limits and server-side failures reported
// as a StatusError, plus everything DefaultRetryable covers.
func HTTPRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests ||
			statusErr.Code >= http.StatusInternalServerError
	}

	return DefaultRetryable(err)
}

// Do executes a function with retry logic
func Do(ctx context.Context, config Config, fn func(context.Context) error) error {
	return DoWithRetryable(ctx, config, DefaultRetryable, fn)
}

// DoWithRetryable executes a function with retry logic and custom retryability check
func DoWithRetryable(ctx context.Context, config Config, isRetryable IsRetryable, fn func(context.Context) error) error {
	var lastErr error
	backoff := config.InitialBackoff
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		// Check context before attempt
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		// Execute function
		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry if not retryable or last attempt
		if !isRetryable(err) || attempt >= config.MaxAttempts {
			return err
		}

		// Calculate backoff with optional jitter
		delay := backoff
		if config.Jitter {
			// Add ±25% jitter
			jitter := time.Duration(float64(backoff) * 0.25 * (2*rng.Float64() - 1))
			delay = backoff + jitter
		}

		// Wait before retry
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		// Update backoff for next iteration
		backoff = time.Duration(float64(backoff) * config.Multiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return lastErr
}
