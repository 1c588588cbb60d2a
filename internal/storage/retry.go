package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const maxBackoff = 30 * time.Second

// ConnectOptions controls how many times opening the database is attempted
// and the base delay between attempts.
type ConnectOptions struct {
	Retries int
	Backoff time.Duration
}

// DefaultConnectOptions is five attempts starting five seconds apart.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{Retries: 5, Backoff: 5 * time.Second}
}

// exponentialBackoff returns base * 2^attempt, capped at maxBackoff.
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// withRetry calls fn until it succeeds, the attempts run out or ctx ends.
func withRetry(ctx context.Context, opts ConnectOptions, what string, fn func() error) error {
	attempts := opts.Retries
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		wait := exponentialBackoff(opts.Backoff, attempt)
		slog.WarnContext(ctx, "Database connection failed, retrying",
			"target", what,
			"error", err,
			"attempts_left", attempts-attempt-1,
			"retry_in", wait.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", what, attempts, err)
}
