package store

import (
	"context"
	"fmt"
	"time"
)

// DefaultWaitTimeout bounds how long callers wait for the store to connect.
const DefaultWaitTimeout = 30 * time.Second

// WaitConnected blocks until s answers Ping successfully, ctx is cancelled,
// or timeout elapses. A timeout yields an error wrapping ErrConnectTimeout.
func WaitConnected(ctx context.Context, s Store, timeout, interval time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	lastErr := s.Ping(ctx)
	if lastErr == nil {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%w after %s: %v", ErrConnectTimeout, timeout, lastErr)
		case <-ticker.C:
			if lastErr = s.Ping(ctx); lastErr == nil {
				return nil
			}
		}
	}
}
