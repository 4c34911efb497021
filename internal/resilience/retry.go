package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retry calls fn up to attempts times, sleeping delay between tries. It
// gives up early when ctx is done.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			slog.Info("Retrying operation...", "attempt", i+1, "error", err)
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted after %d attempts: %w", i, ctx.Err())
			case <-time.After(delay):
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("after %d attempts, last error: %w", attempts, err)
}
