package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// MaxRetries bounds the attempts made by Retry.
const MaxRetries = 3

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// isRetryableStatus reports HTTP statuses treated as transient.
func isRetryableStatus(code int) bool {
	return code == 429 || code >= 500
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Retry wraps an embedder and retries RetryableError failures.
type Retry struct {
	next    Embedder
	log     *slog.Logger
	backoff func(attempt int) time.Duration
}

// WithRetry wraps next so transient failures are retried up to MaxRetries times.
func WithRetry(next Embedder, log *slog.Logger) *Retry {
	return &Retry{next: next, log: log, backoff: Backoff}
}

func (r *Retry) Model() string { return r.next.Model() }

func (r *Retry) Encode(ctx context.Context, text string) (Vector, error) {
	return encodeOne(ctx, r, text)
}

func (r *Retry) EncodeBatch(ctx context.Context, texts []string) ([]Vector, error) {
	var vecs []Vector
	var lastErr error
	for attempt := range MaxRetries {
		vecs, lastErr = r.next.EncodeBatch(ctx, texts)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		if attempt == MaxRetries-1 {
			break
		}
		r.log.Warn("retryable embedding error", "model", r.next.Model(), "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(r.backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return vecs, lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
