package api

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Retry and backoff constants. A logical request is attempted at most
// maxRetries+1 times; the one-shot 401 refresh replay does not count
// against this budget.
const (
	maxRetries    = 3
	baseBackoff   = 1 * time.Second
	maxBackoff    = 10 * time.Second
	backoffFactor = 2.0
	maxJitter     = 500 * time.Millisecond
)

// calcBackoff computes exponential backoff with additive jitter:
// min(base * factor^attempt + jitter, max), jitter uniform in [0, 500ms).
// Jitter prevents synchronized retry storms when many clients fail at once.
func calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	backoff += float64(rand.Int64N(int64(maxJitter))) //nolint:gosec // jitter does not need crypto rand

	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	return time.Duration(backoff)
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Client.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
