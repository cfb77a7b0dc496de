// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/tinyland-inc/tcfs/lib/clock"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

// maxAttempts is the retry budget from spec.md §4.3: up to 5 attempts
// total (1 initial + 4 retries) with exponential backoff and jitter
// on transport errors. NotFound and authentication errors are never
// retried.
const maxAttempts = 5

// baseBackoff and maxBackoff bound the exponential backoff schedule:
// attempt n waits a random duration between 0 and
// min(maxBackoff, baseBackoff * 2^(n-1)) (full jitter).
const (
	baseBackoff = 100 * time.Millisecond
	maxBackoff  = 5 * time.Second
)

// withRetry runs op up to maxAttempts times, retrying only errors
// that wrap [tcfserr.ErrTransport]. It sleeps between attempts using
// clk, so tests can inject a fake clock and avoid real wall-clock
// delay.
func withRetry(ctx context.Context, clk clock.Clock, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !tcfserr.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		delay, err := backoffDelay(attempt)
		if err != nil {
			return fmt.Errorf("computing retry backoff: %w", err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", tcfserr.ErrCancelled, ctx.Err())
		case <-clk.After(delay):
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

// backoffDelay returns the exponential backoff duration for the given
// attempt number (1-indexed) with full jitter: a random duration
// between 0 and the capped exponential value.
func backoffDelay(attempt int) (time.Duration, error) {
	exp := baseBackoff * time.Duration(1<<uint(attempt-1))
	if exp > maxBackoff || exp <= 0 {
		exp = maxBackoff
	}

	jitter, err := rand.Int(rand.Reader, big.NewInt(int64(exp)+1))
	if err != nil {
		return 0, err
	}
	return time.Duration(jitter.Int64()), nil
}
