// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/tcfs/lib/clock"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	attempts := 0

	done := make(chan error, 1)
	go func() {
		done <- withRetry(context.Background(), clk, func() error {
			attempts++
			if attempts < 3 {
				return fmt.Errorf("wrap: %w", tcfserr.ErrTransport)
			}
			return nil
		})
	}()

	for i := 0; i < 2; i++ {
		clk.WaitForTimers(1)
		clk.Advance(maxBackoff)
	}

	require.NoError(t, <-done)
	require.Equal(t, 3, attempts)
}

func TestWithRetryDoesNotRetryNotFound(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	attempts := 0

	err := withRetry(context.Background(), clk, func() error {
		attempts++
		return fmt.Errorf("wrap: %w", tcfserr.ErrNotFound)
	})

	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	attempts := 0

	done := make(chan error, 1)
	go func() {
		done <- withRetry(context.Background(), clk, func() error {
			attempts++
			return fmt.Errorf("wrap: %w", tcfserr.ErrTransport)
		})
	}()

	for i := 0; i < maxAttempts-1; i++ {
		clk.WaitForTimers(1)
		clk.Advance(maxBackoff)
	}

	err := <-done
	require.Error(t, err)
	require.Equal(t, maxAttempts, attempts)
}

func TestWithRetryRespectsCancellation(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- withRetry(ctx, clk, func() error {
			return fmt.Errorf("wrap: %w", tcfserr.ErrTransport)
		})
	}()

	clk.WaitForTimers(1)
	cancel()

	err := <-done
	require.Error(t, err)
}
