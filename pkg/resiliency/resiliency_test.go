/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package resiliency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastBackoff() backoff.BackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(time.Millisecond),
		backoff.WithMaxInterval(5*time.Millisecond),
		backoff.WithMaxElapsedTime(5*time.Second),
	)
}

func TestRetryGet_SucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	v, err := RetryGet(context.Background(), fastBackoff(), func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errTransient
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, attempts)
}

func TestRetryGet_StopsOnPermanentError(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := RetryGet(context.Background(), fastBackoff(), func() (string, error) {
		attempts++
		return "", Permanent(errTransient)
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, attempts)
}

func TestRetryGet_ReportsLastErrorWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := RetryGet(ctx, fastBackoff(), func() (int, error) {
		return 0, errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMakePanicError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, MakePanicError(nil, logr.Discard()))

	err := func() (err error) {
		defer func() { err = MakePanicError(recover(), logr.Discard()) }()
		panic("boom")
	}()
	assert.ErrorContains(t, err, "boom")
}

func TestRunWithTimeout(t *testing.T) {
	t.Parallel()

	assert.True(t, RunWithTimeout(func() {}, time.Second))

	release := make(chan struct{})
	defer close(release)
	assert.False(t, RunWithTimeout(func() { <-release }, 10*time.Millisecond))
}
