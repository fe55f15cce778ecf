package retry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/k0sproject/pathguard/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFail = errors.New("fail")

func failTimes(n int, attempts *int) func(context.Context) error {
	return func(context.Context) error {
		*attempts++
		if *attempts <= n {
			return errFail
		}
		return nil
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	var attempts int
	err := retry.Do(context.Background(), failTimes(2, &attempts), retry.MaxRetries(5), retry.Delay(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoMaxRetriesReached(t *testing.T) {
	var retried []int
	err := retry.Do(context.Background(), func(context.Context) error {
		return errFail
	}, retry.MaxRetries(3), retry.Delay(time.Millisecond), retry.OnRetry(func(attempt int, _ error) {
		retried = append(retried, attempt)
	}))

	require.ErrorIs(t, err, errFail)
	assert.Equal(t, 3, retry.Attempts(err))
	assert.Equal(t, errFail, retry.Cause(err))
	assert.Equal(t, []int{1, 2}, retried)
	assert.Equal(t, "retry: max retries reached after 3 attempts: fail", err.Error())
}

func TestDoCanceledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var attempts int
	err := retry.Do(ctx, failTimes(10, &attempts), retry.Delay(time.Millisecond))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, attempts)
	assert.Zero(t, retry.Attempts(err))
}

func TestDoTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var attempts int
	err := retry.Do(ctx, failTimes(1000, &attempts), retry.Delay(10*time.Millisecond))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorIs(t, err, errFail)
	assert.Greater(t, attempts, 1)
	assert.Equal(t, attempts, retry.Attempts(err))
}

func TestDoIf(t *testing.T) {
	var attempts int
	err := retry.Do(context.Background(), failTimes(10, &attempts),
		retry.MaxRetries(5),
		retry.Delay(time.Millisecond),
		retry.If(func(error) bool { return attempts < 3 }),
	)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, retry.Attempts(err))
}

func TestDoAbort(t *testing.T) {
	var attempts int
	err := retry.Do(context.Background(), func(context.Context) error {
		attempts++
		return fmt.Errorf("%w: bad credentials", retry.ErrAbort)
	}, retry.Delay(time.Millisecond))
	require.ErrorIs(t, err, retry.ErrAbort)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, retry.Attempts(err))
}

func TestDoBackoff(t *testing.T) {
	var attempts int
	start := time.Now()
	err := retry.Do(context.Background(), failTimes(10, &attempts), retry.MaxRetries(4), retry.Backoff(1.5), retry.Delay(10*time.Millisecond))
	took := time.Since(start)
	require.Error(t, err)
	assert.Equal(t, 4, attempts)
	// pauses of 15ms, 30ms and 45ms between the four attempts
	assert.GreaterOrEqual(t, took, 90*time.Millisecond)
}

func TestGet(t *testing.T) {
	var attempts int
	value, err := retry.Get(context.Background(), func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errFail
		}
		return "success", nil
	}, retry.MaxRetries(3), retry.Delay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, "success", value)
	assert.Equal(t, 2, attempts)
}

func TestAttemptsOnPlainError(t *testing.T) {
	assert.Zero(t, retry.Attempts(errFail))
	assert.Equal(t, errFail, retry.Cause(errFail))
}
