package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	t.Run("success on first try", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), func() error {
			attempts++
			return nil
		}, 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("eventual success", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), func() error {
			attempts++
			if attempts < 3 {
				return errors.New("temporary error")
			}
			return nil
		}, 5, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("all attempts fail", func(t *testing.T) {
		attempts := 0
		expectedErr := errors.New("persistent error")
		err := RetryWithBackoff(context.Background(), func() error {
			attempts++
			return expectedErr
		}, 3, time.Millisecond)
		assert.Equal(t, expectedErr, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			attempts := 0
			err := RetryWithBackoff(context.Background(), func() error {
				attempts++
				return nil
			}, n, time.Millisecond)
			assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
			assert.Equal(t, 0, attempts)
		}
	})
}

func TestRetryWithBackoff_Permanent(t *testing.T) {
	cause := errors.New("model not found")
	attempts := 0

	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return fmt.Errorf("loading: %w", Permanent(cause))
	}, 5, time.Millisecond)

	assert.Equal(t, 1, attempts, "permanent errors are not retried")
	assert.Equal(t, cause, err)
	assert.False(t, IsPermanent(err))
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))

	cause := errors.New("boom")
	err := Permanent(cause)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "boom", err.Error())
	assert.False(t, IsPermanent(cause))
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := RetryWithBackoff(ctx, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}, 5, time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoff_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	attempts := 0

	err := RetryWithBackoff(ctx, func() error {
		attempts++
		return errors.New("error")
	}, 10, 20*time.Millisecond)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, attempts, 10)
}

func TestRetryWithBackoff_ExponentialBackoff(t *testing.T) {
	var stamps []time.Time

	err := RetryWithBackoff(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 4 {
			return errors.New("error")
		}
		return nil
	}, 5, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, stamps, 4)

	// Delays are at least 10ms, 20ms, 40ms.
	for i, minDelay := range []time.Duration{10, 20, 40} {
		gap := stamps[i+1].Sub(stamps[i])
		assert.GreaterOrEqual(t, gap, minDelay*time.Millisecond, "delay %d", i)
	}
}
