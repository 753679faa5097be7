package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastOptions() []Option {
	return []Option{
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(5 * time.Millisecond),
		WithJitter(0),
	}
}

func TestDo_RetriesRetryableErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	}, fastOptions()...)

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	sentinel := errors.New("bad credentials")
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(sentinel)
	}, fastOptions()...)

	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_NonRetryableErrorFailsImmediately(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("plain error")
	}, fastOptions()...)

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("still down")
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Retryable(sentinel)
	}, fastOptions()...)

	// the wrapper is unwrapped on the final attempt
	assert.Equal(t, sentinel, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_RetryIfOverridesDefault(t *testing.T) {
	attempts := 0
	opts := append(fastOptions(), WithRetryIf(func(err error) bool { return true }))
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("plain error")
	}, opts...)

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		return Retryable(errors.New("transient"))
	}, fastOptions()...)

	assert.Error(t, err)
	assert.Zero(t, attempts)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var retried []int
	opts := append(fastOptions(), WithOnRetry(func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}))

	_ = Do(context.Background(), func(ctx context.Context) error {
		return Retryable(errors.New("transient"))
	}, opts...)

	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoWithData(t *testing.T) {
	attempts := 0
	result, err := DoWithData(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", Retryable(errors.New("transient"))
		}
		return "ready", nil
	}, fastOptions()...)

	assert.NoError(t, err)
	assert.Equal(t, "ready", result)
	assert.Equal(t, 2, attempts)
}

func TestCalculateDelay_CapsAtMax(t *testing.T) {
	r := New(
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(300*time.Millisecond),
		WithMultiplier(10),
		WithJitter(0),
	)

	assert.Equal(t, 100*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 300*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 300*time.Millisecond, r.calculateDelay(5))
}
