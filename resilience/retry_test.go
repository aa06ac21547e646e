package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/foundation-go/resilience"
)

var errTransient = errors.New("transient")

func transientPolicy(maxAttempts int) resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxAttempts:     maxAttempts,
		Backoff:         resilience.BackoffExponential,
		BaseDelay:       10 * time.Millisecond,
		MaxDelay:        time.Second,
		RetryableErrors: []error{errTransient},
	}
}

func TestRetryThenSucceed(t *testing.T) {
	executor, err := resilience.NewRetryExecutor(transientPolicy(4))
	require.NoError(t, err)

	calls := 0
	var result string
	result, err = resilience.RetryValue(context.Background(), executor, func(ctx context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", errTransient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustReturnsOriginalError(t *testing.T) {
	executor, err := resilience.NewRetryExecutor(transientPolicy(4))
	require.NoError(t, err)

	calls := 0
	original := errors.New("transient oops")
	policy := transientPolicy(4)
	policy.RetryableErrors = []error{original}
	executor, err = resilience.NewRetryExecutor(policy)
	require.NoError(t, err)

	got := executor.ExecuteSync(func() error {
		calls++
		return original
	})

	assert.Equal(t, 4, calls)
	assert.Same(t, original, got, "exhaustion must re-raise the original error, not a wrapper")
}

func TestNonRetryableErrorStopsImmediately(t *testing.T) {
	executor, err := resilience.NewRetryExecutor(transientPolicy(4))
	require.NoError(t, err)

	calls := 0
	fatal := errors.New("fatal")
	got := executor.ExecuteSync(func() error {
		calls++
		return fatal
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, fatal, got)
}

func TestRetryDelaysFollowExponentialBackoff(t *testing.T) {
	executor, err := resilience.NewRetryExecutor(transientPolicy(3))
	require.NoError(t, err)

	start := time.Now()
	calls := 0
	_ = executor.ExecuteSync(func() error {
		calls++
		return errTransient
	})
	elapsed := time.Since(start)

	// Delays of 10ms then 20ms between the three attempts.
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestCancellationDuringDelayAbortsWithoutRetry(t *testing.T) {
	policy := transientPolicy(5)
	policy.BaseDelay = 500 * time.Millisecond
	policy.MaxDelay = time.Second
	executor, err := resilience.NewRetryExecutor(policy)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	got := executor.Execute(ctx, func(ctx context.Context) error {
		calls++
		return errTransient
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, got, context.Canceled)
}

func TestPolicyValidation(t *testing.T) {
	_, err := resilience.NewRetryExecutor(resilience.RetryPolicy{MaxAttempts: 0})
	assert.Error(t, err)

	_, err = resilience.NewRetryExecutor(resilience.RetryPolicy{
		MaxAttempts: 1,
		BaseDelay:   time.Second,
		MaxDelay:    time.Millisecond,
	})
	assert.Error(t, err)
}

func TestDelayComputation(t *testing.T) {
	base := 100 * time.Millisecond
	cases := []struct {
		backoff  resilience.BackoffStrategy
		attempt  int
		expected time.Duration
	}{
		{resilience.BackoffFixed, 3, base},
		{resilience.BackoffLinear, 3, 300 * time.Millisecond},
		{resilience.BackoffExponential, 1, base},
		{resilience.BackoffExponential, 4, 800 * time.Millisecond},
		{resilience.BackoffFibonacci, 1, base},
		{resilience.BackoffFibonacci, 2, base},
		{resilience.BackoffFibonacci, 6, 800 * time.Millisecond}, // fib(6)=8
	}
	for _, c := range cases {
		policy := resilience.RetryPolicy{
			MaxAttempts: 10,
			Backoff:     c.backoff,
			BaseDelay:   base,
			MaxDelay:    time.Minute,
		}
		assert.Equal(t, c.expected, policy.Delay(c.attempt), "%s attempt %d", c.backoff, c.attempt)
	}
}

func TestDelayClampedToMax(t *testing.T) {
	policy := resilience.RetryPolicy{
		MaxAttempts: 10,
		Backoff:     resilience.BackoffExponential,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    250 * time.Millisecond,
	}
	assert.Equal(t, 250*time.Millisecond, policy.Delay(5))
}

func TestJitterStaysWithinBounds(t *testing.T) {
	policy := resilience.RetryPolicy{
		MaxAttempts: 10,
		Backoff:     resilience.BackoffFixed,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    200 * time.Millisecond,
		Jitter:      true,
	}
	for i := 0; i < 100; i++ {
		d := policy.DelayWithJitter(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
}

type httpError struct{ code int }

func (e *httpError) Error() string   { return "http error" }
func (e *httpError) StatusCode() int { return e.code }

func TestRetryableStatusCodes(t *testing.T) {
	policy := resilience.RetryPolicy{
		MaxAttempts:          3,
		Backoff:              resilience.BackoffFixed,
		BaseDelay:            time.Millisecond,
		MaxDelay:             time.Millisecond,
		RetryableStatusCodes: []int{503},
	}
	executor, err := resilience.NewRetryExecutor(policy)
	require.NoError(t, err)

	calls := 0
	_ = executor.ExecuteSync(func() error {
		calls++
		return &httpError{code: 503}
	})
	assert.Equal(t, 3, calls)

	calls = 0
	_ = executor.ExecuteSync(func() error {
		calls++
		return &httpError{code: 404}
	})
	assert.Equal(t, 1, calls, "a non-retryable status code must not be retried")
}
