package resilience_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/foundation-go/errs"
	"github.com/provide-io/foundation-go/resilience"
)

func TestFallbackSuccessOnSecond(t *testing.T) {
	fooErr := errors.New("foo")
	thirdInvoked := false

	chain := resilience.NewFallbackChain(
		func(ctx context.Context) (any, error) { return nil, fooErr },
		func(ctx context.Context) (any, error) { return 42, nil },
		func(ctx context.Context) (any, error) { thirdInvoked = true; return 0, nil },
	)

	result, err := chain.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.False(t, thirdInvoked, "slots after the first success must not run")
}

func TestFallbackAllFailCarriesCausesInOrder(t *testing.T) {
	e1 := errors.New("first")
	e2 := errors.New("second")

	chain := resilience.NewFallbackChain(
		func(ctx context.Context) (any, error) { return nil, e1 },
		func(ctx context.Context) (any, error) { return nil, e2 },
	)

	_, err := chain.Execute(context.Background())
	require.Error(t, err)

	var allFailed *errs.AllFallbacksFailedError
	require.ErrorAs(t, err, &allFailed)
	require.Len(t, allFailed.Causes, 2)
	assert.Same(t, e1, allFailed.Causes[0])
	assert.Same(t, e2, allFailed.Causes[1])
}

func TestFallbackFirstSuccessShortCircuits(t *testing.T) {
	calls := 0
	chain := resilience.NewFallbackChain(
		func(ctx context.Context) (any, error) { calls++; return "primary", nil },
		func(ctx context.Context) (any, error) { calls++; return "secondary", nil },
	)

	result, err := chain.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "primary", result)
	assert.Equal(t, 1, calls)
}

func TestFallbackCancellationStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	secondInvoked := false
	chain := resilience.NewFallbackChain(
		func(ctx context.Context) (any, error) { secondInvoked = true; return nil, nil },
	)

	_, err := chain.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, secondInvoked)
}

func TestComposedRetryInsideFallbackSlot(t *testing.T) {
	attempts := 0
	wrapped, err := resilience.WithRetry(resilience.RetryPolicy{
		MaxAttempts: 3,
		Backoff:     resilience.BackoffFixed,
		BaseDelay:   0,
		MaxDelay:    0,
	}, "flaky", func(ctx context.Context) error {
		attempts++
		return errors.New("always fails")
	})
	require.NoError(t, err)

	composed := resilience.WithFallbacks(wrapped, func(ctx context.Context) error { return nil })

	require.NoError(t, composed(context.Background()))
	assert.Equal(t, 3, attempts, "the chain sees only the outermost failure per slot")
}
