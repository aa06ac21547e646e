package resilience

import "context"

// The wrapper constructors below are the decorator form of the three
// primitives: each takes a callable and returns a callable with the
// same shape, so ordinary function composition stacks them. A fallback
// chain wrapping a retry-wrapped slot sees only the outermost failure
// per slot.

// Op is the callable shape the wrappers compose over.
type Op func(ctx context.Context) error

// WithRetry wraps op in a RetryExecutor for policy. The functionName
// labels retry log events and metrics.
func WithRetry(policy RetryPolicy, functionName string, op Op) (Op, error) {
	executor, err := NewRetryExecutor(policy)
	if err != nil {
		return nil, err
	}
	executor.FunctionName = functionName
	return func(ctx context.Context) error {
		return executor.Execute(ctx, op)
	}, nil
}

// WithBreaker wraps op in breaker.
func WithBreaker(breaker *CircuitBreaker, op Op) Op {
	return func(ctx context.Context) error {
		return breaker.ExecuteCtx(ctx, op)
	}
}

// WithFallbacks composes op with alternatives tried in order when op
// fails; the composed Op returns nil on the first success.
func WithFallbacks(op Op, alternatives ...Op) Op {
	slots := make([]Fallback, 0, len(alternatives)+1)
	asSlot := func(o Op) Fallback {
		return func(ctx context.Context) (any, error) { return nil, o(ctx) }
	}
	slots = append(slots, asSlot(op))
	for _, alt := range alternatives {
		slots = append(slots, asSlot(alt))
	}
	chain := NewFallbackChain(slots...)
	return func(ctx context.Context) error {
		_, err := chain.Execute(ctx)
		return err
	}
}
