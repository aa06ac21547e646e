package resilience

import (
	"context"
	"time"

	"github.com/provide-io/foundation-go/errs"
	"github.com/provide-io/foundation-go/logging"
	"github.com/provide-io/foundation-go/telemetry"
)

// RetryExecutor runs callables under a RetryPolicy. On exhaustion the
// ORIGINAL error is returned, never a wrapper, so callers can inspect
// the true cause. The executor is stateless and shareable.
type RetryExecutor struct {
	policy RetryPolicy
	log    *logging.Logger

	// FunctionName labels retry log events and metrics.
	FunctionName string
}

// NewRetryExecutor validates policy and returns an executor.
func NewRetryExecutor(policy RetryPolicy) (*RetryExecutor, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &RetryExecutor{
		policy:       policy,
		log:          logging.GetLogger("foundation.resilience.retry"),
		FunctionName: "anonymous",
	}, nil
}

// Policy returns the executor's immutable policy.
func (e *RetryExecutor) Policy() RetryPolicy { return e.policy }

// ExecuteSync attempts fn up to MaxAttempts times, blocking with
// time.Sleep between attempts. Use Execute when cancellation during a
// delay must propagate.
func (e *RetryExecutor) ExecuteSync(fn func() error) error {
	return e.run(nil, func(context.Context) error { return fn() })
}

// Execute is the context-aware variant: cancellation while waiting in a
// delay aborts immediately, without another attempt, and propagates
// ctx.Err().
func (e *RetryExecutor) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return e.run(ctx, fn)
}

func (e *RetryExecutor) run(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	callCtx := ctx
	if callCtx == nil {
		callCtx = context.Background()
	}

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		err := fn(callCtx)
		if err == nil {
			telemetry.RetryAttemptsTotal.WithLabelValues(e.FunctionName, "success").Inc()
			return nil
		}
		lastErr = err

		if !e.policy.Retryable(err) {
			telemetry.RetryAttemptsTotal.WithLabelValues(e.FunctionName, "not_retryable").Inc()
			return err
		}
		if attempt == e.policy.MaxAttempts {
			break
		}

		delay := e.policy.DelayWithJitter(attempt)
		e.logAttempt(err, attempt, delay)
		telemetry.RetryAttemptsTotal.WithLabelValues(e.FunctionName, "retry").Inc()

		if err := e.sleep(ctx, delay); err != nil {
			// Cancelled while waiting: propagate without further retry.
			return err
		}
	}

	e.logExhausted(lastErr, e.policy.MaxAttempts)
	telemetry.RetryAttemptsTotal.WithLabelValues(e.FunctionName, "exhausted").Inc()
	return lastErr
}

// sleep waits for delay; when ctx is non-nil cancellation interrupts
// the wait.
func (e *RetryExecutor) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		time.Sleep(delay)
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *RetryExecutor) logAttempt(err error, attempt int, delay time.Duration) {
	log := e.log
	if e.policy.LogTracebacks {
		log.Exception(err, "retry_attempt",
			"function_name", e.FunctionName,
			"attempt", attempt,
			"delay_ms", float64(delay)/float64(time.Millisecond),
			"error_kind", errorKind(err),
			"error_message", err.Error(),
		)
		return
	}
	log.Warn("retry_attempt",
		"function_name", e.FunctionName,
		"attempt", attempt,
		"delay_ms", float64(delay)/float64(time.Millisecond),
		"error_kind", errorKind(err),
		"error_message", err.Error(),
	)
}

func (e *RetryExecutor) logExhausted(err error, attempts int) {
	e.log.Error("retry_attempt",
		"function_name", e.FunctionName,
		"attempt", attempts,
		"attempts_exhausted", true,
		"error_kind", errorKind(err),
		"error_message", err.Error(),
	)
}

// errorKind returns the taxonomy code for library errors, else the
// dynamic type name is not leaked and "unclassified" is used.
func errorKind(err error) string {
	if e, ok := errs.As(err); ok {
		return string(e.Code)
	}
	return "unclassified"
}

// RetryValue is a generic convenience: retry fn and return its value on
// success. The final error is the original, unwrapped.
func RetryValue[T any](ctx context.Context, e *RetryExecutor, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
