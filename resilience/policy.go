// Package resilience provides the retry, circuit-breaker and fallback
// primitives. All three are plain objects usable directly or through
// the wrapper constructors in wrap.go.
package resilience

import (
	"errors"
	"math/rand"
	"time"

	"github.com/provide-io/foundation-go/errs"
)

// BackoffStrategy selects the delay progression between attempts.
type BackoffStrategy int

const (
	BackoffFixed BackoffStrategy = iota
	BackoffLinear
	BackoffExponential
	BackoffFibonacci
)

func (b BackoffStrategy) String() string {
	switch b {
	case BackoffFixed:
		return "fixed"
	case BackoffLinear:
		return "linear"
	case BackoffExponential:
		return "exponential"
	case BackoffFibonacci:
		return "fibonacci"
	default:
		return "unknown"
	}
}

// StatusCoder is implemented by HTTP-like errors that carry a response
// status code; the retry machinery classifies them against
// RetryableStatusCodes.
type StatusCoder interface {
	StatusCode() int
}

// RetryPolicy is purely declarative; RetryExecutor consumes it.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffStrategy
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool

	// RetryableCodes matches *errs.Error kinds; RetryableErrors matches
	// arbitrary targets via errors.Is. When both are empty every error
	// is retryable. RetryableStatusCodes applies to StatusCoder errors.
	RetryableCodes       []errs.Code
	RetryableErrors      []error
	RetryableStatusCodes []int

	// LogTracebacks includes stack capture in retry failure logs.
	LogTracebacks bool
}

// Validate checks the policy's numeric invariants.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return errs.Validation("max attempts must be at least 1").With("max_attempts", p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return errs.Validation("base delay must be non-negative").With("base_delay", p.BaseDelay)
	}
	if p.MaxDelay < p.BaseDelay {
		return errs.Validation("max delay must be at least base delay").
			With("base_delay", p.BaseDelay).With("max_delay", p.MaxDelay)
	}
	return nil
}

// Delay computes the pre-jitter sleep that follows the attempt'th
// failure (1-based), i.e. the wait before attempt number attempt+1.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	var d time.Duration
	switch p.Backoff {
	case BackoffLinear:
		d = time.Duration(attempt) * p.BaseDelay
	case BackoffExponential:
		d = p.BaseDelay << uint(attempt-1)
	case BackoffFibonacci:
		d = time.Duration(fib(attempt)) * p.BaseDelay
	default:
		d = p.BaseDelay
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// DelayWithJitter applies the uniform [0.5, 1.5] jitter multiplier and
// clamps to [0, MaxDelay].
func (p RetryPolicy) DelayWithJitter(attempt int) time.Duration {
	d := p.Delay(attempt)
	if !p.Jitter {
		return d
	}
	jittered := time.Duration(float64(d) * (0.5 + rand.Float64()))
	if jittered < 0 {
		jittered = 0
	}
	if jittered > p.MaxDelay {
		jittered = p.MaxDelay
	}
	return jittered
}

// Retryable classifies err against the policy's retryable sets.
func (p RetryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}

	if len(p.RetryableStatusCodes) > 0 {
		var sc StatusCoder
		if errors.As(err, &sc) {
			for _, code := range p.RetryableStatusCodes {
				if sc.StatusCode() == code {
					return true
				}
			}
			return false
		}
	}

	if len(p.RetryableCodes) == 0 && len(p.RetryableErrors) == 0 {
		return true
	}
	if e, ok := errs.As(err); ok {
		for _, code := range p.RetryableCodes {
			if e.Code == code {
				return true
			}
		}
	}
	for _, target := range p.RetryableErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// fib returns the attempt'th Fibonacci number with fib(1)=1, fib(2)=1.
func fib(n int) int64 {
	if n <= 2 {
		return 1
	}
	a, b := int64(1), int64(1)
	for i := 3; i <= n; i++ {
		a, b = b, a+b
	}
	return b
}
