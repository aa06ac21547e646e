package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/provide-io/foundation-go/errs"
	"github.com/provide-io/foundation-go/telemetry"
)

// BreakerState is the circuit state machine's position.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	Name             string
	FailureThreshold int
	RecoveryTimeout  time.Duration

	// ExpectedCodes/ExpectedErrors classify which failures count
	// against the threshold. Both empty means every error counts.
	// Non-matching errors propagate without touching breaker state.
	ExpectedCodes  []errs.Code
	ExpectedErrors []error
}

// CircuitBreaker protects a callable with the CLOSED/OPEN/HALF_OPEN
// state machine. The same breaker value backs both the blocking and the
// context-aware execution paths, so callers can move between styles
// without losing state.
type CircuitBreaker struct {
	cfg    BreakerConfig
	logger *logrus.Logger

	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	lastFailureTime time.Time

	// probeMu admits exactly one concurrent half-open probe.
	probeMu sync.Mutex
}

// NewCircuitBreaker returns a CLOSED breaker. A nil logger gets a
// default logrus instance. The breaker registers itself for the
// process-wide reset sweep.
func NewCircuitBreaker(cfg BreakerConfig, logger *logrus.Logger) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if logger == nil {
		logger = logrus.New()
	}
	b := &CircuitBreaker{cfg: cfg, logger: logger, state: StateClosed}
	telemetry.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	trackBreaker(b)
	return b
}

// Execute runs fn under the breaker, blocking style.
func (b *CircuitBreaker) Execute(fn func() error) error {
	return b.ExecuteCtx(context.Background(), func(context.Context) error { return fn() })
}

// ExecuteCtx runs fn under the breaker. A cancellation error from fn
// bypasses failure classification entirely: it neither trips nor heals
// the circuit.
func (b *CircuitBreaker) ExecuteCtx(ctx context.Context, fn func(ctx context.Context) error) error {
	probing, err := b.admit()
	if err != nil {
		return err
	}
	if probing {
		defer b.probeMu.Unlock()
	}

	err = fn(ctx)

	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	if err != nil {
		if b.expected(err) {
			b.recordFailure()
		}
		return err
	}
	b.recordSuccess()
	return nil
}

// admit decides whether the call may proceed. In HALF_OPEN, the probe
// try-lock admits exactly one caller; the rest see the circuit as open.
func (b *CircuitBreaker) admit() (probing bool, err error) {
	b.mu.Lock()

	if b.state == StateOpen {
		if time.Since(b.lastFailureTime) < b.cfg.RecoveryTimeout {
			b.mu.Unlock()
			return false, errs.CircuitOpen(b.cfg.Name)
		}
		b.transition(StateHalfOpen)
	}

	if b.state == StateHalfOpen {
		b.mu.Unlock()
		if !b.probeMu.TryLock() {
			return false, errs.CircuitOpen(b.cfg.Name)
		}
		return true, nil
	}

	b.mu.Unlock()
	return false, nil
}

func (b *CircuitBreaker) expected(err error) bool {
	if len(b.cfg.ExpectedCodes) == 0 && len(b.cfg.ExpectedErrors) == 0 {
		return true
	}
	if e, ok := errs.As(err); ok {
		for _, code := range b.cfg.ExpectedCodes {
			if e.Code == code {
				return true
			}
		}
	}
	for _, target := range b.cfg.ExpectedErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (b *CircuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = time.Now()

	switch b.state {
	case StateHalfOpen:
		b.transition(StateOpen)
	case StateClosed:
		if b.failureCount >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	}
}

func (b *CircuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.transition(StateClosed)
		b.failureCount = 0
	case StateClosed:
		b.failureCount = 0
	}
}

// transition changes state, logging and updating metrics. b.mu held.
func (b *CircuitBreaker) transition(to BreakerState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to

	telemetry.CircuitBreakerState.WithLabelValues(b.cfg.Name).Set(float64(to))
	telemetry.CircuitBreakerTransitionsTotal.WithLabelValues(b.cfg.Name, from.String(), to.String()).Inc()

	entry := b.logger.WithFields(logrus.Fields{
		"breaker":       b.cfg.Name,
		"from":          from.String(),
		"to":            to.String(),
		"failure_count": b.failureCount,
	})
	switch to {
	case StateOpen:
		entry.Error("circuit breaker opened")
	case StateClosed:
		entry.Info("circuit breaker closed")
	default:
		entry.Info("circuit breaker half-open")
	}
}

// State returns the current state, applying the OPEN→HALF_OPEN timeout
// lazily so observers see the same machine executions do.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.lastFailureTime) >= b.cfg.RecoveryTimeout {
		return StateHalfOpen
	}
	return b.state
}

// FailureCount returns the consecutive-failure counter.
func (b *CircuitBreaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// Reset forces the breaker back to CLOSED with zeroed counters.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.failureCount = 0
	b.lastFailureTime = time.Time{}
}

// trackedBreakers backs the coordinated reset sweep.
var (
	trackedMu       sync.Mutex
	trackedBreakers []*CircuitBreaker
)

func trackBreaker(b *CircuitBreaker) {
	trackedMu.Lock()
	defer trackedMu.Unlock()
	trackedBreakers = append(trackedBreakers, b)
}

// ResetAllBreakers forces every breaker created in this process back to
// CLOSED. Called by the coordinated test reset.
func ResetAllBreakers() {
	trackedMu.Lock()
	breakers := append([]*CircuitBreaker(nil), trackedBreakers...)
	trackedMu.Unlock()
	for _, b := range breakers {
		b.Reset()
	}
}
