package resilience

import (
	"context"

	"github.com/provide-io/foundation-go/errs"
	"github.com/provide-io/foundation-go/telemetry"
)

// Fallback is one slot in a FallbackChain.
type Fallback func(ctx context.Context) (any, error)

// FallbackChain invokes its slots in order and returns the first
// non-failing result. Individual failures are swallowed; only when
// every slot fails does the chain raise AllFallbacksFailedError
// carrying each cause in attempt order.
type FallbackChain struct {
	slots []Fallback
}

// NewFallbackChain builds a chain over slots, first preferred.
func NewFallbackChain(slots ...Fallback) *FallbackChain {
	return &FallbackChain{slots: slots}
}

// Execute runs the chain. Slots after the first success are never
// invoked. Cancellation between slots stops the chain and propagates.
func (c *FallbackChain) Execute(ctx context.Context) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(c.slots) == 0 {
		return nil, errs.AllFallbacksFailed(nil)
	}

	causes := make([]error, 0, len(c.slots))
	for _, slot := range c.slots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := slot(ctx)
		if err == nil {
			telemetry.FallbackExecutionsTotal.WithLabelValues("success").Inc()
			return result, nil
		}
		causes = append(causes, err)
	}

	telemetry.FallbackExecutionsTotal.WithLabelValues("all_failed").Inc()
	return nil, errs.AllFallbacksFailed(causes)
}
