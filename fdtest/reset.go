// Package fdtest coordinates the process-wide teardown tests rely on.
// The reset order is a contract, not an implementation detail:
// enrichment must be disabled before the Hub clears (so logs emitted
// during the clear cannot re-trigger lazy initialization), and the
// logger's lazy-init flag must reset after the Hub clears (so the next
// log call re-initializes against a clean hub).
package fdtest

import (
	"github.com/provide-io/foundation-go/eventset"
	"github.com/provide-io/foundation-go/hub"
	"github.com/provide-io/foundation-go/logging"
	"github.com/provide-io/foundation-go/resilience"
)

// ResetAll tears the foundation down in the load-bearing order:
//
//  1. set the in-reset flag
//  2. reset the pipeline configuration
//  3. reset the stream sink
//  4. reset the logger's lazy-init flag
//  5. clear the Hub's registries
//  6. reset the event set coordinator cache
//  7. reset circuit-breaker states
//  8. clear the in-reset flag
func ResetAll() {
	eventset.EnterReset()
	defer eventset.ExitReset()

	logging.ResetConfiguration()
	logging.ResetStream()
	logging.ResetInit()

	coordinator := currentCoordinator()

	hub.ResetProcess()

	// The lazy-init flag resets again after the hub clear so that a
	// log emitted between steps 5 and 6 cannot pin a half-torn-down
	// pipeline.
	logging.ResetInit()

	if coordinator != nil {
		coordinator.Reset()
	}

	resilience.ResetAllBreakers()
}

// currentCoordinator fetches the registered coordinator before the hub
// clears, so its cache can still be invalidated afterwards.
func currentCoordinator() *eventset.Coordinator {
	v, err := hub.Get().GetComponent(hub.SingletonCoordinator, hub.DimensionSingleton)
	if err != nil || v == nil {
		return nil
	}
	coordinator, _ := v.(*eventset.Coordinator)
	return coordinator
}
