package logging

import (
	"sync"

	"github.com/provide-io/foundation-go/config"
	"github.com/provide-io/foundation-go/errs"
	"github.com/provide-io/foundation-go/eventset"
)

// initState is the three-state lazy-initialization flag: done,
// in-progress, or failed-with-error. It lives in this heap cell, never
// in a package init function, so importing the package performs no I/O
// and no env reads.
type initState struct {
	mu         sync.Mutex
	done       bool
	inProgress bool
	err        error

	pipeline *Pipeline
}

var state initState

// strictInit, when set, makes callers observe a previous initialization
// failure as an error instead of retrying.
var strictInit bool

// SetStrictInit toggles strict initialization failure semantics.
func SetStrictInit(on bool) { strictInit = on }

// Initialize configures the process pipeline explicitly. Idempotent:
// concurrent first-callers block while one initializes; later calls
// with a nil config are no-ops; later calls with a different config
// return AlreadyExists so misconfigured double-init is visible.
func Initialize(cfg *config.LoggingConfig, coordinator *eventset.Coordinator) error {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.done {
		if cfg != nil && state.pipeline != nil && cfg != state.pipeline.cfg {
			return errs.AlreadyExists("logging already initialized with a different configuration")
		}
		return nil
	}
	return initLocked(cfg, coordinator)
}

// ensurePipeline is the lazy path taken by the first log call. One
// caller initializes while the rest block on the mutex; on failure the
// error is recorded and, unless strictInit is set, the next caller
// retries.
func ensurePipeline() (*Pipeline, error) {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.done {
		return state.pipeline, nil
	}
	if state.err != nil && strictInit {
		return nil, state.err
	}
	if err := initLocked(nil, nil); err != nil {
		return nil, err
	}
	return state.pipeline, nil
}

// initLocked performs the actual setup. state.mu must be held.
func initLocked(cfg *config.LoggingConfig, coordinator *eventset.Coordinator) error {
	state.inProgress = true
	defer func() { state.inProgress = false }()

	if cfg == nil {
		loaded, err := config.LoadLoggingConfig(nil, nil)
		if err != nil {
			state.err = err
			return err
		}
		cfg = loaded
	}

	state.pipeline = NewPipeline(cfg, coordinator)
	state.done = true
	state.err = nil
	return nil
}

// Initialized reports whether the pipeline is set up.
func Initialized() bool {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.done
}

// ActivePipeline returns the process pipeline, or nil before
// initialization.
func ActivePipeline() *Pipeline {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.pipeline
}

// ResetConfiguration drops the configured pipeline so the next use
// rebuilds it from the environment. Part of the coordinated reset
// sequence; the in-reset flag must already be set by the caller.
func ResetConfiguration() {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.pipeline = nil
	state.done = false
	state.err = nil
}

// ResetInit clears the lazy-init flag. In the coordinated reset order
// this runs after the Hub's registries are cleared so the next log call
// re-initializes cleanly.
func ResetInit() {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.done = false
	state.inProgress = false
	state.err = nil
}
