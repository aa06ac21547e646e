// Package hub is the foundation's composition root: the process-wide
// singleton holding the component, command and singleton registries,
// the loaded configuration, and the once-only initialization of the
// logging pipeline, event set coordinator and tracer.
package hub

import (
	"sync"

	"github.com/provide-io/foundation-go/config"
	"github.com/provide-io/foundation-go/errs"
	"github.com/provide-io/foundation-go/eventset"
	"github.com/provide-io/foundation-go/logging"
	"github.com/provide-io/foundation-go/registry"
	"github.com/provide-io/foundation-go/telemetry"
	"github.com/provide-io/foundation-go/tracer"
)

// Dimensions the core uses. Callers may register under their own.
const (
	DimensionComponent = "component"
	DimensionCommand   = "command"
	DimensionSingleton = "singleton"
)

// Singleton registry names installed by InitializeFoundation.
const (
	SingletonLoggingConfig   = "logging_config"
	SingletonTelemetryConfig = "telemetry_config"
	SingletonCoordinator     = "event_coordinator"
	SingletonTracer          = "tracer"
	SingletonConfigManager   = "config_manager"
)

// Hub composes the registries and foundation lifecycle. Tests construct
// isolated hubs with New; applications normally share the process
// singleton from Get.
type Hub struct {
	components *registry.Registry
	factories  map[string]any // reflect-DI factories, keyed by type string

	// initMu guards the three-state initialization flag.
	initMu         sync.Mutex
	initDone       bool
	initInProgress bool
	initErr        error

	// Lenient, when set, makes a second InitializeFoundation call with
	// differing config warn and keep the original instead of failing.
	Lenient bool

	logCfg *config.LoggingConfig
	telCfg *config.TelemetryConfig
	trc    *tracer.Tracer

	mu sync.Mutex
}

// New returns an isolated Hub with empty registries.
func New() *Hub {
	return &Hub{
		components: registry.New(),
		factories:  make(map[string]any),
	}
}

var (
	processHub  *Hub
	processOnce sync.Mutex
)

// Get returns the process-wide Hub, creating it lazily. Safe for
// concurrent first callers.
func Get() *Hub {
	processOnce.Lock()
	defer processOnce.Unlock()
	if processHub == nil {
		processHub = New()
	}
	return processHub
}

// resetProcessHub discards the process singleton; used by the
// coordinated test reset.
func resetProcessHub() {
	processOnce.Lock()
	defer processOnce.Unlock()
	processHub = nil
}

// InitializeFoundation performs the once-only setup: load LoggingConfig
// and TelemetryConfig (from the arguments or the environment), build
// the logging pipeline and event set coordinator, construct the tracer,
// and record the singletons. Concurrent first-callers block on the init
// mutex; one initializes, the rest observe done and return. A second
// call with a different non-nil configuration fails with AlreadyExists
// unless the hub is Lenient. Configurations are compared by pointer, so
// a distinct config value with equal contents counts as different.
func (h *Hub) InitializeFoundation(logCfg *config.LoggingConfig, telCfg *config.TelemetryConfig) error {
	h.initMu.Lock()
	defer h.initMu.Unlock()

	if h.initDone {
		if (logCfg != nil && logCfg != h.logCfg) || (telCfg != nil && telCfg != h.telCfg) {
			if h.Lenient {
				logging.GetLogger("foundation.hub").Warn("initialize_foundation called again with different config; keeping original")
				return nil
			}
			return errs.AlreadyExists("foundation already initialized with a different configuration")
		}
		return nil
	}

	h.initInProgress = true
	defer func() { h.initInProgress = false }()

	if telCfg == nil {
		loaded, err := config.LoadTelemetryConfig(nil, nil)
		if err != nil {
			h.initErr = err
			return err
		}
		telCfg = loaded
	}
	if logCfg == nil {
		logCfg = &telCfg.LoggingConfig
	}

	coordinator := eventset.NewCoordinator(logCfg.EnabledEventSets)
	if err := logging.Initialize(logCfg, coordinator); err != nil {
		h.initErr = err
		return err
	}

	h.logCfg = logCfg
	h.telCfg = telCfg
	h.trc = tracer.New(telCfg.TraceSampleRate)

	manager := config.NewManager()
	manager.Register("logging", config.LoggingSchema(), func() (*config.Snapshot, error) {
		return config.Load(config.LoggingSchema(), nil)
	})
	manager.Register("telemetry", config.TelemetrySchema(), func() (*config.Snapshot, error) {
		return config.Load(config.TelemetrySchema(), nil)
	})

	singletons := []struct {
		name  string
		value any
	}{
		{SingletonLoggingConfig, logCfg},
		{SingletonTelemetryConfig, telCfg},
		{SingletonCoordinator, coordinator},
		{SingletonTracer, h.trc},
		{SingletonConfigManager, manager},
	}
	for _, s := range singletons {
		if _, err := h.components.Register(DimensionSingleton, s.name, s.value, registry.RegisterOptions{Replace: true}); err != nil {
			h.initErr = err
			return err
		}
	}

	h.initDone = true
	h.initErr = nil
	logging.GetLogger("foundation.hub").Debug("foundation_initialized",
		"service_name", telCfg.ServiceName,
		"default_level", logCfg.DefaultLevel,
	)
	return nil
}

// Initialized reports whether InitializeFoundation has completed.
func (h *Hub) Initialized() bool {
	h.initMu.Lock()
	defer h.initMu.Unlock()
	return h.initDone
}

// Tracer returns the hub's tracer, initializing the foundation first
// if needed.
func (h *Hub) Tracer() (*tracer.Tracer, error) {
	if err := h.InitializeFoundation(nil, nil); err != nil {
		return nil, err
	}
	return h.trc, nil
}

// LoggingConfig returns the loaded logging configuration, or nil before
// initialization.
func (h *Hub) LoggingConfig() *config.LoggingConfig {
	h.initMu.Lock()
	defer h.initMu.Unlock()
	return h.logCfg
}

// TelemetryConfig returns the loaded telemetry configuration, or nil
// before initialization.
func (h *Hub) TelemetryConfig() *config.TelemetryConfig {
	h.initMu.Lock()
	defer h.initMu.Unlock()
	return h.telCfg
}

// Registry exposes the underlying store for advanced callers; the
// typed accessors in components.go and commands.go are the normal path.
func (h *Hub) Registry() *registry.Registry { return h.components }

// Clear removes every registration in dimension, or all when dimension
// is empty. Clear does not reset the once-only initialization flag: on
// an initialized hub, cleared singletons stay absent and a later
// InitializeFoundation does not register them again (ResetProcess
// resets both).
func (h *Hub) Clear(dimension string) {
	h.components.Clear(dimension)
	for _, dim := range []string{DimensionComponent, DimensionCommand, DimensionSingleton} {
		if dimension == "" || dimension == dim {
			telemetry.RegistryEntries.WithLabelValues(dim).Set(0)
		}
	}
}

// resetInit clears the once-only flag; part of the coordinated reset.
func (h *Hub) resetInit() {
	h.initMu.Lock()
	defer h.initMu.Unlock()
	h.initDone = false
	h.initInProgress = false
	h.initErr = nil
	h.logCfg = nil
	h.telCfg = nil
	h.trc = nil
}
