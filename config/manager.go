package config

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/provide-io/foundation-go/errs"
)

// ChangeCallback is notified after ConfigManager.Update or Reload
// changes a named configuration's snapshot.
type ChangeCallback func(old, new *Snapshot, changed map[string]bool)

type managedConfig struct {
	schema    Schema
	loader    func() (*Snapshot, error)
	current   atomic.Pointer[Snapshot]
	callbacks []ChangeCallback
}

// ConfigManager holds named configurations, each with its own schema and
// loader, and serializes every mutation through one lock while keeping
// reads lock-free.
type ConfigManager struct {
	mu      sync.Mutex
	configs map[string]*managedConfig
}

// NewManager returns an empty ConfigManager.
func NewManager() *ConfigManager {
	return &ConfigManager{configs: make(map[string]*managedConfig)}
}

// Register declares a named configuration with its schema and loader.
// loader is invoked by Load and Reload; Get/Set work even before the
// first Load, returning/overlaying onto the schema's defaults.
func (m *ConfigManager) Register(name string, schema Schema, loader func() (*Snapshot, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mc := &managedConfig{schema: schema, loader: loader}
	defaults := newSnapshot()
	_ = applyDefaults(schema, defaults)
	mc.current.Store(defaults)
	m.configs[name] = mc
}

func (m *ConfigManager) lookup(name string) (*managedConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mc, ok := m.configs[name]
	if !ok {
		return nil, errs.NotFound("no such configuration").With("name", name)
	}
	return mc, nil
}

// Get returns the current snapshot for name.
func (m *ConfigManager) Get(name string) (*Snapshot, error) {
	mc, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	return mc.current.Load(), nil
}

// Load invokes the registered loader and installs its result as the
// current snapshot, notifying subscribers of every field that changed.
func (m *ConfigManager) Load(name string) (*Snapshot, error) {
	mc, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	return m.loadInto(mc)
}

// Reload is Load's name for the hot-reload path: same semantics.
func (m *ConfigManager) Reload(name string) (*Snapshot, error) {
	return m.Load(name)
}

func (m *ConfigManager) loadInto(mc *managedConfig) (*Snapshot, error) {
	next, err := mc.loader()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	old := mc.current.Swap(next)
	m.mu.Unlock()
	m.notify(mc, old, next)
	return next, nil
}

// Set directly installs a raw field value under RUNTIME source,
// convenience around Update for a single field.
func (m *ConfigManager) Set(name, field string, value any) error {
	return m.Update(name, map[string]any{field: value})
}

// Update applies updates to name's snapshot under SourceRuntime,
// producing a new snapshot and notifying subscribers with the set of
// changed field names.
func (m *ConfigManager) Update(name string, updates map[string]any) error {
	mc, err := m.lookup(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := mc.current.Load()
	next := old.clone()
	changed := make(map[string]bool)
	for field, value := range updates {
		if spec, known := mc.schema.field(field); known {
			if err := spec.validate(value); err != nil {
				m.mu.Unlock()
				return err
			}
		}
		next.set(field, value, SourceRuntime)
		changed[field] = true
	}
	mc.current.Store(next)
	callbacks := append([]ChangeCallback(nil), mc.callbacks...)
	m.mu.Unlock()

	// Callbacks run outside the lock so they may call back into the
	// manager.
	for _, cb := range callbacks {
		cb(old, next, changed)
	}
	return nil
}

// Reset restores name's snapshot to schema defaults, discarding file/env/
// runtime overrides.
func (m *ConfigManager) Reset(name string) error {
	mc, err := m.lookup(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := mc.current.Load()
	next := newSnapshot()
	if err := applyDefaults(mc.schema, next); err != nil {
		m.mu.Unlock()
		return err
	}
	mc.current.Store(next)
	callbacks := append([]ChangeCallback(nil), mc.callbacks...)
	m.mu.Unlock()

	changed := diff(old, next)
	for _, cb := range callbacks {
		cb(old, next, changed)
	}
	return nil
}

// Export returns name's current values, omitting sensitive fields unless
// includeSensitive is true.
func (m *ConfigManager) Export(name string, includeSensitive bool) (map[string]any, error) {
	mc, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	return mc.current.Load().Export(mc.schema, includeSensitive), nil
}

// Subscribe registers a callback invoked after every Load/Update/Reset
// on name.
func (m *ConfigManager) Subscribe(name string, cb ChangeCallback) error {
	mc, err := m.lookup(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mc.callbacks = append(mc.callbacks, cb)
	return nil
}

func (m *ConfigManager) notify(mc *managedConfig, old, next *Snapshot) {
	changed := diff(old, next)
	m.mu.Lock()
	callbacks := append([]ChangeCallback(nil), mc.callbacks...)
	m.mu.Unlock()
	for _, cb := range callbacks {
		cb(old, next, changed)
	}
}

func diff(old, next *Snapshot) map[string]bool {
	changed := make(map[string]bool)
	for field, v := range next.values {
		// DeepEqual because field values include maps and slices.
		if ov, ok := old.values[field]; !ok || !reflect.DeepEqual(ov, v) {
			changed[field] = true
		}
	}
	return changed
}
