package hub

import (
	"context"
	"sync"

	"github.com/provide-io/foundation-go/registry"
	"github.com/provide-io/foundation-go/telemetry"
)

// ComponentInfo describes one registered component.
type ComponentInfo struct {
	ID        string
	Name      string
	Dimension string
	Value     any
	Metadata  map[string]any
}

// Initializer is implemented by components that want a lifecycle start
// hook from Hub.Initialize.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Cleaner is implemented by components that want a teardown hook from
// Hub.Cleanup.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// AddComponent registers value under name in dimension (component by
// default). Returns the registered component's info.
func (h *Hub) AddComponent(value any, name, dimension string, metadata map[string]any) (*ComponentInfo, error) {
	if dimension == "" {
		dimension = DimensionComponent
	}
	entry, err := h.components.Register(dimension, name, value, registry.RegisterOptions{Metadata: metadata})
	if err != nil {
		return nil, err
	}
	telemetry.RegistryEntries.WithLabelValues(dimension).Set(float64(len(h.components.ListDimension(dimension))))
	return &ComponentInfo{
		ID:        entry.ID,
		Name:      entry.Name,
		Dimension: entry.Dimension,
		Value:     entry.Value,
		Metadata:  entry.Metadata,
	}, nil
}

// GetComponent returns the value registered under name. An empty
// dimension searches all dimensions and fails on ambiguity.
func (h *Hub) GetComponent(name, dimension string) (any, error) {
	return h.components.Get(name, dimension)
}

// ListComponents returns primary names in insertion order for
// dimension (component by default).
func (h *Hub) ListComponents(dimension string) []string {
	if dimension == "" {
		dimension = DimensionComponent
	}
	return h.components.ListDimension(dimension)
}

// RemoveComponent removes name from dimension, idempotently.
func (h *Hub) RemoveComponent(name, dimension string) {
	if dimension == "" {
		dimension = DimensionComponent
	}
	h.components.Remove(name, dimension)
	telemetry.RegistryEntries.WithLabelValues(dimension).Set(float64(len(h.components.ListDimension(dimension))))
}

// Discoverer supplies components for DiscoverComponents. Go has no
// entry-point metadata the way dynamic ecosystems do, so discovery
// groups are explicit registrations: a plugin package registers a
// Discoverer from its own init path and the application sweeps the
// group by name.
type Discoverer func() map[string]any

var (
	discoverersMu sync.Mutex
	discoverers   = map[string][]Discoverer{}
)

// RegisterDiscoverer adds fn to the named discovery group.
func RegisterDiscoverer(group string, fn Discoverer) {
	discoverersMu.Lock()
	defer discoverersMu.Unlock()
	discoverers[group] = append(discoverers[group], fn)
}

// DiscoverComponents registers every component the group's discoverers
// supply, skipping names already present. Returns the names added.
func (h *Hub) DiscoverComponents(group, dimension string) ([]string, error) {
	if dimension == "" {
		dimension = DimensionComponent
	}
	discoverersMu.Lock()
	fns := append([]Discoverer(nil), discoverers[group]...)
	discoverersMu.Unlock()

	var added []string
	for _, fn := range fns {
		for name, value := range fn() {
			existing, err := h.components.Get(name, dimension)
			if err != nil {
				return added, err
			}
			if existing != nil {
				continue
			}
			if _, err := h.AddComponent(value, name, dimension, map[string]any{"discovered": group}); err != nil {
				return added, err
			}
			added = append(added, name)
		}
	}
	return added, nil
}

// Initialize calls the Initialize hook on every registered component
// that implements Initializer, in insertion order within each registry
// dimension (the order between dimensions is not defined), stopping at
// the first failure.
func (h *Hub) Initialize(ctx context.Context) error {
	for _, entry := range h.components.Snapshot() {
		if init, ok := entry.Value.(Initializer); ok {
			if err := init.Initialize(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cleanup calls the Cleanup hook on every component that implements
// Cleaner, in the reverse of Initialize's order, continuing past
// failures and returning the first error seen.
func (h *Hub) Cleanup(ctx context.Context) error {
	entries := h.components.Snapshot()
	var firstErr error
	for i := len(entries) - 1; i >= 0; i-- {
		if cleaner, ok := entries[i].Value.(Cleaner); ok {
			if err := cleaner.Cleanup(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Run is the context-manager protocol as a function: Initialize, run
// fn, then Cleanup regardless of fn's outcome. fn's error wins over a
// cleanup error.
func (h *Hub) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := h.Initialize(ctx); err != nil {
		return err
	}
	fnErr := fn(ctx)
	cleanupErr := h.Cleanup(ctx)
	if fnErr != nil {
		return fnErr
	}
	return cleanupErr
}
