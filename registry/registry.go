// Package registry is a multi-dimensional, thread-safe name→value store
// used by the Hub to hold components, commands, and process-wide
// singletons.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/provide-io/foundation-go/errs"
)

// Entry is a single registered value plus its metadata and aliases.
type Entry struct {
	ID         string
	Dimension  string
	Name       string
	Value      any
	Metadata   map[string]any
	Aliases    []string
	InsertedAt time.Time
}

// key identifies an entry by (dimension, name).
type key struct {
	dimension string
	name      string
}

// Registry is safe for concurrent use. All mutating operations and
// iterations acquire the single mutex; none of them call back into
// another Registry method while holding it, so a component's
// constructor is free to resolve other components during its own
// registration (re-entrant by construction, not by a recursive lock).
type Registry struct {
	mu      sync.Mutex
	entries map[key]*Entry
	// aliases maps an alias key to the primary key it resolves to.
	aliases map[key]key
	// order preserves insertion order per dimension for ListDimension.
	order map[string][]string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[key]*Entry),
		aliases: make(map[key]key),
		order:   make(map[string][]string),
	}
}

// RegisterOptions configures Register beyond the required positional args.
type RegisterOptions struct {
	Metadata map[string]any
	Aliases  []string
	Replace  bool
}

// Register adds value under (dimension, name). Fails with AlreadyExists
// when the primary key or any alias already exists and Replace is false.
// On failure the registry is left completely unchanged.
func (r *Registry) Register(dimension, name string, value any, opts RegisterOptions) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	primary := key{dimension, name}

	if !opts.Replace {
		if _, exists := r.entries[primary]; exists {
			return nil, errs.AlreadyExists("entry already registered").
				With("dimension", dimension).With("name", name)
		}
		for _, alias := range opts.Aliases {
			aliasKey := key{dimension, alias}
			if _, exists := r.entries[aliasKey]; exists {
				return nil, errs.AlreadyExists("alias collides with an existing primary name").
					With("dimension", dimension).With("alias", alias)
			}
			if _, exists := r.aliases[aliasKey]; exists {
				return nil, errs.AlreadyExists("alias already registered").
					With("dimension", dimension).With("alias", alias)
			}
		}
	}

	_, replacing := r.entries[primary]

	entry := &Entry{
		ID:         uuid.NewString(),
		Dimension:  dimension,
		Name:       name,
		Value:      value,
		Metadata:   opts.Metadata,
		Aliases:    append([]string(nil), opts.Aliases...),
		InsertedAt: time.Now(),
	}

	r.entries[primary] = entry
	for _, alias := range opts.Aliases {
		r.aliases[key{dimension, alias}] = primary
	}
	if !replacing {
		r.order[dimension] = append(r.order[dimension], name)
	}

	return entry, nil
}

// resolve finds the primary key for name, searching every dimension
// when dimension is empty. Must be called with r.mu held.
func (r *Registry) resolve(name string, dimension string) (key, bool, error) {
	if dimension != "" {
		k := key{dimension, name}
		if _, ok := r.entries[k]; ok {
			return k, true, nil
		}
		if primary, ok := r.aliases[k]; ok {
			return primary, true, nil
		}
		return key{}, false, nil
	}

	var matches []key
	seen := make(map[key]bool)
	for k := range r.entries {
		if k.name == name && !seen[k] {
			matches = append(matches, k)
			seen[k] = true
		}
	}
	for aliasKey, primary := range r.aliases {
		if aliasKey.name == name && !seen[primary] {
			matches = append(matches, primary)
			seen[primary] = true
		}
	}
	switch len(matches) {
	case 0:
		return key{}, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return key{}, false, errs.AmbiguousLookup("name present in multiple dimensions").
			With("name", name)
	}
}

// Get returns the value registered under name, or nil if absent. When
// dimension is "" every dimension is searched; multiple hits fail with
// AmbiguousLookupError.
func (r *Registry) Get(name, dimension string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok, err := r.resolve(name, dimension)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return r.entries[k].Value, nil
}

// GetEntry returns the full entry, or nil if absent.
func (r *Registry) GetEntry(name, dimension string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok, err := r.resolve(name, dimension)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return r.entries[k], nil
}

// ListDimension returns primary names in insertion order.
func (r *Registry) ListDimension(dimension string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := r.order[dimension]
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := r.entries[key{dimension, n}]; ok {
			out = append(out, n)
		}
	}
	return out
}

// ListAll returns every dimension's primary names in insertion order.
func (r *Registry) ListAll() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string][]string, len(r.order))
	for dim, names := range r.order {
		filtered := make([]string, 0, len(names))
		for _, n := range names {
			if _, ok := r.entries[key{dim, n}]; ok {
				filtered = append(filtered, n)
			}
		}
		out[dim] = filtered
	}
	return out
}

// Remove deletes (dimension, name) and any aliases pointing at it. It is
// idempotent: removing an absent entry is not an error.
func (r *Registry) Remove(name, dimension string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	primary := key{dimension, name}
	delete(r.entries, primary)

	for aliasKey, target := range r.aliases {
		if target == primary {
			delete(r.aliases, aliasKey)
		}
	}

	names := r.order[dimension]
	for i, n := range names {
		if n == name {
			r.order[dimension] = append(names[:i], names[i+1:]...)
			break
		}
	}
}

// Clear removes every entry in dimension, or everything when dimension
// is "". Idempotent.
func (r *Registry) Clear(dimension string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dimension == "" {
		r.entries = make(map[key]*Entry)
		r.aliases = make(map[key]key)
		r.order = make(map[string][]string)
		return
	}

	for k := range r.entries {
		if k.dimension == dimension {
			delete(r.entries, k)
		}
	}
	for k := range r.aliases {
		if k.dimension == dimension {
			delete(r.aliases, k)
		}
	}
	delete(r.order, dimension)
}

// Snapshot returns every primary entry exactly once, as of the moment
// the snapshot is taken. Iteration over a snapshot never observes
// concurrent mutation.
func (r *Registry) Snapshot() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Entry, 0, len(r.entries))
	for dim, names := range r.order {
		for _, n := range names {
			if e, ok := r.entries[key{dim, n}]; ok {
				out = append(out, e)
			}
		}
	}
	return out
}
