package config

import (
	"os"

	"github.com/provide-io/foundation-go/errs"
)

// SourceLoader produces raw string values for a subset of schema fields,
// tagged with the Source it represents. File and env loaders both
// implement this so MultiSourceLoader can layer them.
type SourceLoader interface {
	// Load returns the raw values this source can supply, by field name.
	// Fields not returned are left to the next source in the chain.
	Load(schema Schema) (map[string]string, error)
	Source() Source
}

// DictLoader supplies fixed values, typically used for RUNTIME updates
// or tests.
type DictLoader struct {
	Values    map[string]string
	SourceTag Source
}

func (d DictLoader) Load(Schema) (map[string]string, error) { return d.Values, nil }
func (d DictLoader) Source() Source                         { return d.SourceTag }

// EnvSourceLoader reads schema fields from the environment, resolving
// file:// indirection per field.
type EnvSourceLoader struct {
	Lookup EnvLookup
}

func (e EnvSourceLoader) Load(schema Schema) (map[string]string, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = osLookupEnv
	}
	out := make(map[string]string)
	for _, field := range schema {
		raw, present := lookup(field.EnvVar)
		if !present {
			continue
		}
		resolved, err := resolveSecretIndirection(raw, readFileTrimmed)
		if err != nil {
			if field.Required() {
				return nil, err
			}
			continue
		}
		out[field.Name] = resolved
	}
	return out, nil
}

func (e EnvSourceLoader) Source() Source { return SourceEnv }

// MultiSourceLoader applies an ordered list of sources to a schema,
// later sources overriding earlier ones field by field unless the
// earlier value came from a higher-precedence Source, with per-field
// source tracking.
type MultiSourceLoader struct {
	Sources []SourceLoader
}

func (m MultiSourceLoader) Load(schema Schema) (*Snapshot, error) {
	snap := newSnapshot()
	if err := applyDefaults(schema, snap); err != nil {
		return nil, err
	}

	for _, source := range m.Sources {
		values, err := source.Load(schema)
		if err != nil {
			return nil, err
		}
		for name, raw := range values {
			field, known := schema.field(name)
			if !known {
				continue
			}
			if err := convertAndStore(field, raw, source.Source(), snap); err != nil {
				return nil, err
			}
		}
	}

	return snap, nil
}

// ChainedLoader tries each source in order, returning the first whole
// snapshot produced without error (a fallback pattern distinct from
// MultiSourceLoader's field-by-field merge).
type ChainedLoader struct {
	Sources []SourceLoader
}

func (c ChainedLoader) Load(schema Schema) (*Snapshot, error) {
	var lastErr error
	for _, source := range c.Sources {
		snap, err := (MultiSourceLoader{Sources: []SourceLoader{source}}).Load(schema)
		if err == nil {
			return snap, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, errs.Configuration("no sources configured in chained loader")
	}
	return nil, lastErr
}

func osLookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}
