package config

import (
	"os"
	"strings"
	"sync"

	"github.com/provide-io/foundation-go/errs"
)

// EnvLookup matches os.LookupEnv's signature; tests substitute a fake.
type EnvLookup func(key string) (string, bool)

const secretFilePrefix = "file://"

// Load applies Schema defaults and then overlays environment variables,
// resolving any file:// secret indirection synchronously. Use LoadAsync
// when fields may point at slow or networked secret stores and parallel
// resolution matters.
func Load(schema Schema, lookup EnvLookup) (*Snapshot, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	snap := newSnapshot()

	if err := applyDefaults(schema, snap); err != nil {
		return nil, err
	}

	for _, field := range schema {
		raw, present := lookup(field.EnvVar)
		if !present {
			continue
		}

		resolved, err := resolveSecretIndirection(raw, readFileTrimmed)
		if err != nil {
			if !field.Required() {
				resolved = ""
				present = false
			} else {
				return nil, errs.Configuration("failed to resolve secret indirection").
					With("field", field.Name).With("env_var", field.EnvVar).WithCause(err)
			}
		}
		if !present {
			continue
		}

		if err := convertAndStore(field, resolved, SourceEnv, snap); err != nil {
			return nil, err
		}
	}

	if err := checkRequired(schema, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// LoadAsync is like Load but resolves every file:// secret concurrently;
// all reads complete before the call returns.
func LoadAsync(schema Schema, lookup EnvLookup) (*Snapshot, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	snap := newSnapshot()
	if err := applyDefaults(schema, snap); err != nil {
		return nil, err
	}

	type resolution struct {
		field Field
		value string
		skip  bool
		err   error
	}

	var pending []Field
	rawValues := make(map[string]string)
	for _, field := range schema {
		raw, present := lookup(field.EnvVar)
		if !present {
			continue
		}
		pending = append(pending, field)
		rawValues[field.Name] = raw
	}

	results := make([]resolution, len(pending))
	var wg sync.WaitGroup
	for i, field := range pending {
		wg.Add(1)
		go func(i int, field Field) {
			defer wg.Done()
			resolved, err := resolveSecretIndirection(rawValues[field.Name], readFileTrimmed)
			if err != nil {
				if field.Required() {
					results[i] = resolution{field: field, err: err}
					return
				}
				results[i] = resolution{field: field, skip: true}
				return
			}
			results[i] = resolution{field: field, value: resolved}
		}(i, field)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return nil, errs.Configuration("failed to resolve secret indirection").
				With("field", r.field.Name).With("env_var", r.field.EnvVar).WithCause(r.err)
		}
		if r.skip {
			continue
		}
		if err := convertAndStore(r.field, r.value, SourceEnv, snap); err != nil {
			return nil, err
		}
	}

	if err := checkRequired(schema, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// checkRequired fails when a field with no default ended the load
// without a value from any source.
func checkRequired(schema Schema, snap *Snapshot) error {
	for _, field := range schema {
		if !field.Required() {
			continue
		}
		if _, ok := snap.sources[field.Name]; !ok {
			return errs.Configuration("required field has no value and no default").
				With("field", field.Name).With("env_var", field.EnvVar)
		}
	}
	return nil
}

func applyDefaults(schema Schema, snap *Snapshot) error {
	for _, field := range schema {
		if field.Required() {
			continue
		}
		if err := field.validate(field.Default); err != nil {
			return err
		}
		snap.set(field.Name, field.Default, SourceDefault)
	}
	return nil
}

func convertAndStore(field Field, raw string, source Source, snap *Snapshot) error {
	converter := field.Converter
	if converter == nil {
		converter = StringConverter
	}
	value, err := converter(raw)
	if err != nil {
		return errs.Configuration("failed to convert field value").
			With("field", field.Name).WithCause(err)
	}
	if err := field.validate(value); err != nil {
		return err
	}
	snap.set(field.Name, value, source)
	return nil
}

// resolveSecretIndirection reads fn(path) when raw has the file:// prefix.
// Recursion is limited to one level: an outer file may point at one
// inner file, whose content is taken literally.
func resolveSecretIndirection(raw string, fn func(path string) (string, error)) (string, error) {
	if !strings.HasPrefix(raw, secretFilePrefix) {
		return raw, nil
	}
	path := strings.TrimPrefix(raw, secretFilePrefix)
	content, err := fn(path)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(content, secretFilePrefix) {
		path2 := strings.TrimPrefix(content, secretFilePrefix)
		return fn(path2)
	}
	return content, nil
}

func readFileTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
