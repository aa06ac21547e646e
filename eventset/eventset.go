// Package eventset holds named bundles of enrichment rules applied to
// log events by the logger pipeline. Sets are data-only: loaded at
// initialization, indexed by field key, matched against event fields.
package eventset

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/provide-io/foundation-go/errs"
)

// Keys the coordinator writes into enriched events. The formatter reads
// and strips them before rendering user key/values.
const (
	EmojiKey = "_emoji"
	LabelKey = "_label"
)

// Rule maps one (field, value-pattern) pair to its enrichment. A
// ValuePattern of "*" matches any value; a pattern ending in "*" (such
// as "5*") matches by prefix; anything else is an exact string match
// against the event value's string form.
type Rule struct {
	FieldName    string         `yaml:"field"`
	ValuePattern string         `yaml:"pattern"`
	Emoji        string         `yaml:"emoji"`
	Label        string         `yaml:"label"`
	ExtraFields  map[string]any `yaml:"extra_fields"`
}

// Set is a named, ordered list of rules.
type Set struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// LoadSetsFile parses a YAML file holding a list of sets. This is the
// canonical on-disk schema for event sets:
//
//	# event sets file
//	- name: http
//	  rules:
//	    - field: http_status
//	      pattern: "500"
//	      emoji: "🔥"
//	      label: server error
//	      extra_fields:
//	        outcome: failure
func LoadSetsFile(path string) ([]Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Configuration("cannot read event set file").
			With("path", path).WithCause(err)
	}
	return ParseSets(data)
}

// ParseSets decodes the YAML event-set schema from raw bytes.
func ParseSets(data []byte) ([]Set, error) {
	var sets []Set
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, errs.Configuration("malformed event set document").WithCause(err)
	}
	for _, s := range sets {
		if s.Name == "" {
			return nil, errs.Validation("event set is missing a name")
		}
	}
	return sets, nil
}
