package config

import (
	"regexp"

	"github.com/provide-io/foundation-go/errs"
)

// Converter turns a raw string (env var or file scalar) into a typed
// value. It fails with a *errs.Error (CodeValidation) on malformed input.
type Converter func(raw string) (any, error)

// Validator checks a converted value and fails with *errs.Error
// (CodeValidation) when it is unacceptable.
type Validator func(value any) error

// noDefaultT marks a field with no default, so an absent value without a
// validator-satisfying fallback is a hard load error when the field is
// required.
type noDefaultT struct{}

// NoDefault marks a Field as having no default value.
var NoDefault = noDefaultT{}

// Field declares one piece of configuration the loader knows how to
// populate and validate.
type Field struct {
	Name        string
	EnvVar      string
	Default     any // may be NoDefault
	Converter   Converter
	Validator   Validator
	Sensitive   bool
	Description string
	Choices     []string
	MinValue    *float64
	MaxValue    *float64
	Pattern     *regexp.Regexp
}

// Required reports whether the field has no usable default.
func (f Field) Required() bool {
	_, noDefault := f.Default.(noDefaultT)
	return noDefault
}

// validate runs Choices/MinValue/MaxValue/Pattern/Validator against value,
// in that order, failing fast on the first violation.
func (f Field) validate(value any) error {
	if len(f.Choices) > 0 {
		if s, ok := value.(string); ok {
			found := false
			for _, c := range f.Choices {
				if c == s {
					found = true
					break
				}
			}
			if !found {
				return errs.Validation("value is not one of the allowed choices").
					With("field", f.Name).With("value", s).With("choices", f.Choices)
			}
		}
	}

	if f.MinValue != nil || f.MaxValue != nil {
		if n, ok := asFloat(value); ok {
			if f.MinValue != nil && n < *f.MinValue {
				return errs.Validation("value below minimum").With("field", f.Name).With("value", n).With("min", *f.MinValue)
			}
			if f.MaxValue != nil && n > *f.MaxValue {
				return errs.Validation("value above maximum").With("field", f.Name).With("value", n).With("max", *f.MaxValue)
			}
		}
	}

	if f.Pattern != nil {
		if s, ok := value.(string); ok && !f.Pattern.MatchString(s) {
			return errs.Validation("value does not match required pattern").
				With("field", f.Name).With("value", s).With("pattern", f.Pattern.String())
		}
	}

	if f.Validator != nil {
		if err := f.Validator(value); err != nil {
			return errs.Validation("field failed custom validation").
				With("field", f.Name).WithCause(err)
		}
	}

	return nil
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Schema is an ordered list of fields; order matters only for
// deterministic iteration (e.g. Export), not for load semantics.
type Schema []Field

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
