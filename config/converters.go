package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/provide-io/foundation-go/errs"
)

// StringConverter passes the raw value through unchanged.
func StringConverter(raw string) (any, error) { return raw, nil }

// IntConverter parses a base-10 integer.
func IntConverter(raw string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, errs.Validation("not a valid integer").With("value", raw).WithCause(err)
	}
	return n, nil
}

// FloatConverter parses a float64.
func FloatConverter(raw string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, errs.Validation("not a valid float").With("value", raw).WithCause(err)
	}
	return f, nil
}

// DurationConverter parses a Go duration string ("5s", "250ms", ...).
func DurationConverter(raw string) (any, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return nil, errs.Validation("not a valid duration").With("value", raw).WithCause(err)
	}
	return d, nil
}

// boolWords is the accepted spelling set for boolean values.
var boolWords = map[string]bool{
	"true": true, "yes": true, "on": true, "1": true,
	"false": false, "no": false, "off": false, "0": false,
}

// BoolConverter recognizes true/false/yes/no/on/off/1/0, case-insensitive.
func BoolConverter(raw string) (any, error) {
	b, ok := boolWords[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return nil, errs.Validation("not a recognized boolean").With("value", raw)
	}
	return b, nil
}

var validLevels = map[string]bool{
	"TRACE": true, "DEBUG": true, "INFO": true,
	"WARNING": true, "ERROR": true, "CRITICAL": true,
}

// LogLevelConverter parses a log level name, case-insensitively, into
// its canonical uppercase form.
func LogLevelConverter(raw string) (any, error) {
	level := strings.ToUpper(strings.TrimSpace(raw))
	if !validLevels[level] {
		return nil, errs.Validation("not a recognized log level").With("value", raw)
	}
	return level, nil
}

// ModuleLevelsConverter parses "mod1:DEBUG,mod2:ERROR" into a
// map[string]string of module name prefix to level.
func ModuleLevelsConverter(raw string) (any, error) {
	out := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, errs.Validation("malformed module:level entry").With("entry", pair)
		}
		mod, level := strings.TrimSpace(parts[0]), strings.ToUpper(strings.TrimSpace(parts[1]))
		if !validLevels[level] {
			return nil, errs.Validation("not a recognized log level").With("module", mod).With("value", level)
		}
		out[mod] = level
	}
	return out, nil
}

// RateLimit is one logger's token-bucket configuration.
type RateLimit struct {
	RatePerSecond float64
	Capacity      int
}

// RateLimitsConverter parses "logger:rate:capacity,..." into a
// map[string]RateLimit.
func RateLimitsConverter(raw string) (any, error) {
	out := make(map[string]RateLimit)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, errs.Validation("malformed logger:rate:capacity entry").With("entry", entry)
		}
		rate, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, errs.Validation("rate is not a number").With("entry", entry).WithCause(err)
		}
		capacity, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, errs.Validation("capacity is not an integer").With("entry", entry).WithCause(err)
		}
		out[parts[0]] = RateLimit{RatePerSecond: rate, Capacity: capacity}
	}
	return out, nil
}

// CommaSeparatedListConverter splits on commas, trimming whitespace and
// dropping empty elements.
func CommaSeparatedListConverter(raw string) (any, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

// FloatInRange returns a converter that parses a float and fails if it
// falls outside [min, max].
func FloatInRange(min, max float64) Converter {
	return func(raw string) (any, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errs.Validation("not a valid float").With("value", raw).WithCause(err)
		}
		if f < min || f > max {
			return nil, errs.Validation("value out of range").With("value", f).With("min", min).With("max", max)
		}
		return f, nil
	}
}
