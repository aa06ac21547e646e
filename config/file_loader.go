package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"

	"github.com/provide-io/foundation-go/errs"
)

// LoadFile auto-detects the format by extension (.json, .yaml/.yml,
// .toml, .ini, .env) and returns a flat map of dotted keys to scalar
// string representations, ready to feed into FileSourceLoader or a
// MultiSourceLoader. Parse failures are fatal.
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Configuration("failed to read configuration file").With("path", path).WithCause(err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return parseJSON(path, data)
	case ".yaml", ".yml":
		return parseYAML(path, data)
	case ".toml":
		return parseTOML(path, data)
	case ".ini":
		return parseINI(path, data)
	case ".env":
		return parseDotEnv(path, data)
	default:
		return nil, errs.Configuration("unrecognized configuration file extension").With("path", path).With("extension", ext)
	}
}

// FileSourceLoader adapts LoadFile to the SourceLoader interface used by
// MultiSourceLoader/ChainedLoader.
type FileSourceLoader struct {
	Path string
}

func (f FileSourceLoader) Load(Schema) (map[string]string, error) { return LoadFile(f.Path) }
func (f FileSourceLoader) Source() Source                         { return SourceFile }

func parseJSON(path string, data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Configuration("invalid JSON configuration").With("path", path).WithCause(err)
	}
	return flatten("", raw), nil
}

func parseYAML(path string, data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errs.Configuration("invalid YAML configuration").With("path", path).WithCause(err)
	}
	return flatten("", normalizeYAMLMaps(raw).(map[string]any)), nil
}

// normalizeYAMLMaps recursively converts map[interface{}]interface{}
// (yaml.v2's native map type) into map[string]any so flatten can walk it
// uniformly alongside JSON-decoded maps.
func normalizeYAMLMaps(v any) any {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAMLMaps(vv)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = normalizeYAMLMaps(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = normalizeYAMLMaps(vv)
		}
		return out
	default:
		return v
	}
}

// flatten walks a decoded JSON/YAML document into dotted-path scalar
// strings, e.g. {"server":{"port":9000}} -> {"server.port": "9000"}.
func flatten(prefix string, m map[string]any) map[string]string {
	out := make(map[string]string)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			for fk, fv := range flatten(key, val) {
				out[fk] = fv
			}
		default:
			out[key] = scalarToString(val)
		}
	}
	return out
}

func scalarToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// parseTOML decodes a TOML 1.0 document and flattens its tables into
// the same dotted-path scalar map the JSON and YAML parsers produce.
// Decode errors carry toml's line/column context through the cause.
func parseTOML(path string, data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errs.Configuration("invalid TOML configuration").With("path", path).WithCause(err)
	}
	return flatten("", raw), nil
}

func unquoteValue(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// parseINI implements section-based INI: [section] headers, key=value
// pairs, ';' and '#' comments.
func parseINI(path string, data []byte) (map[string]string, error) {
	out := make(map[string]string)
	section := ""
	for lineNo, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		key, value, err := splitKeyValue(line, "=")
		if err != nil {
			return nil, errs.Configuration("invalid INI syntax").
				With("path", path).With("line", lineNo+1).WithCause(err)
		}
		if section != "" {
			key = section + "." + key
		}
		out[key] = value
	}
	return out, nil
}

// parseDotEnv implements KEY=value line format: one assignment per line,
// '#' comments, an optional "export " prefix.
func parseDotEnv(path string, data []byte) (map[string]string, error) {
	out := make(map[string]string)
	for lineNo, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		trimmed = strings.TrimPrefix(trimmed, "export ")
		key, value, err := splitKeyValue(trimmed, "=")
		if err != nil {
			return nil, errs.Configuration("invalid .env syntax").
				With("path", path).With("line", lineNo+1).WithCause(err)
		}
		out[key] = unquoteValue(strings.TrimSpace(value))
	}
	return out, nil
}

func splitKeyValue(line, sep string) (string, string, error) {
	idx := strings.Index(line, sep)
	if idx < 0 {
		return "", "", errs.Configuration("expected key"+sep+"value").With("line", line)
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), nil
}
