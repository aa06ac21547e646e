package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/provide-io/foundation-go/console"
	"github.com/provide-io/foundation-go/eventset"
)

// levelColors maps each level to the ANSI code used by the key-value
// formatter.
var levelColors = map[Level]string{
	LevelTrace:    console.Gray,
	LevelDebug:    console.Cyan,
	LevelInfo:     console.Green,
	LevelWarning:  console.Yellow,
	LevelError:    console.Red,
	LevelCritical: console.Magenta,
}

// exceptionPayload is the nested structure the JSON formatter emits for
// a captured error.
type exceptionPayload struct {
	Type           string   `json:"type"`
	Message        string   `json:"message"`
	TracebackLines []string `json:"traceback_lines,omitempty"`
}

// renderJSON emits one canonical JSON object. Required keys: timestamp,
// level, event, logger. Trace ids, caller info, the exception payload
// and user key/values follow when present.
func renderJSON(e *Event) string {
	out := make(map[string]any, len(e.Fields)+4)
	for k, v := range e.Fields {
		if k == eventset.EmojiKey || k == eventset.LabelKey {
			continue
		}
		out[k] = v
	}
	out["timestamp"] = e.Time.Format("2006-01-02T15:04:05.000Z07:00")
	out["level"] = e.Level.String()
	out["event"] = e.Name
	out["logger"] = e.Logger
	if label, ok := e.Fields[eventset.LabelKey].(string); ok {
		out["event_label"] = label
	}
	if e.Err != nil {
		out["exception"] = exceptionPayload{
			Type:           fmt.Sprintf("%T", e.Err),
			Message:        e.Err.Error(),
			TracebackLines: e.stack,
		}
	}

	line, err := json.Marshal(out)
	if err != nil {
		// A value json can't encode; degrade to the event name alone.
		fallback, _ := json.Marshal(map[string]any{
			"timestamp":     e.Time.Format("2006-01-02T15:04:05.000Z07:00"),
			"level":         e.Level.String(),
			"event":         e.Name,
			"logger":        e.Logger,
			"_encode_error": err.Error(),
		})
		return string(fallback)
	}
	return string(line)
}

// renderKeyValue emits `<timestamp> <LEVEL> [<emoji>] <event> k=v ...`
// with deterministic key order and optional ANSI color.
func renderKeyValue(e *Event, useColor, useEmoji bool) string {
	var b strings.Builder

	b.WriteString(e.Time.Format("2006-01-02T15:04:05.000Z07:00"))
	b.WriteByte(' ')

	level := fmt.Sprintf("%-8s", e.Level.String())
	b.WriteString(console.Colorize(levelColors[e.Level], level, useColor))
	b.WriteByte(' ')

	if useEmoji {
		if emoji, ok := e.Fields[eventset.EmojiKey].(string); ok && emoji != "" {
			b.WriteString("[")
			b.WriteString(emoji)
			b.WriteString("] ")
		}
	}

	b.WriteString(console.Colorize(console.Bold, e.Name, useColor))

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		if k == eventset.EmojiKey || k == eventset.LabelKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(console.Colorize(console.Gray, k, useColor))
		b.WriteByte('=')
		b.WriteString(quoteValue(e.Fields[k]))
	}

	if e.Err != nil {
		b.WriteString(" error=")
		b.WriteString(quoteValue(e.Err.Error()))
		for _, line := range e.stack {
			b.WriteByte('\n')
			b.WriteString("    ")
			b.WriteString(line)
		}
	}

	return b.String()
}

// renderPlain is the key-value layout with color and emoji forced off.
func renderPlain(e *Event) string {
	return renderKeyValue(e, false, false)
}

// quoteValue renders a field value, double-quoting strings containing
// whitespace, "=" or quotes with standard backslash escapes.
func quoteValue(v any) string {
	s, isString := v.(string)
	if !isString {
		s = fmt.Sprintf("%v", v)
	}
	if strings.ContainsAny(s, " \t\n=\"") || s == "" {
		return fmt.Sprintf("%q", s)
	}
	return s
}
