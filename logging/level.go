// Package logging is the foundation's structured logging pipeline: a
// processor chain with lazy one-time initialization, per-module level
// filtering, token-bucket rate limiting, event enrichment, and JSON or
// key-value rendering to a replaceable stream sink.
package logging

import "strings"

// Level is one of the six severities, ascending.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

var levelNames = map[Level]string{
	LevelTrace:    "TRACE",
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

var levelsByName = map[string]Level{
	"TRACE": LevelTrace, "DEBUG": LevelDebug, "INFO": LevelInfo,
	"WARNING": LevelWarning, "ERROR": LevelError, "CRITICAL": LevelCritical,
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INFO"
}

// ParseLevel maps a level name, case-insensitively, to its Level. The
// second return is false for unknown names.
func ParseLevel(name string) (Level, bool) {
	l, ok := levelsByName[strings.ToUpper(strings.TrimSpace(name))]
	return l, ok
}

// levelTable resolves a logger name to its effective level: the longest
// module prefix present in moduleLevels wins, falling back to the
// default. A prefix matches at "." boundaries or exactly.
type levelTable struct {
	defaultLevel Level
	moduleLevels map[string]Level
}

func newLevelTable(defaultLevel string, moduleLevels map[string]string) levelTable {
	def, ok := ParseLevel(defaultLevel)
	if !ok {
		def = LevelWarning
	}
	parsed := make(map[string]Level, len(moduleLevels))
	for mod, name := range moduleLevels {
		if l, ok := ParseLevel(name); ok {
			parsed[mod] = l
		}
	}
	return levelTable{defaultLevel: def, moduleLevels: parsed}
}

func (t levelTable) effective(loggerName string) Level {
	best := -1
	level := t.defaultLevel
	for prefix, l := range t.moduleLevels {
		if !matchesModule(loggerName, prefix) {
			continue
		}
		if len(prefix) > best {
			best = len(prefix)
			level = l
		}
	}
	return level
}

func matchesModule(name, prefix string) bool {
	if name == prefix {
		return true
	}
	return strings.HasPrefix(name, prefix+".")
}
