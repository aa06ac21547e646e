package logging

import (
	"context"
	"time"
)

// Event is one structured log record traversing the processor chain.
// Processors mutate Fields in place; a processor returning false drops
// the event and stops the chain.
type Event struct {
	Level  Level
	Logger string
	Name   string
	Time   time.Time
	Fields map[string]any
	Err    error
	Ctx    context.Context

	// stack holds pre-captured traceback lines when the event came
	// from an Exception call.
	stack []string
}

// Processor is one stage of the pipeline. Returning false drops the
// event.
type Processor func(*Event) bool

// fieldsFromKVs folds varargs key-value pairs into a map. A trailing
// odd key is kept under "_orphan" rather than silently lost.
func fieldsFromKVs(kvs []any) map[string]any {
	fields := make(map[string]any, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			continue
		}
		fields[key] = kvs[i+1]
	}
	if len(kvs)%2 == 1 {
		fields["_orphan"] = kvs[len(kvs)-1]
	}
	return fields
}
