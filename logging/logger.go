package logging

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Logger is a named handle into the pipeline. Loggers are cheap values;
// GetLogger never allocates shared state, so holding one per package is
// the expected pattern.
type Logger struct {
	name string
	ctx  context.Context
}

// GetLogger returns a logger with the given dotted name. The pipeline
// itself initializes lazily on the first emit, not here.
func GetLogger(name string) *Logger {
	return &Logger{name: name}
}

// WithContext returns a copy that reads trace ids from ctx on every
// emit.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{name: l.name, ctx: ctx}
}

// Name returns the logger's dotted name.
func (l *Logger) Name() string { return l.name }

func (l *Logger) emit(level Level, event string, err error, stack []string, kvs []any) {
	pipeline, initErr := ensurePipeline()
	if initErr != nil || pipeline == nil {
		return
	}
	pipeline.process(&Event{
		Level:  level,
		Logger: l.name,
		Name:   event,
		Fields: fieldsFromKVs(kvs),
		Err:    err,
		Ctx:    l.ctx,
		stack:  stack,
	})
}

// Trace through Critical emit one event at the corresponding level.
// kvs are alternating key/value pairs.

func (l *Logger) Trace(event string, kvs ...any) { l.emit(LevelTrace, event, nil, nil, kvs) }
func (l *Logger) Debug(event string, kvs ...any) { l.emit(LevelDebug, event, nil, nil, kvs) }
func (l *Logger) Info(event string, kvs ...any)  { l.emit(LevelInfo, event, nil, nil, kvs) }
func (l *Logger) Warn(event string, kvs ...any)  { l.emit(LevelWarning, event, nil, nil, kvs) }

// Error emits at ERROR; pass an error value via ErrorWith to attach it.
func (l *Logger) Error(event string, kvs ...any) { l.emit(LevelError, event, nil, nil, kvs) }

// Critical emits at the highest severity.
func (l *Logger) Critical(event string, kvs ...any) { l.emit(LevelCritical, event, nil, nil, kvs) }

// ErrorWith emits at ERROR with err attached; the exception-formatting
// processor expands its cause chain.
func (l *Logger) ErrorWith(err error, event string, kvs ...any) {
	l.emit(LevelError, event, err, nil, kvs)
}

// Exception is equivalent to ErrorWith plus traceback capture at the
// call site.
func (l *Logger) Exception(err error, event string, kvs ...any) {
	l.emit(LevelError, event, err, captureStack(3), kvs)
}

// captureStack renders the current goroutine's frames above skip as
// "function (file:line)" strings.
func captureStack(skip int) []string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var lines []string
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			lines = append(lines, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return lines
}

// Emit is the low-level entry point for adapters (e.g. the logrus
// bridge) that already hold a level and a field map.
func Emit(loggerName string, level Level, event string, fields map[string]any, err error, at time.Time) {
	pipeline, initErr := ensurePipeline()
	if initErr != nil || pipeline == nil {
		return
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	pipeline.process(&Event{
		Level:  level,
		Logger: loggerName,
		Name:   event,
		Time:   at,
		Fields: fields,
		Err:    err,
	})
}
