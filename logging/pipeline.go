package logging

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/provide-io/foundation-go/config"
	"github.com/provide-io/foundation-go/eventset"
	"github.com/provide-io/foundation-go/telemetry"
	"github.com/provide-io/foundation-go/tracer"
)

// Pipeline is a configured processor chain plus its sink. One pipeline
// serves the whole process after initialization; tests may build
// isolated pipelines with NewPipeline.
type Pipeline struct {
	cfg         *config.LoggingConfig
	levels      levelTable
	limiter     *limiter
	coordinator *eventset.Coordinator
	processors  []Processor

	// captureCaller can be disabled to skip caller attribution on hot
	// loggers.
	captureCaller bool
}

// NewPipeline builds the processor chain from cfg in fixed declaration
// order: level gate, timestamp, caller, rate limit, trace context,
// enrichment, exception formatting. Rendering and the sink write happen
// after the chain.
func NewPipeline(cfg *config.LoggingConfig, coordinator *eventset.Coordinator) *Pipeline {
	if cfg == nil {
		cfg = &config.LoggingConfig{DefaultLevel: "WARNING", ConsoleFormatter: "key_value"}
	}
	if coordinator == nil {
		coordinator = eventset.NewCoordinator(cfg.EnabledEventSets)
	}

	p := &Pipeline{
		cfg:           cfg,
		levels:        newLevelTable(cfg.DefaultLevel, cfg.ModuleLevels),
		limiter:       newLimiter(cfg.RateLimits),
		coordinator:   coordinator,
		captureCaller: true,
	}
	p.processors = []Processor{
		p.levelGate,
		p.timestamp,
		p.caller,
		p.rateLimit,
		p.traceContext,
		p.enrich,
		p.formatException,
	}
	return p
}

// Config returns the pipeline's immutable configuration.
func (p *Pipeline) Config() *config.LoggingConfig { return p.cfg }

// Coordinator returns the pipeline's event set coordinator.
func (p *Pipeline) Coordinator() *eventset.Coordinator { return p.coordinator }

// SetCaptureCaller toggles the caller-attribution processor.
func (p *Pipeline) SetCaptureCaller(on bool) { p.captureCaller = on }

// process runs the chain and, if no processor dropped the event,
// renders and writes it. Processors run in declaration order and never
// block on I/O; only the final sink write takes the write lock.
func (p *Pipeline) process(e *Event) {
	for _, proc := range p.processors {
		if !proc(e) {
			return
		}
	}
	defaultSink.write(p.render(e))
}

func (p *Pipeline) render(e *Event) string {
	if p.cfg.JSONOutput || p.cfg.ConsoleFormatter == "json" {
		return renderJSON(e)
	}
	if p.cfg.ConsoleFormatter == "plain" {
		return renderPlain(e)
	}
	return renderKeyValue(e, p.cfg.UseColor, p.cfg.UseEmoji)
}

// levelGate drops events below the logger's effective level.
func (p *Pipeline) levelGate(e *Event) bool {
	return e.Level >= p.levels.effective(e.Logger)
}

func (p *Pipeline) timestamp(e *Event) bool {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.Time = e.Time.UTC()
	return true
}

// caller attaches module, function and line, best effort. It walks the
// stack past every frame inside this package so wrappers stay cheap to
// add.
func (p *Pipeline) caller(e *Event) bool {
	if !p.captureCaller {
		return true
	}
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.Function, "/logging.") && frame.Function != "" {
			e.Fields["module"] = packageOf(frame.Function)
			e.Fields["function"] = shortFunc(frame.Function)
			e.Fields["line"] = frame.Line
			return true
		}
		if !more {
			return true
		}
	}
}

func packageOf(fn string) string {
	slash := strings.LastIndex(fn, "/")
	rest := fn[slash+1:]
	dot := strings.Index(rest, ".")
	if dot < 0 {
		return fn
	}
	return fn[:slash+1+dot]
}

func shortFunc(fn string) string {
	slash := strings.LastIndex(fn, "/")
	rest := fn[slash+1:]
	dot := strings.Index(rest, ".")
	if dot < 0 {
		return rest
	}
	return rest[dot+1:]
}

// rateLimit consumes a token from the event's logger bucket, dropping
// the event on starvation. Every dropDiagnosticEvery drops, a
// diagnostic line is written directly to the sink, bypassing the chain
// so it cannot itself be rate limited.
func (p *Pipeline) rateLimit(e *Event) bool {
	bucket := p.limiter.bucketFor(e.Logger)
	if bucket == nil {
		return true
	}
	ok, dropped, diagnose := bucket.allow()
	if ok {
		return true
	}
	telemetry.LogEventsDroppedTotal.WithLabelValues(e.Logger).Inc()
	if diagnose {
		diag := &Event{
			Level:  LevelWarning,
			Logger: "foundation.logging",
			Name:   "log_rate_limited",
			Time:   time.Now().UTC(),
			Fields: map[string]any{"logger": e.Logger, "dropped_total": dropped},
		}
		defaultSink.write(p.render(diag))
	}
	return false
}

// traceContext reads the active span from the event's context.
func (p *Pipeline) traceContext(e *Event) bool {
	if e.Ctx == nil {
		return true
	}
	if span := tracer.FromContext(e.Ctx); span != nil {
		e.Fields["trace_id"] = span.TraceID
		e.Fields["span_id"] = span.SpanID
	}
	return true
}

// enrich applies event set rules unless suppressed by configuration or
// by the process-wide in-reset flag (the coordinator checks the flag
// itself).
func (p *Pipeline) enrich(e *Event) bool {
	if p.cfg.SuppressEventEnrichment {
		return true
	}
	p.coordinator.Enrich(e.Fields)
	return true
}

// formatException expands the error's cause chain into traceback lines
// when the call site did not capture a stack.
func (p *Pipeline) formatException(e *Event) bool {
	if e.Err == nil || len(e.stack) > 0 {
		return true
	}
	for cause := errors.Unwrap(e.Err); cause != nil; cause = errors.Unwrap(cause) {
		e.stack = append(e.stack, fmt.Sprintf("caused by: %v", cause))
	}
	return true
}

// DroppedCount reports the lifetime drop counter for loggerName's
// bucket, 0 when no bucket exists.
func (p *Pipeline) DroppedCount(loggerName string) uint64 {
	bucket := p.limiter.bucketFor(loggerName)
	if bucket == nil {
		return 0
	}
	return bucket.droppedCount()
}
