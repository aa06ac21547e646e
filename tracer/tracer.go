package tracer

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"math/rand"
	"sync"
	"time"

	"github.com/provide-io/foundation-go/telemetry"
)

type activeSpanKey struct{}

// Tracer creates spans and threads them through context.Context. A
// zero-value Tracer has sample rate 0 and samples no traces; New(1.0)
// keeps every trace.
type Tracer struct {
	sampleRate float64
}

// New returns a Tracer keeping new traces with probability sampleRate.
// Rates outside [0, 1] are clamped.
func New(sampleRate float64) *Tracer {
	if sampleRate < 0 {
		sampleRate = 0
	}
	if sampleRate > 1 {
		sampleRate = 1
	}
	return &Tracer{sampleRate: sampleRate}
}

// Span opens a new span. When ctx carries an active span the child
// inherits its trace id and sampling decision and records the parent's
// span id; otherwise a fresh trace id is generated and the sampler
// decides. The returned context carries the new span as active.
func (t *Tracer) Span(ctx context.Context, name string, tags map[string]any) (*Span, context.Context) {
	span := &Span{
		Name:      name,
		SpanID:    newSpanID(),
		StartTime: time.Now(),
		status:    StatusOK,
	}

	if parent := FromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
		span.sampled = parent.Sampled()
	} else {
		span.TraceID = newTraceID()
		span.sampled = t.sample()
	}

	for k, v := range tags {
		if span.tags == nil {
			span.tags = make(map[string]any)
		}
		span.tags[k] = v
	}

	telemetry.SpansStartedTotal.Inc()
	return span, context.WithValue(ctx, activeSpanKey{}, span)
}

// Run opens a span around fn, finishing it with the fn's error status
// even when fn returns a cancellation error, then returns that error.
func (t *Tracer) Run(ctx context.Context, name string, tags map[string]any, fn func(ctx context.Context) error) error {
	span, ctx := t.Span(ctx, name, tags)
	err := fn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			span.SetTag("cancelled", true)
		}
		span.FinishError(err)
		return err
	}
	span.Finish()
	return nil
}

func (t *Tracer) sample() bool {
	if t.sampleRate >= 1.0 {
		return true
	}
	if t.sampleRate <= 0 {
		return false
	}
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Float64() < t.sampleRate
}

// FromContext returns the active span carried by ctx, or nil.
func FromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(activeSpanKey{}).(*Span)
	return span
}

// CurrentTraceID returns the active span's trace id, or "".
func CurrentTraceID(ctx context.Context) string {
	if span := FromContext(ctx); span != nil {
		return span.TraceID
	}
	return ""
}

// TraceContext returns the wire-propagation headers for the active
// span, or nil when no span is active.
func TraceContext(ctx context.Context) map[string]string {
	span := FromContext(ctx)
	if span == nil {
		return nil
	}
	return map[string]string{
		"trace-id": span.TraceID,
		"span-id":  span.SpanID,
	}
}

// ContextWithSpan installs span as the active span, for callers that
// received ids over the wire and reconstructed a parent.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, activeSpanKey{}, span)
}

// rng backs sampling decisions and the PRNG fallback for id generation.
// Seeded once from crypto/rand so the fallback is well seeded.
var rng = rand.New(rand.NewSource(cryptoSeed()))
var rngMu sync.Mutex

func cryptoSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// newTraceID returns 128 random bits as 32 lowercase hex chars.
func newTraceID() string { return randomHex(16) }

// newSpanID returns 64 random bits as 16 lowercase hex chars.
func newSpanID() string { return randomHex(8) }

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		rngMu.Lock()
		rng.Read(b)
		rngMu.Unlock()
	}
	return hex.EncodeToString(b)
}

// finishObserver receives every finished span; installed by optional
// bridges (e.g. the OpenTelemetry exporter bridge).
var (
	observerMu     sync.RWMutex
	finishObserver func(*Span)
)

// SetFinishObserver installs fn to be called once per finished span.
// Pass nil to uninstall.
func SetFinishObserver(fn func(*Span)) {
	observerMu.Lock()
	defer observerMu.Unlock()
	finishObserver = fn
}

func notifyFinished(s *Span) {
	telemetry.SpansFinishedTotal.WithLabelValues(string(s.Status())).Inc()

	observerMu.RLock()
	fn := finishObserver
	observerMu.RUnlock()
	if fn != nil {
		fn(s)
	}
}
