package logging

import (
	"sync"
	"time"

	"github.com/provide-io/foundation-go/config"
)

// dropDiagnosticEvery is how many drops accumulate between diagnostic
// events emitted for a starved bucket.
const dropDiagnosticEvery = 100

// tokenBucket rate-limits one logger name. Refill is computed lazily on
// each access from monotonic elapsed time; there is no background
// ticker. Tokens clamp to capacity on clock anomalies.
type tokenBucket struct {
	mu       sync.Mutex
	rate     float64 // tokens per second
	capacity float64
	tokens   float64
	last     time.Time
	dropped  uint64
}

func newTokenBucket(limit config.RateLimit) *tokenBucket {
	capacity := float64(limit.Capacity)
	return &tokenBucket{
		rate:     limit.RatePerSecond,
		capacity: capacity,
		tokens:   capacity,
		last:     time.Now(),
	}
}

// allow consumes one token if available. On starvation it increments
// the drop counter and reports whether a diagnostic is due.
func (b *tokenBucket) allow() (ok bool, dropped uint64, diagnose bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.rate
	}
	if b.tokens > b.capacity || elapsed < 0 {
		b.tokens = b.capacity
	}
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, b.dropped, false
	}

	b.dropped++
	return false, b.dropped, b.dropped%dropDiagnosticEvery == 0
}

// droppedCount returns the bucket's lifetime drop counter.
func (b *tokenBucket) droppedCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// limiter holds one bucket per configured logger name. Loggers without
// a configured limit pass through untouched.
type limiter struct {
	mu      sync.Mutex
	limits  map[string]config.RateLimit
	buckets map[string]*tokenBucket
}

func newLimiter(limits map[string]config.RateLimit) *limiter {
	return &limiter{limits: limits, buckets: make(map[string]*tokenBucket)}
}

func (l *limiter) bucketFor(loggerName string) *tokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[loggerName]; ok {
		return b
	}
	limit, ok := l.limits[loggerName]
	if !ok {
		return nil
	}
	b := newTokenBucket(limit)
	l.buckets[loggerName] = b
	return b
}
