package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/provide-io/foundation-go/errs"
)

// SecretBackend resolves a single secret reference into its value. It
// generalizes the env loader's file:// indirection into a small
// pluggable backend set with caching and ordered fallback.
type SecretBackend interface {
	// Name is the scheme this backend handles, e.g. "file", "env".
	Name() string
	Resolve(ref string) (string, error)
}

// FileBackend resolves file://<path> references.
type FileBackend struct{}

func (FileBackend) Name() string                       { return "file" }
func (FileBackend) Resolve(ref string) (string, error) { return readFileTrimmed(ref) }

// EnvBackend resolves env://<name> references against the process
// environment.
type EnvBackend struct{}

func (EnvBackend) Name() string { return "env" }
func (EnvBackend) Resolve(ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", errs.NotFound("environment variable not set").With("name", ref)
	}
	return v, nil
}

// StaticBackend resolves static://<key> references against an in-memory
// map, useful for tests that want deterministic "secrets" without
// touching the filesystem or environment.
type StaticBackend struct {
	Values map[string]string
}

func (StaticBackend) Name() string { return "static" }
func (s StaticBackend) Resolve(ref string) (string, error) {
	v, ok := s.Values[ref]
	if !ok {
		return "", errs.NotFound("no static secret registered").With("key", ref)
	}
	return v, nil
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// SecretResolverConfig configures SecretResolver.
type SecretResolverConfig struct {
	CacheTTL      time.Duration
	FallbackOrder []string // backend names tried in order when a scheme is unspecified
}

// SecretResolver fans a "<scheme>://<ref>" value out to the matching
// backend, with an optional TTL cache and ordered fallback across
// backends when the reference carries no scheme.
type SecretResolver struct {
	cfg      SecretResolverConfig
	logger   *logrus.Logger
	backends map[string]SecretBackend

	cacheMu sync.RWMutex
	cache   map[string]cachedSecret
}

// NewSecretResolver registers backends and returns a ready resolver.
func NewSecretResolver(cfg SecretResolverConfig, logger *logrus.Logger, backends ...SecretBackend) *SecretResolver {
	if logger == nil {
		logger = logrus.New()
	}
	byName := make(map[string]SecretBackend, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}
	return &SecretResolver{cfg: cfg, logger: logger, backends: byName, cache: make(map[string]cachedSecret)}
}

// Resolve looks up ref, which is expected in "scheme://value" form. If
// ref carries no scheme, FallbackOrder is tried in sequence; a scheme
// with no registered backend fails with a Configuration error.
func (r *SecretResolver) Resolve(ref string) (string, error) {
	if cached, ok := r.fromCache(ref); ok {
		return cached, nil
	}

	scheme, rest, hasScheme := strings.Cut(ref, "://")

	var value string
	var err error
	if hasScheme {
		backend, ok := r.backends[scheme]
		if !ok {
			return "", errs.Configuration("no secret backend registered for scheme").With("scheme", scheme)
		}
		value, err = backend.Resolve(rest)
	} else {
		value, err = r.fallback(ref)
	}
	if err != nil {
		r.logger.WithFields(logrus.Fields{"ref": ref}).Warn("secret resolution failed")
		return "", err
	}

	r.toCache(ref, value)
	return value, nil
}

func (r *SecretResolver) fallback(ref string) (string, error) {
	var lastErr error
	for _, name := range r.cfg.FallbackOrder {
		backend, ok := r.backends[name]
		if !ok {
			continue
		}
		value, err := backend.Resolve(ref)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return "", errs.Configuration("no fallback backends configured").With("ref", ref)
	}
	return "", lastErr
}

func (r *SecretResolver) fromCache(ref string) (string, bool) {
	if r.cfg.CacheTTL <= 0 {
		return "", false
	}
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	entry, ok := r.cache[ref]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.value, true
}

func (r *SecretResolver) toCache(ref, value string) {
	if r.cfg.CacheTTL <= 0 {
		return
	}
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cache[ref] = cachedSecret{value: value, expiresAt: time.Now().Add(r.cfg.CacheTTL)}
}
