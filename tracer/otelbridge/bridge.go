// Package otelbridge exports finished tracer spans through an
// OpenTelemetry pipeline. It is an optional adapter: the core tracer
// never depends on it, and applications that do not need export simply
// never construct a Bridge.
package otelbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/provide-io/foundation-go/config"
	"github.com/provide-io/foundation-go/tracer"
)

// BridgeConfig configures the export pipeline.
type BridgeConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Exporter       string // "jaeger" or "otlp"
	Endpoint       string
	BatchTimeout   time.Duration
	MaxBatchSize   int
	Headers        map[string]string
}

// FromTelemetryConfig derives a BridgeConfig from the loaded telemetry
// configuration, with OTLP over HTTP as the default exporter.
func FromTelemetryConfig(tc *config.TelemetryConfig) BridgeConfig {
	return BridgeConfig{
		ServiceName:    tc.ServiceName,
		ServiceVersion: tc.ServiceVersion,
		Exporter:       "otlp",
		Endpoint:       "localhost:4318",
		BatchTimeout:   5 * time.Second,
		MaxBatchSize:   512,
	}
}

// Bridge owns the OTel provider and the finish observer that feeds it.
type Bridge struct {
	cfg      BridgeConfig
	logger   *logrus.Logger
	provider *sdktrace.TracerProvider
	otel     oteltrace.Tracer
}

// NewBridge builds the exporter, resource and provider. The bridge is
// inert until Start installs the finish observer.
func NewBridge(cfg BridgeConfig, logger *logrus.Logger) (*Bridge, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 5 * time.Second
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 512
	}

	exporter, err := createExporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(cfg.BatchTimeout),
			sdktrace.WithMaxExportBatchSize(cfg.MaxBatchSize),
		),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	b := &Bridge{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		otel:     provider.Tracer(cfg.ServiceName),
	}

	logger.WithFields(logrus.Fields{
		"service_name": cfg.ServiceName,
		"exporter":     cfg.Exporter,
		"endpoint":     cfg.Endpoint,
	}).Info("trace export bridge initialized")

	return b, nil
}

func createExporter(cfg BridgeConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "jaeger":
		return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
	case "otlp", "":
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptrace.New(context.Background(), otlptracehttp.NewClient(opts...))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
}

// Start installs the bridge as the tracer's finish observer. Unsampled
// spans are dropped here, not at creation, so ids still correlate in
// logs.
func (b *Bridge) Start() {
	tracer.SetFinishObserver(b.export)
}

// Stop uninstalls the observer and flushes the provider.
func (b *Bridge) Stop(ctx context.Context) error {
	tracer.SetFinishObserver(nil)
	return b.provider.Shutdown(ctx)
}

// export replays one finished span through the OTel tracer with its
// original timestamps. The foundation's ids ride along as attributes
// so backends can correlate with log lines.
func (b *Bridge) export(s *tracer.Span) {
	if !s.Sampled() {
		return
	}

	_, otelSpan := b.otel.Start(context.Background(), s.Name,
		oteltrace.WithTimestamp(s.StartTime),
	)

	otelSpan.SetAttributes(
		attribute.String("foundation.trace_id", s.TraceID),
		attribute.String("foundation.span_id", s.SpanID),
	)
	if s.ParentID != "" {
		otelSpan.SetAttributes(attribute.String("foundation.parent_id", s.ParentID))
	}
	for k, v := range s.Tags() {
		otelSpan.SetAttributes(attribute.String(k, fmt.Sprintf("%v", v)))
	}
	for _, ev := range s.Events() {
		var attrs []attribute.KeyValue
		for k, v := range ev.Attrs {
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", v)))
		}
		otelSpan.AddEvent(ev.Name, oteltrace.WithTimestamp(ev.Timestamp), oteltrace.WithAttributes(attrs...))
	}

	if s.Status() == tracer.StatusError {
		otelSpan.SetStatus(codes.Error, fmt.Sprintf("%v", s.Tag("error.message")))
	} else {
		otelSpan.SetStatus(codes.Ok, "")
	}

	otelSpan.End(oteltrace.WithTimestamp(s.EndTime()))
}
