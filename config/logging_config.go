package config

import (
	"os"
	"strings"
)

// LoggingConfig is immutable after Load; it is owned by the Hub
// post-initialization and borrowed read-only by logging processors.
type LoggingConfig struct {
	DefaultLevel            string
	ModuleLevels            map[string]string
	ConsoleFormatter        string
	UseColor                bool
	UseEmoji                bool
	JSONOutput              bool
	RateLimits              map[string]RateLimit
	EnabledEventSets        []string
	SuppressEventEnrichment bool
}

// LoggingSchema declares the PROVIDE_* environment variables recognized
// for LoggingConfig.
func LoggingSchema() Schema {
	return Schema{
		{Name: "default_level", EnvVar: "PROVIDE_LOG_LEVEL", Default: "WARNING", Converter: LogLevelConverter},
		{Name: "module_levels", EnvVar: "PROVIDE_LOG_MODULE_LEVELS", Default: map[string]string{}, Converter: ModuleLevelsConverter},
		{Name: "console_formatter", EnvVar: "PROVIDE_LOG_FORMATTER", Default: "key_value", Converter: StringConverter, Choices: []string{"key_value", "json", "plain"}},
		{Name: "use_emoji", EnvVar: "PROVIDE_LOG_USE_EMOJI", Default: true, Converter: BoolConverter},
		{Name: "use_color", EnvVar: "PROVIDE_LOG_USE_COLOR", Default: true, Converter: BoolConverter},
		{Name: "json_output", EnvVar: "PROVIDE_JSON_OUTPUT", Default: false, Converter: BoolConverter},
		{Name: "rate_limits", EnvVar: "PROVIDE_LOG_RATE_LIMIT_PER_LOGGER", Default: map[string]RateLimit{}, Converter: RateLimitsConverter},
		{Name: "enabled_event_sets", EnvVar: "PROVIDE_ENABLED_EVENT_SETS", Default: []string{}, Converter: CommaSeparatedListConverter},
	}
}

// LoadLoggingConfig loads a LoggingConfig from the environment, applying
// the NO_COLOR/FORCE_COLOR and TTY color-policy rules on top of the
// declarative load.
func LoadLoggingConfig(lookup EnvLookup, stream *os.File) (*LoggingConfig, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	snap, err := Load(LoggingSchema(), lookup)
	if err != nil {
		return nil, err
	}

	useColor := snap.GetBool("use_color")
	if _, forced := lookup("FORCE_COLOR"); forced {
		useColor = true
	}
	if _, noColor := lookup("NO_COLOR"); noColor {
		useColor = false
	}
	if useColor && stream != nil {
		useColor = isTerminal(stream)
	}

	moduleLevels, _ := snap.Get("module_levels").(map[string]string)
	rateLimits, _ := snap.Get("rate_limits").(map[string]RateLimit)
	eventSets, _ := snap.Get("enabled_event_sets").([]string)

	return &LoggingConfig{
		DefaultLevel:     snap.GetString("default_level"),
		ModuleLevels:     moduleLevels,
		ConsoleFormatter: snap.GetString("console_formatter"),
		UseColor:         useColor,
		UseEmoji:         snap.GetBool("use_emoji"),
		JSONOutput:       snap.GetBool("json_output"),
		RateLimits:       rateLimits,
		EnabledEventSets: eventSets,
	}, nil
}

// TelemetryConfig composes LoggingConfig with service identity and
// sampling.
type TelemetryConfig struct {
	LoggingConfig
	ServiceName     string
	ServiceVersion  string
	Profile         string
	TraceSampleRate float64
	OTelEnabled     bool
	MetricsEnabled  bool
}

// TelemetrySchema adds the service/tracing fields to LoggingSchema.
func TelemetrySchema() Schema {
	schema := LoggingSchema()
	return append(schema,
		Field{Name: "service_name", EnvVar: "PROVIDE_SERVICE_NAME", Default: "", Converter: StringConverter},
		Field{Name: "service_version", EnvVar: "PROVIDE_SERVICE_VERSION", Default: "0.0.0", Converter: StringConverter},
		Field{Name: "profile", EnvVar: "PROVIDE_PROFILE", Default: "default", Converter: StringConverter},
		Field{Name: "trace_sample_rate", EnvVar: "OTEL_TRACE_SAMPLE_RATE", Default: 1.0, Converter: FloatInRange(0.0, 1.0)},
		Field{Name: "otel_enabled", EnvVar: "PROVIDE_OTEL_ENABLED", Default: false, Converter: BoolConverter},
		Field{Name: "metrics_enabled", EnvVar: "PROVIDE_METRICS_ENABLED", Default: false, Converter: BoolConverter},
	)
}

// LoadTelemetryConfig loads LoggingConfig plus telemetry fields,
// falling back to OTEL_SERVICE_NAME when no service name is set.
func LoadTelemetryConfig(lookup EnvLookup, stream *os.File) (*TelemetryConfig, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	logging, err := LoadLoggingConfig(lookup, stream)
	if err != nil {
		return nil, err
	}

	snap, err := Load(TelemetrySchema(), lookup)
	if err != nil {
		return nil, err
	}

	serviceName := snap.GetString("service_name")
	if strings.TrimSpace(serviceName) == "" {
		if otelName, ok := lookup("OTEL_SERVICE_NAME"); ok {
			serviceName = otelName
		}
	}

	return &TelemetryConfig{
		LoggingConfig:   *logging,
		ServiceName:     serviceName,
		ServiceVersion:  snap.GetString("service_version"),
		Profile:         snap.GetString("profile"),
		TraceSampleRate: snap.GetFloat("trace_sample_rate"),
		OTelEnabled:     snap.GetBool("otel_enabled"),
		MetricsEnabled:  snap.GetBool("metrics_enabled"),
	}, nil
}
