package instrumentation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// ServiceName is the OpenTelemetry service name and meter name of the gateway.
const ServiceName = "meetgate"

// Exporter names accepted by METRICS_EXPORTER and TRACING_EXPORTER.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Label values shared by metrics, spans and audit records.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvEnabled         = "INSTRUMENTATION_ENABLED"
	EnvMetricsExporter = "METRICS_EXPORTER"
	EnvTracingExporter = "TRACING_EXPORTER"
	EnvOTLPEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure    = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvSamplingRate    = "OTEL_TRACES_SAMPLER_ARG"
	EnvCalendarLabel   = "METRICS_CALENDAR_LABEL"
	EnvAuditLogging    = "AUDIT_LOGGING_ENABLED"
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config selects what the gateway exports about tool calls, Calendar API
// calls and token refreshes.
type Config struct {
	// Enabled turns metrics and tracing on. Audit logging is separate.
	Enabled bool

	// ServiceVersion is reported on the telemetry resource.
	ServiceVersion string

	// MetricsExporter is prometheus, otlp or stdout. Prometheus metrics are
	// served by the metrics server.
	MetricsExporter string

	// TracingExporter is otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is the collector host:port, without scheme.
	OTLPEndpoint string

	// OTLPInsecure sends OTLP over plain HTTP.
	OTLPInsecure bool

	// SamplingRate is the ratio of root spans that are sampled.
	SamplingRate float64

	// CalendarLabel adds the domain of the served calendar to the tool
	// metrics.
	CalendarLabel bool

	// AuditLogging emits one tool_executed or tool_failed record per tool call.
	AuditLogging bool
}

// ConfigFromEnv reads the instrumentation settings from lookup, usually
// os.LookupEnv. Unset and empty variables keep their defaults; malformed
// values are errors.
func ConfigFromEnv(lookup func(string) (string, bool)) (Config, error) {
	env := envReader{lookup: lookup}
	cfg := Config{
		Enabled:         env.boolean(EnvEnabled, true),
		ServiceVersion:  "unknown",
		MetricsExporter: env.str(EnvMetricsExporter, ExporterPrometheus),
		TracingExporter: env.str(EnvTracingExporter, ExporterNone),
		OTLPEndpoint:    env.str(EnvOTLPEndpoint, ""),
		OTLPInsecure:    env.boolean(EnvOTLPInsecure, false),
		SamplingRate:    env.float(EnvSamplingRate, 0.1),
		CalendarLabel:   env.boolean(EnvCalendarLabel, false),
		AuditLogging:    env.boolean(EnvAuditLogging, true),
	}
	if err := errors.Join(env.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the exporter selection. A disabled configuration is always
// valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0 and 1, got %g", c.SamplingRate)
	}
	if !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: %v", c.MetricsExporter, metricsExporters)
	}
	if !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: %v", c.TracingExporter, tracingExporters)
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when exporting with otlp; set %s", EnvOTLPEndpoint)
	}
	return nil
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (r *envReader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s value %q (expected true/false)", key, v))
		return def
	}
	return b
}

func (r *envReader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s value %q (expected a number)", key, v))
		return def
	}
	return f
}
