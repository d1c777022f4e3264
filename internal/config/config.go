package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teemow/meetgate/internal/calendar"
	"github.com/teemow/meetgate/internal/logging"
)

// TransportStdio is the only transport: the MCP host talks to the gateway
// over stdin and stdout.
const TransportStdio = "stdio"

// Defaults.
const (
	DefaultCredentialsFile = "credentials.json"
	DefaultTokenFile       = ".gcp-saved-tokens.json"
	DefaultMetricsAddr     = "127.0.0.1:9090"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfigFile      = "MEETGATE_CONFIG"
	EnvCredentialsFile = "GOOGLE_CREDENTIALS_FILE"
	EnvTokenFile       = "TOKEN_FILE_PATH"
	EnvCalendarID      = "GOOGLE_CALENDAR_ID"
	EnvMetricsEnabled  = "METRICS_ENABLED"
	EnvMetricsAddr     = "METRICS_ADDR"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
)

// Config is the serve command configuration. It is layered as default, then
// config file, then environment, then explicitly set flags.
type Config struct {
	CredentialsFile string        `yaml:"credentials_file"`
	TokenFile       string        `yaml:"token_file"`
	CalendarID      string        `yaml:"calendar_id"`
	Transport       string        `yaml:"transport"`
	Metrics         MetricsConfig `yaml:"metrics"`
	Debug           bool          `yaml:"debug"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
}

// MetricsConfig holds configuration for the metrics server, which serves
// Prometheus metrics and the health endpoints next to the stdio transport.
type MetricsConfig struct {
	// Enabled starts the metrics server (default: false)
	Enabled bool `yaml:"enabled"`

	// Addr is the address for the metrics server (e.g., "127.0.0.1:9090")
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		CredentialsFile: DefaultCredentialsFile,
		TokenFile:       DefaultTokenFile,
		CalendarID:      calendar.DefaultCalendarID,
		Transport:       TransportStdio,
		Metrics: MetricsConfig{
			Addr: DefaultMetricsAddr,
		},
		LogLevel:  "info",
		LogFormat: logging.FormatJSON,
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path skips the file. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty file decodes to io.EOF and leaves the defaults in place.
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields whose environment variable is set and non-empty.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}

	if v, ok := get(EnvCredentialsFile); ok {
		c.CredentialsFile = v
	}
	if v, ok := get(EnvTokenFile); ok {
		c.TokenFile = v
	}
	if v, ok := get(EnvCalendarID); ok {
		c.CalendarID = v
	}
	if v, ok := get(EnvMetricsEnabled); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q (expected true/false)", EnvMetricsEnabled, v)
		}
		c.Metrics.Enabled = enabled
	}
	if v, ok := get(EnvMetricsAddr); ok {
		c.Metrics.Addr = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := get(EnvLogFormat); ok {
		c.LogFormat = v
	}
	return nil
}

// Validate checks that the configuration can be served.
func (c *Config) Validate() error {
	if c.CredentialsFile == "" {
		return errors.New("credentials file path must not be empty")
	}
	if c.TokenFile == "" {
		return errors.New("token file path must not be empty")
	}
	if c.CalendarID == "" {
		return errors.New("calendar id must not be empty")
	}

	if c.Transport != TransportStdio {
		return fmt.Errorf("unsupported transport type: %s (supported: %s)", c.Transport, TransportStdio)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("metrics address must not be empty when metrics are enabled")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", logging.FormatJSON, logging.FormatText:
	default:
		return fmt.Errorf("unsupported log format %q, must be one of: json, text", c.LogFormat)
	}
	return nil
}

// Level returns the effective log level. Debug wins over LogLevel.
func (c *Config) Level() (slog.Level, error) {
	if c.Debug {
		return slog.LevelDebug, nil
	}
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	return logging.ParseLevel(c.LogLevel)
}
