package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetgate/internal/config"
	"github.com/teemow/meetgate/internal/google"
	"github.com/teemow/meetgate/internal/instrumentation"
	"github.com/teemow/meetgate/internal/logging"
	"github.com/teemow/meetgate/internal/server"
	"github.com/teemow/meetgate/internal/tools/meeting_tools"
)

// serveFlags are the raw flag values of the serve command. They only override
// the resolved configuration when set explicitly.
type serveFlags struct {
	configFile      string
	credentialsFile string
	tokenFile       string
	calendarID      string
	transport       string
	metricsEnabled  bool
	metricsAddr     string
	debug           bool
	logLevel        string
	logFormat       string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server that exposes the Google Meet
tools: list_meetings, get_meeting, create_meeting, update_meeting and
delete_meeting.

The MCP host talks to the server over stdio. With --metrics-enabled, a
separate listener serves Prometheus metrics on /metrics and the health
endpoints /healthz, /readyz and /healthz/detailed.

Configuration is resolved in this order (later wins):
  defaults, config file (--config or MEETGATE_CONFIG), environment
  variables, explicitly set flags.

Authentication:
  The server acts as a single Google identity. Run "meetgate auth" once to
  write the token file; the token is refreshed automatically when it expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveServeConfig(cmd, &flags, os.LookupEnv)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	bindServeFlags(cmd, &flags)

	return cmd
}

func bindServeFlags(cmd *cobra.Command, flags *serveFlags) {
	cmd.Flags().StringVar(&flags.configFile, "config", "", "Path to a YAML config file. Can also use MEETGATE_CONFIG env var.")
	cmd.Flags().StringVar(&flags.credentialsFile, "credentials-file", config.DefaultCredentialsFile, "Google OAuth client secrets file. Can also use GOOGLE_CREDENTIALS_FILE env var.")
	cmd.Flags().StringVar(&flags.tokenFile, "token-file", config.DefaultTokenFile, "Saved OAuth token file written by 'meetgate auth'. Can also use TOKEN_FILE_PATH env var.")
	cmd.Flags().StringVar(&flags.calendarID, "calendar-id", "primary", "Calendar the tools operate on. Can also use GOOGLE_CALENDAR_ID env var.")
	cmd.Flags().StringVar(&flags.transport, "transport", config.TransportStdio, "Transport type: stdio")
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics-enabled", false, "Serve Prometheus metrics and health endpoints on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", logging.FormatJSON, "Log format: json or text. Can also use LOG_FORMAT env var.")
}

// resolveServeConfig layers the config file, the environment and the flags
// that were set explicitly.
func resolveServeConfig(cmd *cobra.Command, flags *serveFlags, lookup config.LookupFunc) (*config.Config, error) {
	f := cmd.Flags()

	path := flags.configFile
	if !f.Changed("config") {
		if v, ok := lookup(config.EnvConfigFile); ok {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if f.Changed("credentials-file") {
		cfg.CredentialsFile = flags.credentialsFile
	}
	if f.Changed("token-file") {
		cfg.TokenFile = flags.tokenFile
	}
	if f.Changed("calendar-id") {
		cfg.CalendarID = flags.calendarID
	}
	if f.Changed("transport") {
		cfg.Transport = flags.transport
	}
	if f.Changed("metrics-enabled") {
		cfg.Metrics.Enabled = flags.metricsEnabled
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = flags.metricsAddr
	}
	if f.Changed("debug") {
		cfg.Debug = flags.debug
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(cfg *config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	// stdout belongs to the stdio transport.
	logger, err := logging.New(os.Stderr, cfg.LogFormat, level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	creds, err := google.LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		return err
	}

	instrConfig, err := instrumentation.ConfigFromEnv(os.LookupEnv)
	if err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}
	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	serverContext, err := server.NewServerContext(shutdownCtx, server.Options{
		Credentials: creds,
		TokenStore:  google.NewFileTokenStore(cfg.TokenFile),
		CalendarID:  cfg.CalendarID,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
	}
	if instrConfig.AuditLogging {
		serverContext.SetAuditLogger(instrumentation.NewAuditLogger(logger))
	}

	mcpSrv, err := newMCPServer(serverContext, logger)
	if err != nil {
		return err
	}

	logger.Info("starting meetgate",
		slog.String("version", version),
		slog.String("transport", cfg.Transport),
		logging.Calendar(cfg.CalendarID),
		slog.String("credentials_kind", creds.Kind))

	return runStdioServer(mcpSrv, serverContext, cfg, provider, logger)
}

// newMCPServer builds the MCP server with the meeting tools registered.
func newMCPServer(sc *server.ServerContext, logger *slog.Logger) (*mcpserver.MCPServer, error) {
	registry, err := meeting_tools.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}
	dispatcher := meeting_tools.NewDispatcher(registry, sc, meeting_tools.WithLogger(logger))

	mcpSrv := mcpserver.NewMCPServer("meetgate", version,
		mcpserver.WithToolCapabilities(false),
	)
	meeting_tools.RegisterMeetingTools(mcpSrv, sc, dispatcher)
	return mcpSrv, nil
}

// runStdioServer serves the MCP protocol on stdin and stdout until the host
// closes the stream or a signal arrives. The metrics server, when enabled,
// runs next to it on its own port.
func runStdioServer(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg *config.Config, provider *instrumentation.Provider, logger *slog.Logger) error {
	metricsErr := make(chan error, 1)
	if cfg.Metrics.Enabled {
		if !provider.PrometheusEnabled() {
			logger.Warn("metrics server needs the prometheus exporter; not starting it",
				slog.String("addr", cfg.Metrics.Addr))
		} else {
			metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
				Addr:                    cfg.Metrics.Addr,
				InstrumentationProvider: provider,
				Health:                  server.NewHealthChecker(sc),
			})
			if err != nil {
				return fmt.Errorf("failed to create metrics server: %w", err)
			}
			go func() {
				if err := metricsServer.Start(); err != nil {
					metricsErr <- err
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
				defer cancel()
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					logger.Warn("error during metrics server shutdown", logging.Err(err))
				}
			}()
		}
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-metricsErr:
		return fmt.Errorf("metrics server failed: %w", err)
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
	}
	return nil
}
