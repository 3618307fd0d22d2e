package mcpserver

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tripplanner/itinerary-service/internal/client"
)

type config struct {
	ServiceURL      string
	LogLevel        zerolog.Level
	ServerName      string
	ServerVersion   string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	HTTPReadTimeout time.Duration
	HTTPIdleTimeout time.Duration
}

func loadConfig(args []string) (*config, error) {
	cfg := &config{
		ServiceURL:      getEnvOrDefault("ITINERARY_SERVICE_URL", "http://localhost:8080"),
		ServerName:      getEnvOrDefault("MCP_SERVER_NAME", "itinerary-mcp-server"),
		ServerVersion:   getEnvOrDefault("MCP_SERVER_VERSION", "0.1.0"),
		HTTPAddr:        getEnvOrDefault("MCP_HTTP_ADDR", ":8090"),
		ShutdownTimeout: parseDurationOrDefault("SHUTDOWN_TIMEOUT", "10s"),
		HTTPReadTimeout: parseDurationOrDefault("HTTP_READ_TIMEOUT", "5s"),
		HTTPIdleTimeout: parseDurationOrDefault("HTTP_IDLE_TIMEOUT", "120s"),
	}
	cfg.LogLevel = parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info"))

	fs := flag.NewFlagSet("itinerary-mcp", flag.ContinueOnError)
	var rawLogLevel string
	fs.StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "Base URL of the itinerary service")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "Listen address for the streamable HTTP transport")
	fs.StringVar(&rawLogLevel, "log-level", "", "Log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if rawLogLevel != "" {
		cfg.LogLevel = parseLogLevel(rawLogLevel)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(envKey, defaultValue string) time.Duration {
	if value := os.Getenv(envKey); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	d, _ := time.ParseDuration(defaultValue)
	return d
}

func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewServer builds the MCP server with every tool registered.
func NewServer(name, version string, b Backend) (*server.MCPServer, error) {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(true))
	if err := NewTripHandler(b).RegisterTools(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Run starts the MCP server over stdio when launched by a host process and
// over streamable HTTP otherwise.
func Run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	// stdout carries the stdio protocol
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Caller().Logger().Level(cfg.LogLevel)

	c, err := client.New(cfg.ServiceURL)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed to create client")
		return err
	}
	s, err := NewServer(cfg.ServerName, cfg.ServerVersion, c)
	if err != nil {
		return err
	}

	if shouldUseStdio() {
		log.Info().Str("service_url", cfg.ServiceURL).Msg("Starting itinerary MCP server (stdio transport)")
		return server.ServeStdio(s)
	}

	log.Info().Str("service_url", cfg.ServiceURL).Str("addr", cfg.HTTPAddr).Msg("Starting itinerary MCP server (Streamable HTTP)")
	streamSrv := server.NewStreamableHTTPServer(s,
		server.WithEndpointPath("/mcp"),
		server.WithHeartbeatInterval(30*time.Second),
	)
	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     streamSrv,
		ReadTimeout: cfg.HTTPReadTimeout,
		IdleTimeout: cfg.HTTPIdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error during HTTP server shutdown")
		}
		if err := streamSrv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error during MCP server shutdown")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	<-done
	return nil
}

func shouldUseStdio() bool {
	if os.Getenv("MCP_STDIO") == "true" {
		return true
	}
	if os.Getenv("MCP_HTTP") == "true" {
		return false
	}
	if fi, err := os.Stdin.Stat(); err == nil {
		return (fi.Mode() & os.ModeCharDevice) == 0
	}
	return false
}
