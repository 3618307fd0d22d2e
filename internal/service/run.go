// Package service wires configuration, storage, guards and providers into the
// HTTP server.
package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/api"
	"github.com/tripplanner/itinerary-service/internal/config"
	"github.com/tripplanner/itinerary-service/internal/embeddings"
	"github.com/tripplanner/itinerary-service/internal/factory"
	"github.com/tripplanner/itinerary-service/internal/health"
	"github.com/tripplanner/itinerary-service/internal/logger"
	"github.com/tripplanner/itinerary-service/internal/metrics"
	"github.com/tripplanner/itinerary-service/internal/orchestrator"
	"github.com/tripplanner/itinerary-service/internal/providers"
	"github.com/tripplanner/itinerary-service/internal/ratelimit"
	"github.com/tripplanner/itinerary-service/internal/retrieval"
	"github.com/tripplanner/itinerary-service/internal/searchindex"
	"github.com/tripplanner/itinerary-service/internal/usage"
)

// Run starts the itinerary service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("itinerary-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log = logger.WithLevel(log, cfg.LogLevel)

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("limiter", cfg.LimiterKind).
		Str("vector_store", cfg.VectorStore).
		Strs("providers", cfg.Providers()).
		Int("http_port", cfg.HTTPPort).
		Msg("Itinerary service starting")

	ctx, stop := newServerContext()
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svcHealth := startHealthCheckers(ctx, cfg, log, deps)
	router := buildRouter(cfg, log, deps, svcHealth, reg)

	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

type dependencies struct {
	store      usage.Store
	closeStore func() error
	ledger     *usage.Ledger
	limiter    ratelimit.Limiter
	embedder   embeddings.Provider
	index      searchindex.Index
	gateway    *providers.Registry
}

func (d *dependencies) close() {
	if d.closeStore != nil {
		_ = d.closeStore()
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	st, closeStore, err := factory.NewUsageStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Usage store unavailable")
		return nil, err
	}
	lim, err := factory.NewLimiter(ctx, cfg, log)
	if err != nil {
		_ = closeStore()
		log.Error().Stack().Err(err).Msg("Rate limiter unavailable")
		return nil, err
	}
	idx, err := searchindex.New(ctx, cfg, log)
	if err != nil {
		_ = closeStore()
		log.Error().Stack().Err(err).Msg("Search index adapter unavailable")
		return nil, err
	}
	emb, err := factory.NewEmbeddingProvider(ctx, cfg, log)
	if err != nil {
		_ = closeStore()
		log.Error().Stack().Err(err).Msg("Embedding provider unavailable")
		return nil, err
	}
	return &dependencies{
		store:      st,
		closeStore: closeStore,
		ledger:     usage.NewLedger(st, log),
		limiter:    lim,
		embedder:   emb,
		index:      idx,
		gateway:    providers.NewGateway(cfg, log),
	}, nil
}

// newOrchestrator assembles an orchestrator from its dependencies and cfg.
func newOrchestrator(cfg *config.Config, log zerolog.Logger, d *dependencies, m *metrics.Metrics) *orchestrator.Orchestrator {
	var retriever orchestrator.ContextRetriever
	if cfg.VectorStore != "none" {
		retriever = retrieval.New(d.embedder, d.index, log,
			retrieval.WithTopK(cfg.RAGTopK),
			retrieval.WithMaxChunkLen(cfg.RAGMaxChunkLength),
		)
	}
	return orchestrator.New(orchestrator.Deps{
		Limiter:   d.limiter,
		Quota:     ratelimit.NewQuotaChecker(d.ledger, cfg.DailyTokenQuota),
		Retriever: retriever,
		Gateway:   d.gateway,
		Ledger:    d.ledger,
		Logger:    log,
		Metrics:   m,
	}, orchestrator.Settings{
		Primary:                cfg.Provider,
		Fallback:               cfg.FallbackProvider,
		EnableRetrievalDefault: cfg.EnableRetrieval,
		StrictValidation:       cfg.StrictValidation,
	})
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(cfg *config.Config, log zerolog.Logger, d *dependencies, svcHealth *health.ServiceHealthChecker, reg *prometheus.Registry) *mux.Router {
	orch := newOrchestrator(cfg, log, d, metrics.New(reg))
	return api.NewRouter(api.Handlers{
		Itinerary: api.NewItineraryHandler(orch, log),
		Usage:     api.NewUsageHandler(d.ledger, cfg.DailyTokenQuota, log),
		Knowledge: api.NewKnowledgeHandler(d.embedder, d.index, log),
		Health:    api.NewHealthHandler(svcHealth),
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, log)
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, d *dependencies) *health.ServiceHealthChecker {
	probeTimeout := cfg.HealthProbeTimeout()
	interval := cfg.HealthInterval()

	checkers := []health.HealthChecker{
		health.NewPingChecker("usage_store", d.ledger, log, probeTimeout),
	}
	if p, ok := d.limiter.(health.HealthPinger); ok {
		checkers = append(checkers, health.NewPingChecker("rate_limiter", p, log, probeTimeout))
	}
	if cfg.VectorStore != "none" {
		if p, ok := d.index.(health.HealthPinger); ok {
			checkers = append(checkers, health.NewPingChecker("search_index", p, log, probeTimeout))
		}
		if p, ok := d.embedder.(health.HealthPinger); ok {
			checkers = append(checkers, health.NewPingChecker("embeddings", p, log, probeTimeout))
		}
	}

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// generation can take two calls per provider
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
