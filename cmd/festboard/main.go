package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/okian/festboard/internal/adapters/http/api"
	"github.com/okian/festboard/internal/adapters/http/site"
	"github.com/okian/festboard/internal/adapters/http/swagger"
	"github.com/okian/festboard/internal/adapters/upstream"
	service "github.com/okian/festboard/internal/app"
	"github.com/okian/festboard/internal/config"
	"github.com/okian/festboard/pkg/logger"
	"github.com/okian/festboard/pkg/metrics"
	"github.com/okian/festboard/pkg/tracing"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeoutSlack = 5 * time.Second
	// upstreamRounds is the longest chain of dependent upstream calls in one
	// aggregation: a paired fetch followed by a fan-out.
	upstreamRounds            = 2
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		log.Error(ctx, "tracing setup failed", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			log.Warn(tctx, "tracing shutdown failed", logger.Error(err))
		}
	}()

	configureMetrics(cfg)

	svc, err := newService(cfg, log)
	if err != nil {
		log.Error(ctx, "service setup failed", logger.Error(err))
		os.Exit(1)
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	srv := newHTTPServer(cfg, newHandler(ctx, svc))

	// Start the HTTP server
	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("api_base_url", cfg.APIBaseURL),
			logger.String("fanout_policy", cfg.FanoutPolicy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error(ctx, "HTTP server failed", logger.Error(err))
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// newService builds the upstream client and the aggregation service from cfg.
func newService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	client, err := upstream.New(cfg.APIBaseURL,
		upstream.WithTimeout(cfg.RequestTimeout()),
		upstream.WithLogger(log.Named("upstream")),
	)
	if err != nil {
		return nil, err
	}
	return service.New(client,
		service.WithLogger(log.Named("service")),
		service.WithFanoutPolicy(policy),
		service.WithFanoutLimit(cfg.FanoutLimit),
	), nil
}

// newHTTPServer builds the listener configuration for h.
func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// writeTimeout bounds a response by the upstream calls it may wait on, so an
// aggregation always finishes with its own failure envelope before the
// connection is cut. Without an upstream timeout, or with a fan-out limit that
// splits a fan-out into an unknown number of rounds, there is no such bound
// and the write is left unbounded.
func writeTimeout(cfg *config.Config) time.Duration {
	if cfg.RequestTimeout() <= 0 || cfg.FanoutLimit > 0 {
		return 0
	}
	return upstreamRounds*cfg.RequestTimeout() + writeTimeoutSlack
}

// configureMetrics rebuilds the metric registry under the configured
// namespace, labelling every series with the service name.
func configureMetrics(cfg *config.Config) {
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithConstLabels(map[string]string{"service": cfg.ServiceName}),
	)
}

// newHandler registers every route and wraps the mux with request ids and
// server spans.
func newHandler(ctx context.Context, svc *service.Service) http.Handler {
	mux := http.NewServeMux()

	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)

	return otelhttp.NewHandler(api.RequestID(mux), "festboard")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
