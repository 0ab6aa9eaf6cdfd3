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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"

	"github.com/okian/outreach/internal/adapters/http/api"
	"github.com/okian/outreach/internal/adapters/http/site"
	"github.com/okian/outreach/internal/adapters/http/swagger"
	"github.com/okian/outreach/internal/adapters/repository"
	"github.com/okian/outreach/internal/adapters/usac"
	"github.com/okian/outreach/internal/adapters/webhook"
	app "github.com/okian/outreach/internal/app"
	"github.com/okian/outreach/internal/config"
	"github.com/okian/outreach/pkg/logger"
	"github.com/okian/outreach/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 60 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
	systemMetricsInterval  = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load config", logger.Error(err))
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build service", logger.Error(err))
		return
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)
	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, cfg, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// buildService wires the store and upstream clients selected by cfg.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxListLimit(cfg.MaxListLimit),
	}

	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			version, err := repository.Migrate(cfg.DatabaseURL)
			if err != nil {
				return nil, err
			}
			log.Info(ctx, "schema migrated", logger.Int("version", int(version)))
		}
		store, err := repository.NewPostgres(ctx, cfg.DatabaseURL, int32(cfg.DatabaseMaxConns))
		if err != nil {
			return nil, eris.Wrap(err, "open postgres store")
		}
		opts = append(opts, app.WithStore(store))
		log.Info(ctx, "using postgres store")
	}

	if cfg.USACFilingsDataset != "" {
		client := usac.New(
			usac.WithBaseURL(cfg.USACBaseURL),
			usac.WithFilingsDataset(cfg.USACFilingsDataset),
			usac.WithFundingDataset(cfg.USACFundingDataset),
			usac.WithAppToken(cfg.USACAppToken),
			usac.WithRateLimit(cfg.USACRatePerSec),
			usac.WithPageSize(cfg.USACPageSize),
			usac.WithTimeout(cfg.USACTimeout()),
			usac.WithLogger(log.Named("usac")),
		)
		opts = append(opts, app.WithFilingSource(client))
		if cfg.USACFundingDataset != "" {
			opts = append(opts, app.WithHistorySource(client))
		}
	}

	if cfg.EnrichmentWebhookURL != "" || cfg.OutreachWebhookURL != "" {
		opts = append(opts, app.WithWorkflows(webhook.New(
			webhook.WithEnrichmentURL(cfg.EnrichmentWebhookURL),
			webhook.WithOutreachURL(cfg.OutreachWebhookURL),
			webhook.WithToken(cfg.WebhookToken),
			webhook.WithTimeout(cfg.WebhookTimeout()),
			webhook.WithMaxRetries(cfg.WebhookMaxRetries),
			webhook.WithLogger(log.Named("webhook")),
		)))
	}

	return app.New(opts...), nil
}

// newHandler registers every route on a fresh mux.
func newHandler(ctx context.Context, svc *app.Service, cfg *config.Config, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxListLimit, api.WithLogger(log.Named("api"))).Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater refreshes the store and queue gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.GetStats(ctx)
		}
	}
}

// startSystemMetricsUpdater samples memory and goroutine gauges until ctx is done.
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

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
