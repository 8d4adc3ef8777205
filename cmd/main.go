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

	"github.com/ninelmnts/leadintake/internal/adapters/http/api"
	"github.com/ninelmnts/leadintake/internal/adapters/http/swagger"
	app "github.com/ninelmnts/leadintake/internal/app"
	"github.com/ninelmnts/leadintake/internal/config"
	"github.com/ninelmnts/leadintake/pkg/logger"
	"github.com/ninelmnts/leadintake/pkg/metrics"
)

// HTTP server timeout constants. Writes get a long budget because a
// submission waits for every downstream system.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	logIntegrations(ctx, log, cfg)

	svc := app.NewFromConfig(cfg, app.WithLogger(log.Named("service")))

	go startSystemMetricsUpdater(ctx)

	srv := newHTTPServer(cfg.Addr, newHandler(ctx, cfg, svc))

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown lets in-flight fan-outs finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// newHandler registers the docs and API routes on a fresh mux.
func newHandler(ctx context.Context, cfg *config.Config, svc api.LeadService) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithCORSOrigin(cfg.CORSOrigin),
		api.WithLogger(logger.Get().Named("api")),
	).Register(ctx, mux)
	return mux
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// logIntegrations reports which downstream systems are configured. Secrets are never logged.
func logIntegrations(ctx context.Context, log logger.Logger, cfg *config.Config) {
	log.Info(ctx, "integrations",
		logger.String("forward_url", cfg.ForwardURL),
		logger.Bool("supabase", cfg.SupabaseConfigured()),
		logger.Bool("slack", cfg.SlackWebhookURL != ""),
		logger.Bool("notion", cfg.NotionToken != "" && cfg.NotionDatabaseID != ""),
		logger.Bool("smtp", cfg.SMTPConfigured()),
	)
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
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

	var avgPauseMs float64
	if m.NumGC > 0 {
		avgPauseMs = float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
	}
	metrics.UpdateSystem(m.Alloc, runtime.NumGoroutine(), avgPauseMs)
}
