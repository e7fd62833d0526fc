// Command proxy serves trimmed One Call forecasts to the display so the
// device downloads and parses only the fields it draws.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	httpadapter "github.com/couchcryptid/weather-matrix/internal/adapter/http"
	"github.com/couchcryptid/weather-matrix/internal/config"
	"github.com/couchcryptid/weather-matrix/internal/observability"
	"github.com/couchcryptid/weather-matrix/internal/proxy"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.LoadProxy()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	handler := proxy.NewHandler(cfg, clockwork.NewRealClock(), logger, metrics)
	srv := httpadapter.NewServer(cfg.Addr, handler, logger, httpadapter.WithHandler("GET /{$}", handler))

	logger.Info("proxy configured",
		"upstream", cfg.UpstreamURL,
		"rate_limit", cfg.RateLimit,
		"burst", cfg.Burst,
		"cache_ttl", cfg.CacheTTL,
		"cache_size", cfg.CacheSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.StartBackground(stop)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
