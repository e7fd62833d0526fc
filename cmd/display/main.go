package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	httpadapter "github.com/couchcryptid/weather-matrix/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-matrix/internal/adapter/kafka"
	"github.com/couchcryptid/weather-matrix/internal/adapter/mapbox"
	"github.com/couchcryptid/weather-matrix/internal/adapter/matrix"
	"github.com/couchcryptid/weather-matrix/internal/adapter/openweather"
	"github.com/couchcryptid/weather-matrix/internal/adapter/timesync"
	"github.com/couchcryptid/weather-matrix/internal/config"
	"github.com/couchcryptid/weather-matrix/internal/domain"
	"github.com/couchcryptid/weather-matrix/internal/observability"
	"github.com/couchcryptid/weather-matrix/internal/render"
	"github.com/couchcryptid/weather-matrix/internal/scheduler"
	"github.com/jonboulle/clockwork"
)

const (
	geocodeAttempts   = 5
	geocodeBackoff    = time.Second
	geocodeMaxBackoff = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Coordinates come from config or, failing that, a one-off Mapbox lookup.
	query := cfg.Query
	if query.Lat == 0 && query.Lon == 0 {
		geocoder := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, mapbox.WithCountry(cfg.MapboxCountry...))
		query, err = resolveLocation(ctx, cfg, geocoder, logger)
		if err != nil {
			logger.Error("failed to resolve location", "name", cfg.LocationName, "error", err)
			os.Exit(1)
		}
	}

	mono := clockwork.NewRealClock()
	wall := timesync.NewClock(mono)
	syncer := timesync.NewClient(cfg.TimeURL, cfg.TimeTimeout, wall, logger)
	fetcher := openweather.NewClient(cfg.OpenWeatherURL, cfg.OpenWeatherTimeout, logger)
	sched := scheduler.New(syncer, fetcher, wall, query, mono, logger, metrics)

	panel := matrix.NewPanel(cfg.FramePNGPath, logger)
	displays := render.MultiDisplay{panel}

	var writer *kafkaadapter.FrameWriter
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewFrameWriter(cfg, logger)
		displays = append(displays, writer)
		logger.Info("kafka frame mirror enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaFrameTopic)
	}

	coord := render.NewCoordinator(sched, wall, displays, render.Options{
		Display:       cfg.Display,
		TickInterval:  cfg.TickInterval,
		NightInterval: cfg.NightTickInterval,
	}, mono, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, coord, logger, httpadapter.WithFrames(panel))

	// Start HTTP server; a listen failure shuts the process down.
	srv.StartBackground(stop)

	// Start display loop.
	go func() {
		if err := coord.Run(ctx); err != nil {
			logger.Error("display loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// resolveLocation geocodes the configured place name, retrying transient
// failures with exponential backoff. A name with no match fails immediately.
func resolveLocation(ctx context.Context, cfg *config.Config, geocoder domain.Geocoder, logger *slog.Logger) (domain.ForecastQuery, error) {
	backoff := geocodeBackoff
	for attempt := 1; ; attempt++ {
		q, err := domain.ResolveLocation(ctx, cfg.Query, cfg.LocationName, geocoder, logger)
		if err == nil || errors.Is(err, domain.ErrLocationNotFound) || attempt >= geocodeAttempts {
			return q, err
		}
		logger.Warn("geocoding failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return q, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, geocodeMaxBackoff)
	}
}
