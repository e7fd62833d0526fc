// Package scheduler decides, once per tick, whether the wall clock needs
// resynchronising and whether the forecast needs refetching.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-matrix/internal/domain"
	"github.com/couchcryptid/weather-matrix/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	// ClockSyncInterval is how long a wall-clock sync stays fresh.
	ClockSyncInterval = time.Hour
	// ForecastInterval is how long a forecast stays fresh within the same hour.
	ForecastInterval = 10 * time.Minute
)

// ClockSyncer resolves the device wall clock against a network time source.
type ClockSyncer interface {
	Sync(ctx context.Context) error
}

// ForecastFetcher returns a raw forecast payload for a query.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, q domain.ForecastQuery) ([]byte, error)
}

// WallClock reports the synced wall-clock time.
type WallClock interface {
	Now() time.Time
}

// State is the scheduler's bookkeeping. Zero times mean "never".
type State struct {
	LastClockSync    time.Time // monotonic clock reading
	LastWeatherFetch time.Time // monotonic clock reading
	LastWeatherHour  int       // local hour of the last successful fetch, -1 for none
}

// NewState returns the state of a freshly started process.
func NewState() State {
	return State{LastWeatherHour: -1}
}

// Result describes the outcome of one tick.
type Result struct {
	// Proceed is false when a fetch failed and the rest of the tick must be skipped.
	Proceed bool
	// Refreshed is true when a new forecast was installed during the tick.
	Refreshed bool
}

// Scheduler owns the refresh timers and the current forecast.
type Scheduler struct {
	syncer  ClockSyncer
	fetcher ForecastFetcher
	wall    WallClock
	query   domain.ForecastQuery
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	state  State
	series *domain.ForecastSeries
}

// New creates a Scheduler. clock supplies the monotonic readings used for
// interval arithmetic; wall supplies the synced time used for hour changes.
func New(syncer ClockSyncer, fetcher ForecastFetcher, wall WallClock, query domain.ForecastQuery,
	clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		syncer:  syncer,
		fetcher: fetcher,
		wall:    wall,
		query:   query,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		state:   NewState(),
	}
}

// State returns a copy of the scheduler's bookkeeping.
func (s *Scheduler) State() State {
	return s.state
}

// Forecast returns the current forecast, if one has been fetched.
func (s *Scheduler) Forecast() (domain.ForecastSeries, bool) {
	if s.series == nil {
		return domain.ForecastSeries{}, false
	}
	return *s.series, true
}

// Tick syncs the clock and fetches the forecast when due. Clock sync always
// runs first; if it fails the forecast is not considered this tick. Failures
// leave the state untouched so the next tick retries immediately.
func (s *Scheduler) Tick(ctx context.Context) Result {
	if s.clockSyncDue(s.clock.Now()) {
		if err := s.syncer.Sync(ctx); err != nil {
			s.logger.Warn("clock sync failed", "error", &domain.FetchError{Op: domain.OpSyncClock, Err: err})
			s.metrics.ClockSyncs.WithLabelValues("error").Inc()
			return Result{}
		}
		s.state.LastClockSync = s.clock.Now()
		s.metrics.ClockSyncs.WithLabelValues("success").Inc()
		s.logger.Info("clock synced", "wall_time", s.wall.Now().UTC().Format(time.RFC3339))
	}

	if !s.forecastDue(s.clock.Now()) {
		return Result{Proceed: true}
	}

	series, err := s.fetchForecast(ctx)
	if err != nil {
		s.logger.Warn("forecast fetch failed", "error", err)
		s.metrics.ForecastFetch.WithLabelValues("error").Inc()
		return Result{}
	}

	s.series = &series
	s.state.LastWeatherFetch = s.clock.Now()
	s.state.LastWeatherHour = series.Local(series.ReferenceTime).Hour()
	s.metrics.ForecastFetch.WithLabelValues("success").Inc()
	s.logger.Info("forecast updated",
		"samples", len(series.Samples),
		"timezone_offset", series.TimezoneOffset,
		"hour", s.state.LastWeatherHour,
	)
	return Result{Proceed: true, Refreshed: true}
}

func (s *Scheduler) clockSyncDue(now time.Time) bool {
	return s.state.LastClockSync.IsZero() || now.Sub(s.state.LastClockSync) > ClockSyncInterval
}

// forecastDue also forces a refresh when the local hour rolls over, so the
// today/tomorrow selection flips promptly. The hour is only known once a
// forecast has supplied the timezone offset.
func (s *Scheduler) forecastDue(now time.Time) bool {
	if s.state.LastWeatherFetch.IsZero() || now.Sub(s.state.LastWeatherFetch) > ForecastInterval {
		return true
	}
	if s.series == nil {
		return false
	}
	return s.series.Local(s.wall.Now()).Hour() != s.state.LastWeatherHour
}

func (s *Scheduler) fetchForecast(ctx context.Context) (domain.ForecastSeries, error) {
	raw, err := s.fetcher.FetchForecast(ctx, s.query)
	if err != nil {
		return domain.ForecastSeries{}, &domain.FetchError{Op: domain.OpFetchForecast, Err: err}
	}
	series, err := domain.ParseForecast(raw, s.wall.Now())
	if err != nil {
		return domain.ForecastSeries{}, &domain.FetchError{Op: domain.OpFetchForecast, Err: err}
	}
	return series, nil
}
