// Package render runs the display loop: one scheduler tick, then graph and
// greeting computation, then a finished frame handed to the display.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-matrix/internal/domain"
	"github.com/couchcryptid/weather-matrix/internal/observability"
	"github.com/couchcryptid/weather-matrix/internal/scheduler"
	"github.com/jonboulle/clockwork"
)

// Display draws finished frames.
type Display interface {
	Show(ctx context.Context, frame domain.Frame) error
}

// Scheduler refreshes the clock and forecast.
type Scheduler interface {
	Tick(ctx context.Context) scheduler.Result
	Forecast() (domain.ForecastSeries, bool)
	State() scheduler.State
}

// Options configure the loop timing and display variant.
type Options struct {
	Display       domain.DisplayOptions
	TickInterval  time.Duration
	NightInterval time.Duration
}

// Coordinator ties the scheduler, bucketizer and greeting clock to a display.
type Coordinator struct {
	sched   Scheduler
	wall    scheduler.WallClock
	display Display
	opts    Options
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	graph        domain.GraphColumns
	graphPending bool
	lastMode     domain.DisplayMode
	ready        atomic.Bool
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(sched Scheduler, wall scheduler.WallClock, display Display, opts Options,
	clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Coordinator {
	return &Coordinator{
		sched:   sched,
		wall:    wall,
		display: display,
		opts:    opts,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a frame has been shown.
func (c *Coordinator) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no frame rendered yet")
	}
	return nil
}

// Run ticks until the context is cancelled, sleeping TickInterval between
// ticks or NightInterval while in quiet hours. Tick errors are logged; none
// of them stop the loop.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("display loop started",
		"show_mode", c.opts.Display.Show.String(),
		"night_dimming", c.opts.Display.NightDimming,
		"tick", c.opts.TickInterval,
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("display loop stopping", "reason", ctx.Err())
			return nil
		default:
		}

		mode, err := c.Tick(ctx)
		if err != nil {
			c.logger.Error("tick aborted", "error", err)
		}

		interval := c.opts.TickInterval
		if mode == domain.ModeNight {
			interval = c.opts.NightInterval
		}
		if !sleepWithContext(ctx, c.clock, interval) {
			c.logger.Info("display loop stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// Tick runs one scheduler cycle and, unless it was abandoned, renders a
// frame. It returns the display mode used for choosing the next sleep.
func (c *Coordinator) Tick(ctx context.Context) (domain.DisplayMode, error) {
	start := c.clock.Now()
	defer func() {
		c.metrics.TickDuration.Observe(c.clock.Since(start).Seconds())
	}()

	res := c.sched.Tick(ctx)
	if !res.Proceed {
		return c.lastMode, nil
	}
	series, ok := c.sched.Forecast()
	if !ok {
		return c.lastMode, nil
	}
	if res.Refreshed {
		c.graphPending = true
	}

	if c.graphPending {
		day := domain.SelectDay(c.opts.Display.Show, series.Local(series.ReferenceTime))
		cols, err := domain.Bucketize(series, day)
		if err != nil {
			c.metrics.RenderErrors.Inc()
			return c.lastMode, fmt.Errorf("render graphs: %w", err)
		}
		c.graph = cols
		c.graphPending = false
	}

	now := c.wall.Now()
	frame := BuildFrame(series.Local(now), series, c.graph, c.opts.Display)
	frame.RenderedAt = now

	c.lastMode = frame.Mode
	if frame.Mode == domain.ModeNight {
		c.metrics.DisplayMode.Set(1)
	} else {
		c.metrics.DisplayMode.Set(0)
	}
	if fetched := c.sched.State().LastWeatherFetch; !fetched.IsZero() {
		c.metrics.ForecastAge.Set(c.clock.Since(fetched).Seconds())
	}

	if err := c.display.Show(ctx, frame); err != nil {
		return frame.Mode, fmt.Errorf("show frame: %w", err)
	}
	c.metrics.FramesRendered.Inc()
	c.ready.Store(true)
	return frame.Mode, nil
}

// MultiDisplay shows each frame on every display. A failing display does not
// prevent the others from receiving the frame.
type MultiDisplay []Display

func (m MultiDisplay) Show(ctx context.Context, frame domain.Frame) error {
	var errs []error
	for _, d := range m {
		if err := d.Show(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
