package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_matrix"

// Metrics holds the Prometheus counters, histograms, and gauges for the display and proxy.
type Metrics struct {
	ClockSyncs     *prometheus.CounterVec // labels: outcome={success,error}
	ForecastFetch  *prometheus.CounterVec // labels: outcome={success,error}
	ForecastAge    prometheus.Gauge
	FramesRendered prometheus.Counter
	RenderErrors   prometheus.Counter
	TickDuration   prometheus.Histogram
	DisplayMode    prometheus.Gauge

	// Proxy metrics.
	ProxyRequests    *prometheus.CounterVec // labels: outcome={success,error,rejected}
	ProxyCache       *prometheus.CounterVec // labels: result={hit,miss}
	UpstreamDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	prometheus.MustRegister(
		m.ClockSyncs,
		m.ForecastFetch,
		m.ForecastAge,
		m.FramesRendered,
		m.RenderErrors,
		m.TickDuration,
		m.DisplayMode,
		m.ProxyRequests,
		m.ProxyCache,
		m.UpstreamDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ClockSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clock_syncs_total",
			Help:      "Wall-clock synchronisation attempts by outcome.",
		}, []string{"outcome"}),
		ForecastFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_fetches_total",
			Help:      "Forecast fetch attempts by outcome.",
		}, []string{"outcome"}),
		ForecastAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_age_seconds",
			Help:      "Seconds since the displayed forecast was fetched.",
		}),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rendered_total",
			Help:      "Frames handed to the display.",
		}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Ticks aborted because graph data could not be computed.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of one scheduler and render tick.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		DisplayMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "display_night_mode",
			Help:      "1 while the display is in quiet-hours mode, 0 otherwise.",
		}),
		ProxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_requests_total",
			Help:      "Proxy requests by outcome.",
		}, []string{"outcome"}),
		ProxyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_cache_total",
			Help:      "Proxy cache lookups by result.",
		}, []string{"result"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "proxy_upstream_duration_seconds",
			Help:      "Upstream forecast API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
