// Package proxy implements the trimming forecast proxy. It forwards the
// display's query string to the One Call API and answers with only the fields
// the display reads, so the device has far less JSON to parse.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/weather-matrix/internal/config"
	"github.com/couchcryptid/weather-matrix/internal/domain"
	"github.com/couchcryptid/weather-matrix/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultRetries = 2
	defaultBackoff = 250 * time.Millisecond
	maxBackoff     = 2 * time.Second
	maxErrorBody   = 4096
)

var errInvalidPayload = errors.New("invalid upstream payload")

// statusError is a non-200 answer from the upstream API.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.status, e.body)
}

// Handler serves trimmed forecasts. It implements http.Handler and
// sharedobs.ReadinessChecker.
type Handler struct {
	upstreamURL string
	client      *http.Client
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	cache       *responseCache
	clock       clockwork.Clock
	retries     int
	backoff     time.Duration
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewHandler creates a proxy handler from configuration.
func NewHandler(cfg *config.ProxyConfig, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	h := &Handler{
		upstreamURL: cfg.UpstreamURL,
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		cache:       newResponseCache(cfg.CacheSize, cfg.CacheTTL, clock),
		clock:       clock,
		retries:     defaultRetries,
		backoff:     defaultBackoff,
		logger:      logger,
		metrics:     metrics,
	}
	h.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather-upstream",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *statusError
			return err == nil || (errors.As(err, &se) && se.status < http.StatusInternalServerError)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return h
}

// CheckReadiness fails while the upstream circuit is open.
func (h *Handler) CheckReadiness(_ context.Context) error {
	if h.breaker.State() == gobreaker.StateOpen {
		return errors.New("upstream circuit open")
	}
	return nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lon") == "" {
		h.metrics.ProxyRequests.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, errors.New("lat and lon are required"))
		return
	}
	key := q.Encode()

	if body, ok := h.cache.get(key); ok {
		h.metrics.ProxyCache.WithLabelValues("hit").Inc()
		h.metrics.ProxyRequests.WithLabelValues("success").Inc()
		writeBody(w, body, "HIT")
		return
	}
	h.metrics.ProxyCache.WithLabelValues("miss").Inc()

	if err := h.limiter.Wait(r.Context()); err != nil {
		h.metrics.ProxyRequests.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusTooManyRequests, fmt.Errorf("rate limit wait canceled: %w", err))
		return
	}

	body, err := h.fetch(r.Context(), key)
	if err != nil {
		h.logger.Error("upstream fetch failed", "lat", q.Get("lat"), "lon", q.Get("lon"), "error", err)
		status := http.StatusBadGateway
		outcome := "error"
		var se *statusError
		switch {
		case errors.As(err, &se) && se.status < http.StatusInternalServerError:
			status = se.status
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			status = http.StatusServiceUnavailable
			outcome = "rejected"
		}
		h.metrics.ProxyRequests.WithLabelValues(outcome).Inc()
		writeError(w, status, err)
		return
	}

	h.cache.put(key, body)
	h.metrics.ProxyRequests.WithLabelValues("success").Inc()
	writeBody(w, body, "MISS")
}

// fetch retries transient upstream failures with exponential backoff.
func (h *Handler) fetch(ctx context.Context, rawQuery string) ([]byte, error) {
	backoff := h.backoff
	for attempt := 0; ; attempt++ {
		result, err := h.breaker.Execute(func() (interface{}, error) {
			return h.get(ctx, rawQuery)
		})
		if err == nil {
			return result.([]byte), nil
		}
		if !retryable(err) || attempt >= h.retries {
			return nil, err
		}
		h.logger.Warn("retrying upstream", "attempt", attempt+1, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func retryable(err error) bool {
	var se *statusError
	switch {
	case errors.As(err, &se):
		return se.status >= http.StatusInternalServerError || se.status == http.StatusTooManyRequests
	case errors.Is(err, errInvalidPayload),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

// get performs one upstream request and trims the response.
func (h *Handler) get(ctx context.Context, rawQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.upstreamURL+"?"+rawQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := h.clock.Now()
	resp, err := h.client.Do(req)
	h.metrics.UpstreamDuration.Observe(h.clock.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &statusError{status: resp.StatusCode, body: string(body)}
	}

	var p domain.Payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidPayload, err)
	}
	if _, err := p.Series(h.clock.Now()); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidPayload, err)
	}

	trimmed, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return trimmed, nil
}

func writeBody(w http.ResponseWriter, body []byte, cache string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cache)
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck,gosec // client went away
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
