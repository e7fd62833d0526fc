// Package openweather fetches hourly forecasts from the OpenWeather One Call
// API, or from the trimming proxy that speaks the same protocol.
package openweather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-matrix/internal/domain"
)

// DefaultBaseURL is the One Call 3.0 endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

// maxPayloadBytes bounds the response body; a 48-hour hourly feed is ~20 KB.
const maxPayloadBytes = 1 << 20

// Client implements scheduler.ForecastFetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a forecast client for the given endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// FetchForecast requests current and hourly data for the query location and
// returns the raw response body.
func (c *Client) FetchForecast(ctx context.Context, q domain.ForecastQuery) ([]byte, error) {
	params := url.Values{
		"lat":     {strconv.FormatFloat(q.Lat, 'f', -1, 64)},
		"lon":     {strconv.FormatFloat(q.Lon, 'f', -1, 64)},
		"appid":   {q.APIKey},
		"exclude": {"minutely,daily,alerts"},
		"units":   {q.Units},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("forecast fetched", "bytes", len(body), "duration", time.Since(start))
	return body, nil
}
