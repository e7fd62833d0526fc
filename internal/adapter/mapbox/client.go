// Package mapbox looks up the display's coordinates from the configured
// LOCATION_NAME. The lookup runs once at startup, before the first forecast
// fetch, and only when no explicit latitude and longitude are configured.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/weather-matrix/internal/domain"
)

// DefaultBaseURL is the Mapbox places geocoding endpoint.
const DefaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// DefaultPlaceTypes restricts matches to areas a forecast makes sense for.
// Street addresses and points of interest are left out.
var DefaultPlaceTypes = []string{"place", "locality", "neighborhood", "postcode"}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at a different geocoding endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithPlaceTypes replaces DefaultPlaceTypes. An empty list keeps the default.
func WithPlaceTypes(types ...string) Option {
	return func(c *Client) {
		if len(types) > 0 {
			c.placeTypes = types
		}
	}
}

// WithCountry limits matches to the given ISO 3166 alpha-2 country codes.
func WithCountry(codes ...string) Option {
	return func(c *Client) { c.countries = codes }
}

// Client resolves a place name to the coordinates the forecast is fetched for.
// It implements domain.Geocoder.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	placeTypes []string
	countries  []string
	logger     *slog.Logger
}

// NewClient creates a Mapbox client for the startup location lookup.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		placeTypes: DefaultPlaceTypes,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForwardGeocode returns the best match for name. It returns
// domain.ErrLocationNotFound when Mapbox has no match, so startup fails
// instead of retrying a name that will never resolve.
func (c *Client) ForwardGeocode(ctx context.Context, name string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.lookupURL(name), nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("location lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.GeocodingResult{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var places response
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	best, ok := places.best()
	if !ok {
		c.logger.Warn("mapbox has no match for location", "name", name, "types", c.placeTypes)
		return domain.GeocodingResult{}, domain.ErrLocationNotFound
	}
	return domain.GeocodingResult{
		Lat:              best.Center[1],
		Lon:              best.Center[0],
		FormattedAddress: best.PlaceName,
		PlaceName:        best.Text,
		Confidence:       best.Relevance,
	}, nil
}

// lookupURL builds a single-result, non-autocomplete query for name.
func (c *Client) lookupURL(name string) string {
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"autocomplete": {"false"},
		"types":        {strings.Join(c.placeTypes, ",")},
	}
	if len(c.countries) > 0 {
		params.Set("country", strings.ToLower(strings.Join(c.countries, ",")))
	}
	return fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(name), params.Encode())
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

// best returns the first feature that carries a usable centre point.
func (r response) best() (feature, bool) {
	for _, f := range r.Features {
		if len(f.Center) == 2 {
			return f, true
		}
	}
	return feature{}, false
}
