package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrLocationNotFound is returned when the geocoder has no match for a name.
var ErrLocationNotFound = errors.New("location not found")

// ResolveLocation fills in the query coordinates from a place name. Explicit
// coordinates win; the geocoder is only consulted when both are zero.
func ResolveLocation(ctx context.Context, q ForecastQuery, name string, geocoder Geocoder, logger *slog.Logger) (ForecastQuery, error) {
	if q.Lat != 0 || q.Lon != 0 {
		return q, nil
	}
	if geocoder == nil || name == "" {
		return q, errors.New("resolve location: no coordinates and no geocoder")
	}

	result, err := geocoder.ForwardGeocode(ctx, name)
	if err != nil {
		return q, fmt.Errorf("resolve location %q: %w", name, err)
	}
	if result.Lat == 0 && result.Lon == 0 {
		return q, fmt.Errorf("resolve location %q: %w", name, ErrLocationNotFound)
	}

	logger.Info("resolved location",
		"name", name,
		"place", result.FormattedAddress,
		"lat", result.Lat,
		"lon", result.Lon,
		"confidence", result.Confidence,
	)
	q.Lat = result.Lat
	q.Lon = result.Lon
	return q, nil
}
