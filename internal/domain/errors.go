package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyForecastForDay is returned by Bucketize when the series has no
// samples for the selected day. Callers must not render from partial data.
var ErrEmptyForecastForDay = errors.New("forecast has no samples for selected day")

// Collaborator operations reported in FetchError.Op.
const (
	OpSyncClock     = "sync_clock"
	OpFetchForecast = "fetch_forecast"
)

// FetchError wraps a network or parse failure from an external collaborator.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
