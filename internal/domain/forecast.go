package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// HourlySample is one point of the hourly forecast.
type HourlySample struct {
	Timestamp         int64    // unix seconds, UTC
	Temperature       float64  // display units
	PrecipProbability float64  // 0.0–1.0
	RainMM            *float64 // nil when the feed omitted rain.1h
}

// ForecastSeries is a validated forecast response. A new series replaces the
// previous one wholesale; it is never merged or mutated after parsing.
type ForecastSeries struct {
	Samples        []HourlySample
	TimezoneOffset int // seconds east of UTC
	CurrentTemp    float64
	FeelsLike      float64

	// ReferenceTime is the wall-clock instant the series was accepted.
	// "Today" and "tomorrow" are relative to it.
	ReferenceTime time.Time
}

// Local converts an instant to the forecast location's local time.
func (s ForecastSeries) Local(t time.Time) time.Time {
	return t.In(s.Zone())
}

// Zone returns a fixed zone for the forecast's timezone offset.
func (s ForecastSeries) Zone() *time.Location {
	return time.FixedZone("", s.TimezoneOffset)
}

// ForecastQuery carries the location, credential and unit system for a fetch.
type ForecastQuery struct {
	Lat    float64
	Lon    float64
	APIKey string
	Units  string
}

// Payload is the subset of the One Call response the display reads. The
// proxy re-encodes it, so absent rain must stay absent on the wire.
type Payload struct {
	TimezoneOffset int             `json:"timezone_offset"`
	Current        *PayloadCurrent `json:"current"`
	Hourly         []PayloadHourly `json:"hourly"`
}

// PayloadCurrent holds current conditions.
type PayloadCurrent struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
}

// PayloadHourly holds one hourly forecast entry.
type PayloadHourly struct {
	Dt   int64        `json:"dt"`
	Temp float64      `json:"temp"`
	Pop  float64      `json:"pop"`
	Rain *PayloadRain `json:"rain,omitempty"`
}

// PayloadRain holds the rain volume. OneHour is nil when the hour has a rain
// object without a 1h entry.
type PayloadRain struct {
	OneHour *float64 `json:"1h,omitempty"`
}

// ParseForecast decodes a raw payload into a ForecastSeries stamped with the
// given reference time.
func ParseForecast(raw []byte, ref time.Time) (ForecastSeries, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ForecastSeries{}, fmt.Errorf("parse forecast: %w", err)
	}
	return p.Series(ref)
}

// Series validates the payload and converts it to a ForecastSeries.
func (p Payload) Series(ref time.Time) (ForecastSeries, error) {
	if p.Current == nil {
		return ForecastSeries{}, errors.New("parse forecast: missing current conditions")
	}
	if len(p.Hourly) == 0 {
		return ForecastSeries{}, errors.New("parse forecast: missing hourly forecast")
	}

	samples := make([]HourlySample, 0, len(p.Hourly))
	for i, h := range p.Hourly {
		if h.Pop < 0 || h.Pop > 1 {
			return ForecastSeries{}, fmt.Errorf("parse forecast: hourly[%d]: pop %v out of range", i, h.Pop)
		}
		s := HourlySample{
			Timestamp:         h.Dt,
			Temperature:       h.Temp,
			PrecipProbability: h.Pop,
		}
		if h.Rain != nil && h.Rain.OneHour != nil {
			mm := *h.Rain.OneHour
			s.RainMM = &mm
		}
		samples = append(samples, s)
	}

	return ForecastSeries{
		Samples:        samples,
		TimezoneOffset: p.TimezoneOffset,
		CurrentTemp:    p.Current.Temp,
		FeelsLike:      p.Current.FeelsLike,
		ReferenceTime:  ref,
	}, nil
}
