package domain

import (
	"fmt"
	"time"
)

// DisplayMode selects between the full weather frame and the quiet-hours frame.
type DisplayMode int

const (
	ModeDay DisplayMode = iota
	ModeNight
)

func (m DisplayMode) String() string {
	if m == ModeNight {
		return "night"
	}
	return "day"
}

// MarshalText encodes the mode as "day" or "night".
func (m DisplayMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes "day" or "night".
func (m *DisplayMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "day":
		*m = ModeDay
	case "night":
		*m = ModeNight
	default:
		return fmt.Errorf("unknown display mode %q", text)
	}
	return nil
}

// ClockTime is a minute of the day, 0..1439.
type ClockTime int

// ParseClockTime parses "HH:MM" in 24-hour notation.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: want HH:MM", s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// DisplayOptions enumerates the supported display variants.
type DisplayOptions struct {
	Show         ShowMode
	NightDimming bool
	QuietStart   ClockTime // Night from here...
	QuietEnd     ClockTime // ...until here, exclusive
	Countdown    *Countdown
}

// ModeAt reports the display mode for a local time. It is a pure function of
// the time and options; nothing about the previous mode is remembered.
func ModeAt(local time.Time, opts DisplayOptions) DisplayMode {
	if !opts.NightDimming || opts.QuietStart == opts.QuietEnd {
		return ModeDay
	}
	now := ClockTime(local.Hour()*60 + local.Minute())
	var quiet bool
	if opts.QuietStart < opts.QuietEnd {
		quiet = now >= opts.QuietStart && now < opts.QuietEnd
	} else {
		quiet = now >= opts.QuietStart || now < opts.QuietEnd
	}
	if quiet {
		return ModeNight
	}
	return ModeDay
}
