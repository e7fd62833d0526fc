package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustClock(t *testing.T, s string) ClockTime {
	t.Helper()
	c, err := ParseClockTime(s)
	require.NoError(t, err)
	return c
}

func TestModeAt_DimmingDisabled(t *testing.T) {
	opts := DisplayOptions{QuietStart: mustClock(t, "23:00"), QuietEnd: mustClock(t, "07:00")}
	assert.Equal(t, ModeDay, ModeAt(localAt(0, 2, 0), opts))
}

func TestModeAt_WrappingWindow(t *testing.T) {
	opts := DisplayOptions{
		NightDimming: true,
		QuietStart:   mustClock(t, "23:00"),
		QuietEnd:     mustClock(t, "07:00"),
	}

	tests := []struct {
		hh, mm int
		want   DisplayMode
	}{
		{22, 59, ModeDay},
		{23, 0, ModeNight},
		{0, 0, ModeNight},
		{6, 59, ModeNight},
		{7, 0, ModeDay},
		{12, 0, ModeDay},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ModeAt(localAt(0, tt.hh, tt.mm), opts), "%02d:%02d", tt.hh, tt.mm)
	}
}

func TestModeAt_SameDayWindow(t *testing.T) {
	opts := DisplayOptions{
		NightDimming: true,
		QuietStart:   mustClock(t, "01:30"),
		QuietEnd:     mustClock(t, "05:00"),
	}
	assert.Equal(t, ModeDay, ModeAt(localAt(0, 1, 29), opts))
	assert.Equal(t, ModeNight, ModeAt(localAt(0, 1, 30), opts))
	assert.Equal(t, ModeNight, ModeAt(localAt(0, 4, 59), opts))
	assert.Equal(t, ModeDay, ModeAt(localAt(0, 5, 0), opts))
}

func TestModeAt_EmptyWindow(t *testing.T) {
	opts := DisplayOptions{NightDimming: true, QuietStart: 60, QuietEnd: 60}
	assert.Equal(t, ModeDay, ModeAt(localAt(0, 1, 0), opts))
}

func TestParseClockTime(t *testing.T) {
	c := mustClock(t, "07:05")
	assert.Equal(t, ClockTime(7*60+5), c)
	assert.Equal(t, "07:05", c.String())

	for _, bad := range []string{"", "7", "24:00", "12:60", "noon"} {
		_, err := ParseClockTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestDisplayMode_Text(t *testing.T) {
	b, err := ModeNight.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "night", string(b))

	var m DisplayMode
	require.NoError(t, m.UnmarshalText([]byte("night")))
	assert.Equal(t, ModeNight, m)
	assert.Error(t, m.UnmarshalText([]byte("dusk")))
}
