package domain

import (
	"fmt"
	"time"
)

const secondsPerDay = 60 * 60 * 24

// DefaultGreeting is shown outside every named time range.
const DefaultGreeting = "Zzzzz..."

// morningGreetings is indexed Monday first.
var morningGreetings = [7]string{
	"Kali mera!",
	"Bonjour!",
	"G'morning!",
	"Bom dia!",
	"Co-brkfst!",
	"Swan time!",
	"Buongiorno!",
}

// Countdown is a named event shown as "N days to NAME" in the afternoon.
type Countdown struct {
	Name   string
	Target time.Time
}

// DaysLeft counts calendar-ish days to the target: the event day itself is 1.
func (c Countdown) DaysLeft(now time.Time) int64 {
	return floorDiv(c.Target.Unix()-now.Unix(), secondsPerDay) + 1
}

// Greeting picks the greeting for a local time. A configured countdown
// replaces the afternoon greeting and nothing else.
func Greeting(local time.Time, event *Countdown) string {
	h := local.Hour()
	switch {
	case h >= 7 && h < 12:
		return morningGreetings[mondayIndex(local.Weekday())]
	case h >= 12 && h < 17:
		if event != nil {
			return fmt.Sprintf("%3d to %s!", event.DaysLeft(local), event.Name)
		}
		return "Boa tarde!"
	case h >= 17 && h < 19:
		return "Happy hour!"
	case h == 19:
		return "Dinnertime!"
	case h >= 20 && h < 22:
		return "Wind down!"
	case h == 22:
		if local.Minute() < 30 {
			return "Tuck in!"
		}
		return "Lights out!"
	default:
		return DefaultGreeting
	}
}

// ClockText formats a 12-hour clock, "%2d:%02d".
func ClockText(local time.Time) string {
	h := local.Hour() % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%2d:%02d", h, local.Minute())
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
