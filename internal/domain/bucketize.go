package domain

import (
	"fmt"
	"math"
	"time"
)

// GraphHeight is the pixel height of both bar graphs.
const GraphHeight = 10

// rotateHour is the local hour at which the rotating show mode switches from
// today's forecast to tomorrow's.
const rotateHour = 17

// Day selects which local day of the forecast feeds the graphs.
type Day int

const (
	DayToday Day = iota
	DayTomorrow
)

func (d Day) String() string {
	if d == DayTomorrow {
		return "tomorrow"
	}
	return "today"
}

// Color returns the trend-line and high/low label colour for the day.
func (d Day) Color() Color {
	if d == DayTomorrow {
		return ColorTomorrow
	}
	return ColorToday
}

// ShowMode is the configured day-selection policy.
type ShowMode int

const (
	ShowRotating ShowMode = iota // today before 17:00 local, tomorrow after
	ShowToday
	ShowTomorrow
)

// ParseShowMode parses "rotating", "today" or "tomorrow".
func ParseShowMode(s string) (ShowMode, error) {
	switch s {
	case "rotating", "":
		return ShowRotating, nil
	case "today":
		return ShowToday, nil
	case "tomorrow":
		return ShowTomorrow, nil
	default:
		return 0, fmt.Errorf("unknown show mode %q", s)
	}
}

func (m ShowMode) String() string {
	switch m {
	case ShowToday:
		return "today"
	case ShowTomorrow:
		return "tomorrow"
	default:
		return "rotating"
	}
}

// SelectDay applies the show mode to a local time.
func SelectDay(mode ShowMode, local time.Time) Day {
	switch mode {
	case ShowToday:
		return DayToday
	case ShowTomorrow:
		return DayTomorrow
	default:
		if local.Hour() < rotateHour {
			return DayToday
		}
		return DayTomorrow
	}
}

// GraphColumns is the bar-graph data for one day. All slices have one entry
// per hourly sample of that day.
type GraphColumns struct {
	Day           Day
	TempHeights   []int   // 1..10
	TempTops      []int   // <= TempHeights[i]
	PrecipHeights []int   // 0..10
	PrecipColors  []Color // tier colour per column
	Low           int
	High          int
}

// Len returns the number of columns.
func (g GraphColumns) Len() int {
	return len(g.TempHeights)
}

// Bucketize filters the series to the selected local day and maps it onto
// graph columns. It returns ErrEmptyForecastForDay when the day has no samples.
func Bucketize(series ForecastSeries, day Day) (GraphColumns, error) {
	target := series.Local(series.ReferenceTime).Weekday()
	if day == DayTomorrow {
		target = (target + 1) % 7
	}

	var temps []float64
	var pops []int
	var colors []Color
	for _, s := range series.Samples {
		if localWeekday(s.Timestamp, series.TimezoneOffset) != target {
			continue
		}
		temps = append(temps, s.Temperature)
		pops = append(pops, precipHeight(s.PrecipProbability))
		colors = append(colors, ClassifyRain(s.RainMM).Color())
	}
	if len(temps) == 0 {
		return GraphColumns{}, fmt.Errorf("bucketize %s (%s): %w", day, target, ErrEmptyForecastForDay)
	}

	lo, hi := temps[0], temps[0]
	for _, t := range temps[1:] {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}

	heights := tempHeights(temps, lo, hi)
	return GraphColumns{
		Day:           day,
		TempHeights:   heights,
		TempTops:      smoothTops(heights),
		PrecipHeights: pops,
		PrecipColors:  colors,
		Low:           int(math.RoundToEven(lo)),
		High:          int(math.RoundToEven(hi)),
	}, nil
}

func localWeekday(ts int64, offset int) time.Weekday {
	return time.Unix(ts+int64(offset), 0).UTC().Weekday()
}

// tempHeights splits [lo, hi] into ten equal buckets. A flat series has no
// bucket width and every column sits at the floor.
func tempHeights(temps []float64, lo, hi float64) []int {
	heights := make([]int, len(temps))
	bucket := (hi - lo) / GraphHeight
	for i, t := range temps {
		if bucket == 0 {
			heights[i] = 1
			continue
		}
		h := int(math.Ceil((t - lo) / bucket))
		heights[i] = min(max(h, 1), GraphHeight)
	}
	return heights
}

func precipHeight(pop float64) int {
	h := int(math.RoundToEven(pop * GraphHeight))
	return min(max(h, 0), GraphHeight)
}

// smoothTops caps each column's drawn span to within one pixel of its
// neighbours so the bars join into a line.
func smoothTops(heights []int) []int {
	tops := make([]int, len(heights))
	last := len(heights) - 1
	for i, h := range heights {
		top := h
		if i > 0 {
			top = min(top, heights[i-1]+1)
		}
		if i < last {
			top = min(top, heights[i+1]+1)
		}
		tops[i] = top
	}
	return tops
}
