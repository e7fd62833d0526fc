package render

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/weather-matrix/internal/domain"
)

// Label names, stable across frames so sinks can diff them.
const (
	LabelGreeting  = "greeting"
	LabelTemp      = "temp"
	LabelFeelsLike = "feels_like"
	LabelHigh      = "high"
	LabelLow       = "low"
	LabelClock     = "clock"
)

// Graph origins on the panel; columns are right-aligned.
const (
	tempGraphY = 11
	rainGraphY = 22
)

// BuildFrame lays out one frame for a local time. In quiet hours only a dim
// clock is shown.
func BuildFrame(local time.Time, series domain.ForecastSeries, cols domain.GraphColumns, opts domain.DisplayOptions) domain.Frame {
	mode := domain.ModeAt(local, opts)
	clock := domain.Label{Name: LabelClock, Text: domain.ClockText(local), X: 0, Y: 27, Color: domain.ColorText, Font: domain.FontTerminal}

	if mode == domain.ModeNight {
		clock.Color = domain.ColorDim
		return domain.Frame{Mode: mode, Labels: []domain.Label{clock}}
	}

	dayColor := cols.Day.Color()
	return domain.Frame{
		Mode: mode,
		Labels: []domain.Label{
			{Name: LabelGreeting, Text: domain.Greeting(local, opts.Countdown), X: 0, Y: 3, Color: domain.ColorGreeting, Font: domain.FontTerminal},
			{Name: LabelTemp, Text: twoDigits(series.CurrentTemp), X: 18, Y: 15, Color: domain.ColorText, Font: domain.FontTerminal},
			{Name: LabelFeelsLike, Text: twoDigits(series.FeelsLike), X: 8, Y: 18, Color: domain.ColorText, Font: domain.FontThumb},
			{Name: LabelHigh, Text: fmt.Sprintf("%2d", cols.High), X: 32, Y: 13, Color: dayColor, Font: domain.FontThumb},
			{Name: LabelLow, Text: fmt.Sprintf("%2d", cols.Low), X: 32, Y: 20, Color: dayColor, Font: domain.FontThumb},
			clock,
		},
		TempGraph: tempGraph(cols, dayColor),
		RainGraph: rainGraph(cols),
	}
}

func twoDigits(v float64) string {
	return fmt.Sprintf("%2d", int(math.RoundToEven(v)))
}

func graphX(n int) int {
	return max(domain.PanelWidth-n, 0)
}

// tempGraph draws each column from its height down to its smoothed top.
func tempGraph(cols domain.GraphColumns, color domain.Color) *domain.Graph {
	g := &domain.Graph{X: graphX(cols.Len()), Y: tempGraphY, Segments: make([]domain.Segment, cols.Len())}
	for i, h := range cols.TempHeights {
		g.Segments[i] = domain.Segment{
			Column: i,
			Top:    domain.GraphHeight - h,
			Bottom: domain.GraphHeight - cols.TempTops[i],
			Color:  color,
		}
	}
	return g
}

func rainGraph(cols domain.GraphColumns) *domain.Graph {
	g := &domain.Graph{X: graphX(cols.Len()), Y: rainGraphY, Segments: make([]domain.Segment, len(cols.PrecipHeights))}
	for i, p := range cols.PrecipHeights {
		g.Segments[i] = domain.Segment{
			Column: i,
			Top:    domain.GraphHeight - p,
			Bottom: domain.GraphHeight,
			Color:  cols.PrecipColors[i],
		}
	}
	return g
}
