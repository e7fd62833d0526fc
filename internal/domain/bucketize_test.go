package domain

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOffset = -4 * 60 * 60 // EDT

var testZone = time.FixedZone("EDT", testOffset)

// mondayMorning is the reference time for most series: Monday 22 April 2024, 10:00 local.
var mondayMorning = time.Date(2024, time.April, 22, 10, 0, 0, 0, testZone)

func ptr(v float64) *float64 { return &v }

// hourlyFrom builds one sample per temperature, starting at local midnight of day.
func hourlyFrom(day time.Time, temps ...float64) []HourlySample {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, testZone)
	samples := make([]HourlySample, len(temps))
	for i, t := range temps {
		samples[i] = HourlySample{
			Timestamp:   start.Add(time.Duration(i) * time.Hour).Unix(),
			Temperature: t,
		}
	}
	return samples
}

func testSeries(samples ...HourlySample) ForecastSeries {
	return ForecastSeries{
		Samples:        samples,
		TimezoneOffset: testOffset,
		CurrentTemp:    71.6,
		FeelsLike:      70.2,
		ReferenceTime:  mondayMorning,
	}
}

func TestBucketize_TomorrowEndToEnd(t *testing.T) {
	temps := make([]float64, 24)
	for i := range temps {
		temps[i] = 60 + 20*float64(i)/23
	}
	tuesday := mondayMorning.AddDate(0, 0, 1)
	samples := append(hourlyFrom(mondayMorning, 50, 51, 52), hourlyFrom(tuesday, temps...)...)

	cols, err := Bucketize(testSeries(samples...), DayTomorrow)
	require.NoError(t, err)

	assert.Equal(t, DayTomorrow, cols.Day)
	assert.Equal(t, 60, cols.Low)
	assert.Equal(t, 80, cols.High)
	require.Equal(t, 24, cols.Len())
	assert.Len(t, cols.TempTops, 24)
	assert.Len(t, cols.PrecipHeights, 24)
	assert.Len(t, cols.PrecipColors, 24)

	assert.Equal(t, 1, cols.TempHeights[0])
	assert.Equal(t, 10, cols.TempHeights[23])
	for i := 1; i < 24; i++ {
		assert.GreaterOrEqual(t, cols.TempHeights[i], cols.TempHeights[i-1], "column %d", i)
	}
	for i := range 24 {
		assert.Equal(t, 0, cols.PrecipHeights[i])
		assert.Equal(t, TierNone.Color(), cols.PrecipColors[i])
	}
}

func TestBucketize_Today(t *testing.T) {
	tuesday := mondayMorning.AddDate(0, 0, 1)
	samples := append(hourlyFrom(mondayMorning, 40, 45, 50), hourlyFrom(tuesday, 90, 91)...)

	cols, err := Bucketize(testSeries(samples...), DayToday)
	require.NoError(t, err)

	assert.Equal(t, DayToday, cols.Day)
	assert.Equal(t, []int{1, 5, 10}, cols.TempHeights)
	assert.Equal(t, 40, cols.Low)
	assert.Equal(t, 50, cols.High)
}

func TestBucketize_UsesLocalWeekday(t *testing.T) {
	// 02:00 UTC Tuesday is still 22:00 Monday at UTC-4.
	lateMonday := time.Date(2024, time.April, 23, 2, 0, 0, 0, time.UTC)
	series := testSeries(
		HourlySample{Timestamp: lateMonday.Unix(), Temperature: 55},
		HourlySample{Timestamp: lateMonday.Add(2 * time.Hour).Unix(), Temperature: 65},
	)

	cols, err := Bucketize(series, DayToday)
	require.NoError(t, err)
	assert.Equal(t, 55, cols.Low)
	assert.Equal(t, 55, cols.High)
	assert.Equal(t, 1, cols.Len())
}

func TestBucketize_TomorrowWrapsSaturdayToSunday(t *testing.T) {
	saturday := time.Date(2024, time.April, 27, 18, 0, 0, 0, testZone)
	sunday := saturday.AddDate(0, 0, 1)
	series := testSeries(append(hourlyFrom(saturday, 60), hourlyFrom(sunday, 70, 72)...)...)
	series.ReferenceTime = saturday

	cols, err := Bucketize(series, DayTomorrow)
	require.NoError(t, err)
	assert.Equal(t, 70, cols.Low)
	assert.Equal(t, 72, cols.High)
}

func TestBucketize_EmptyDay(t *testing.T) {
	series := testSeries(hourlyFrom(mondayMorning, 60, 61, 62)...)

	_, err := Bucketize(series, DayTomorrow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyForecastForDay))
	assert.Contains(t, err.Error(), "Tuesday")
}

func TestBucketize_FlatDay(t *testing.T) {
	series := testSeries(hourlyFrom(mondayMorning, 72, 72, 72, 72)...)

	cols, err := Bucketize(series, DayToday)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1}, cols.TempHeights)
	assert.Equal(t, []int{1, 1, 1, 1}, cols.TempTops)
	assert.Equal(t, 72, cols.Low)
	assert.Equal(t, 72, cols.High)
}

func TestBucketize_SingleSample(t *testing.T) {
	series := testSeries(hourlyFrom(mondayMorning, 33.4)...)

	cols, err := Bucketize(series, DayToday)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, cols.TempHeights)
	assert.Equal(t, []int{1}, cols.TempTops)
	assert.Equal(t, 33, cols.Low)
}

func TestBucketize_HeightProperties(t *testing.T) {
	temps := []float64{-3.2, 14.8, 7.1, 22.9, -1, 0, 19.95, 3.3, 22.9, 11.11, -3.2, 8}
	series := testSeries(hourlyFrom(mondayMorning, temps...)...)

	cols, err := Bucketize(series, DayToday)
	require.NoError(t, err)
	require.Equal(t, len(temps), cols.Len())

	for i, h := range cols.TempHeights {
		assert.GreaterOrEqual(t, h, 1)
		assert.LessOrEqual(t, h, GraphHeight)
		assert.LessOrEqual(t, cols.TempTops[i], h, "top[%d]", i)
	}

	idx := make([]int, len(temps))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return temps[idx[a]] < temps[idx[b]] })
	for k := 1; k < len(idx); k++ {
		assert.GreaterOrEqual(t, cols.TempHeights[idx[k]], cols.TempHeights[idx[k-1]],
			"height must not decrease from %v to %v", temps[idx[k-1]], temps[idx[k]])
	}
}

func TestBucketize_Precipitation(t *testing.T) {
	samples := hourlyFrom(mondayMorning, 60, 61, 62, 63, 64, 65)
	pops := []float64{0, 0.25, 0.74, 1, 0.5, 0.3}
	rain := []*float64{nil, ptr(0), ptr(3), ptr(12.5), ptr(80), nil}
	for i := range samples {
		samples[i].PrecipProbability = pops[i]
		samples[i].RainMM = rain[i]
	}

	cols, err := Bucketize(testSeries(samples...), DayToday)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 7, 10, 5, 3}, cols.PrecipHeights)
	assert.Equal(t, []Color{
		TierNone.Color(),
		TierLight.Color(),
		TierModerate.Color(),
		TierHeavy.Color(),
		TierViolent.Color(),
		TierNone.Color(),
	}, cols.PrecipColors)
}

func TestBucketize_Deterministic(t *testing.T) {
	samples := hourlyFrom(mondayMorning, 61.2, 64.9, 70.3, 68, 59.9, 75.5)
	samples[2].RainMM = ptr(4.2)
	samples[2].PrecipProbability = 0.6
	series := testSeries(samples...)

	first, err := Bucketize(series, DayToday)
	require.NoError(t, err)
	second, err := Bucketize(series, DayToday)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Bucketize not deterministic (-first +second):\n%s", diff)
	}
}

func TestTempHeights(t *testing.T) {
	tests := []struct {
		name  string
		temps []float64
		want  []int
	}{
		{"spread", []float64{60, 61, 62, 70, 79, 80}, []int{1, 1, 1, 5, 10, 10}},
		{"negative", []float64{-10, -5, 0}, []int{1, 5, 10}},
		{"flat", []float64{5, 5}, []int{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.temps[0], tt.temps[0]
			for _, v := range tt.temps {
				lo = min(lo, v)
				hi = max(hi, v)
			}
			assert.Equal(t, tt.want, tempHeights(tt.temps, lo, hi))
		})
	}
}

func TestSmoothTops(t *testing.T) {
	tests := []struct {
		name    string
		heights []int
		want    []int
	}{
		{"single", []int{7}, []int{7}},
		{"pair", []int{2, 9}, []int{2, 3}},
		{"mixed", []int{1, 5, 2, 10, 10, 3}, []int{1, 2, 2, 3, 4, 3}},
		{"flat", []int{4, 4, 4}, []int{4, 4, 4}},
		{"falling edge", []int{10, 1}, []int{2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := smoothTops(tt.heights)
			assert.Equal(t, tt.want, got)

			last := len(tt.heights) - 1
			if last > 0 {
				assert.Equal(t, min(tt.heights[0], tt.heights[1]+1), got[0])
				assert.Equal(t, min(tt.heights[last], tt.heights[last-1]+1), got[last])
			}
		})
	}
}

func TestSelectDay(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2024, time.April, 22, h, m, 0, 0, testZone) }

	assert.Equal(t, DayToday, SelectDay(ShowRotating, at(16, 59)))
	assert.Equal(t, DayTomorrow, SelectDay(ShowRotating, at(17, 0)))
	assert.Equal(t, DayToday, SelectDay(ShowRotating, at(0, 0)))
	assert.Equal(t, DayTomorrow, SelectDay(ShowRotating, at(23, 59)))

	assert.Equal(t, DayToday, SelectDay(ShowToday, at(21, 0)))
	assert.Equal(t, DayTomorrow, SelectDay(ShowTomorrow, at(8, 0)))
}

func TestDayColor(t *testing.T) {
	assert.Equal(t, ColorToday, DayToday.Color())
	assert.Equal(t, ColorTomorrow, DayTomorrow.Color())
}

func TestParseShowMode(t *testing.T) {
	for in, want := range map[string]ShowMode{
		"":         ShowRotating,
		"rotating": ShowRotating,
		"today":    ShowToday,
		"tomorrow": ShowTomorrow,
	} {
		got, err := ParseShowMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseShowMode("yesterday")
	require.Error(t, err)
}
