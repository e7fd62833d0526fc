// Package domain turns an hourly weather forecast into what a 64x32 pixel
// matrix can show: two ten-pixel bar graphs, a handful of temperature labels,
// a greeting, and a clock.
//
// # Data Source
//
// Forecasts come from the OpenWeather One Call API (or the trimming proxy in
// cmd/proxy, which emits the same shape). Only these fields are read:
//
//	timezone_offset     seconds east of UTC for the forecast location
//	current.temp        current temperature, in the requested unit system
//	current.feels_like  apparent temperature
//	hourly[].dt         sample time, unix seconds (UTC)
//	hourly[].temp       temperature
//	hourly[].pop        probability of precipitation, 0.0–1.0
//	hourly[].rain.1h    rain volume for the hour in mm (omitted when dry)
//
// The feed spans 48 hours starting at the current hour, so both "today" and
// "tomorrow" always have at least one sample once the clock is past midnight.
//
// # Day Selection
//
// Samples are not pre-filtered by day. The local weekday of a sample is taken
// from dt + timezone_offset; "today" is the local weekday of the moment the
// forecast was accepted ([ForecastSeries.ReferenceTime]), "tomorrow" the one
// after. The rotating show mode flips from today to tomorrow at 17:00 local.
//
// # Bucketization
//
// Each graph is ten pixels tall. Temperatures map onto 1..10 using ten equal
// buckets between the day's low and high:
//
//	height = max(ceil((t - lo) / ((hi - lo) / 10)), 1)
//
// A flat day (hi == lo) puts every column at 1. Precipitation probability maps
// onto 0..10 as round(pop * 10).
//
// The trend line draws each temperature column from its height down to a
// "top" no more than one pixel past either neighbour, so adjacent columns
// touch and the bars read as a connected line:
//
//	top[0]    = min(h[0], h[1]+1)
//	top[i]    = min(h[i], h[i-1]+1, h[i+1]+1)
//	top[last] = min(h[last], h[last-1]+1)
//
// # Rain Tiers
//
// Hourly rain volume picks the precipitation column colour:
//
//	absent       none      black, the column is invisible
//	< 2.5 mm     light
//	< 10 mm      moderate
//	< 50 mm      heavy
//	≥ 50 mm      violent   red
//
// A present-but-zero volume is light, not none.
//
// # Rounding
//
// Display values (labels, precipitation heights) round half to even, matching
// the firmware the layout was first tuned on. Bucket math uses unrounded values.
package domain
