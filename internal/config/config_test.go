package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/weather-matrix/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken       = "ow-test-token"
	testMapboxToken = "pk.test-token"
	oneCallURL      = "https://api.openweathermap.org/data/3.0/onecall"
)

// setRequired sets the minimum environment for Load to succeed.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OPENWEATHER_TOKEN", testToken)
	t.Setenv("OPENWEATHER_LAT", "40.7128")
	t.Setenv("OPENWEATHER_LON", "-74.006")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, oneCallURL, cfg.OpenWeatherURL)
	assert.Equal(t, 10*time.Second, cfg.OpenWeatherTimeout)
	assert.Equal(t, domain.ForecastQuery{Lat: 40.7128, Lon: -74.006, APIKey: testToken, Units: "imperial"}, cfg.Query)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, "https://worldtimeapi.org/api/timezone/Etc/UTC", cfg.TimeURL)
	assert.Equal(t, 10*time.Second, cfg.TimeTimeout)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, time.Minute, cfg.NightTickInterval)
	assert.Empty(t, cfg.FramePNGPath)
	assert.Equal(t, domain.DisplayOptions{
		Show:       domain.ShowRotating,
		QuietStart: 23 * 60,
		QuietEnd:   7 * 60,
	}, cfg.Display)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "matrix-frames", cfg.KafkaFrameTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("OPENWEATHER_URL", "http://proxy.local:8081/")
	t.Setenv("OPENWEATHER_UNITS", "metric")
	t.Setenv("OPENWEATHER_TIMEOUT", "3s")
	t.Setenv("SHOW_MODE", "Tomorrow")
	t.Setenv("NIGHT_DIMMING", "true")
	t.Setenv("QUIET_START", "22:30")
	t.Setenv("QUIET_END", "06:15")
	t.Setenv("EVENT_NAME", "Oslo")
	t.Setenv("EVENT_TIME", "2024-06-01T00:00:00Z")
	t.Setenv("TICK_INTERVAL", "2s")
	t.Setenv("NIGHT_TICK_INTERVAL", "5m")
	t.Setenv("FRAME_PNG_PATH", "/tmp/frame.png")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_FRAME_TOPIC", "frames")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://proxy.local:8081/", cfg.OpenWeatherURL)
	assert.Equal(t, "metric", cfg.Query.Units)
	assert.Equal(t, 3*time.Second, cfg.OpenWeatherTimeout)
	assert.Equal(t, domain.ShowTomorrow, cfg.Display.Show)
	assert.True(t, cfg.Display.NightDimming)
	assert.Equal(t, domain.ClockTime(22*60+30), cfg.Display.QuietStart)
	assert.Equal(t, domain.ClockTime(6*60+15), cfg.Display.QuietEnd)
	require.NotNil(t, cfg.Display.Countdown)
	assert.Equal(t, "Oslo", cfg.Display.Countdown.Name)
	assert.True(t, cfg.Display.Countdown.Target.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
	assert.Equal(t, 5*time.Minute, cfg.NightTickInterval)
	assert.Equal(t, "/tmp/frame.png", cfg.FramePNGPath)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "frames", cfg.KafkaFrameTopic)
}

func TestLoad_EventTimeUnixSeconds(t *testing.T) {
	setRequired(t)
	t.Setenv("EVENT_NAME", "Trip")
	t.Setenv("EVENT_TIME", "1717200000")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Display.Countdown)
	assert.Equal(t, int64(1717200000), cfg.Display.Countdown.Target.Unix())
}

func TestLoad_LocationNameInsteadOfCoordinates(t *testing.T) {
	t.Setenv("OPENWEATHER_TOKEN", testToken)
	t.Setenv("LOCATION_NAME", "Brooklyn, NY")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.Query.Lat)
	assert.Zero(t, cfg.Query.Lon)
	assert.Equal(t, "Brooklyn, NY", cfg.LocationName)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Empty(t, cfg.MapboxCountry)
}

func TestLoad_MapboxCountry(t *testing.T) {
	setRequired(t)
	t.Setenv("MAPBOX_COUNTRY", "us, ca")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"us", "ca"}, cfg.MapboxCountry)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	require.NoError(t, os.WriteFile(path, []byte("WM_TEST_FILE_ONLY=from-file\nOPENWEATHER_UNITS=standard\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("WM_TEST_FILE_ONLY") })
	setRequired(t)
	t.Setenv("ENV_FILE", path)
	t.Setenv("OPENWEATHER_UNITS", "metric")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", os.Getenv("WM_TEST_FILE_ONLY"))
	assert.Equal(t, "metric", cfg.Query.Units, "real environment wins over the file")
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	_, err := Load()
	require.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing token", map[string]string{"OPENWEATHER_TOKEN": ""}, "OPENWEATHER_TOKEN"},
		{"no location", map[string]string{"OPENWEATHER_LAT": "", "OPENWEATHER_LON": ""}, "OPENWEATHER_LAT"},
		{"location without mapbox", map[string]string{"OPENWEATHER_LAT": "", "OPENWEATHER_LON": "", "LOCATION_NAME": "Paris"}, "MAPBOX_TOKEN"},
		{"bad mapbox country", map[string]string{"MAPBOX_COUNTRY": "us,France"}, "MAPBOX_COUNTRY"},
		{"lat only", map[string]string{"OPENWEATHER_LON": ""}, "set together"},
		{"bad lat", map[string]string{"OPENWEATHER_LAT": "91"}, "OPENWEATHER_LAT"},
		{"bad lon", map[string]string{"OPENWEATHER_LON": "east"}, "OPENWEATHER_LON"},
		{"bad shutdown", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"negative tick", map[string]string{"TICK_INTERVAL": "-1s"}, "TICK_INTERVAL"},
		{"bad night tick", map[string]string{"NIGHT_TICK_INTERVAL": "soon"}, "NIGHT_TICK_INTERVAL"},
		{"bad timeout", map[string]string{"OPENWEATHER_TIMEOUT": "0s"}, "OPENWEATHER_TIMEOUT"},
		{"bad show mode", map[string]string{"SHOW_MODE": "yesterday"}, "SHOW_MODE"},
		{"bad dimming", map[string]string{"NIGHT_DIMMING": "sometimes"}, "NIGHT_DIMMING"},
		{"bad quiet start", map[string]string{"QUIET_START": "25:00"}, "QUIET_START"},
		{"bad quiet end", map[string]string{"QUIET_END": "7am"}, "QUIET_END"},
		{"event name only", map[string]string{"EVENT_NAME": "Trip"}, "EVENT_TIME"},
		{"bad event time", map[string]string{"EVENT_NAME": "Trip", "EVENT_TIME": "next week"}, "EVENT_TIME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadProxy_Defaults(t *testing.T) {
	cfg, err := LoadProxy()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Addr)
	assert.Equal(t, oneCallURL, cfg.UpstreamURL)
	assert.InDelta(t, 1.0, cfg.RateLimit, 0)
	assert.Equal(t, 5, cfg.Burst)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadProxy_CustomEnv(t *testing.T) {
	t.Setenv("PROXY_ADDR", ":9999")
	t.Setenv("PROXY_UPSTREAM_URL", "http://upstream.local/onecall")
	t.Setenv("PROXY_RATE_LIMIT", "0.5")
	t.Setenv("PROXY_BURST", "2")
	t.Setenv("PROXY_CACHE_TTL", "90s")
	t.Setenv("PROXY_CACHE_SIZE", "8")
	t.Setenv("PROXY_TIMEOUT", "4s")

	cfg, err := LoadProxy()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "http://upstream.local/onecall", cfg.UpstreamURL)
	assert.InDelta(t, 0.5, cfg.RateLimit, 0)
	assert.Equal(t, 2, cfg.Burst)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.CacheSize)
	assert.Equal(t, 4*time.Second, cfg.Timeout)
}

func TestLoadProxy_Errors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PROXY_RATE_LIMIT", "0"},
		{"PROXY_RATE_LIMIT", "fast"},
		{"PROXY_BURST", "0"},
		{"PROXY_CACHE_SIZE", "-3"},
		{"PROXY_CACHE_TTL", "forever"},
		{"PROXY_TIMEOUT", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadProxy()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
