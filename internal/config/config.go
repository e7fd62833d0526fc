package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/weather-matrix/internal/domain"
	"github.com/joho/godotenv"
)

// Config holds all display settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Forecast source.
	OpenWeatherURL     string
	OpenWeatherTimeout time.Duration
	Query              domain.ForecastQuery

	// Optional place-name lookup when no coordinates are set.
	LocationName  string
	MapboxToken   string
	MapboxTimeout time.Duration
	MapboxCountry []string // ISO 3166 alpha-2 codes narrowing the lookup

	TimeURL     string
	TimeTimeout time.Duration

	Display           domain.DisplayOptions
	TickInterval      time.Duration
	NightTickInterval time.Duration
	FramePNGPath      string

	// Frame mirroring; disabled when no brokers are set.
	KafkaBrokers    []string
	KafkaFrameTopic string
}

// KafkaEnabled reports whether frames are mirrored to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// ProxyConfig holds the trimming proxy settings.
type ProxyConfig struct {
	Addr            string
	UpstreamURL     string
	RateLimit       float64
	Burst           int
	CacheTTL        time.Duration
	CacheSize       int
	Timeout         time.Duration
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads the display configuration from environment variables, applying
// defaults where unset. Variables from an optional .env file (ENV_FILE) are
// loaded first and never override the real environment.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OpenWeatherURL: sharedcfg.EnvOrDefault("OPENWEATHER_URL", "https://api.openweathermap.org/data/3.0/onecall"),
		Query: domain.ForecastQuery{
			APIKey: os.Getenv("OPENWEATHER_TOKEN"),
			Units:  sharedcfg.EnvOrDefault("OPENWEATHER_UNITS", "imperial"),
		},

		LocationName: os.Getenv("LOCATION_NAME"),
		MapboxToken:  os.Getenv("MAPBOX_TOKEN"),
		TimeURL:      sharedcfg.EnvOrDefault("TIME_URL", "https://worldtimeapi.org/api/timezone/Etc/UTC"),
		FramePNGPath: os.Getenv("FRAME_PNG_PATH"),

		KafkaBrokers:    sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaFrameTopic: sharedcfg.EnvOrDefault("KAFKA_FRAME_TOPIC", "matrix-frames"),
	}

	durations := []struct {
		key, def string
		dst      *time.Duration
	}{
		{"OPENWEATHER_TIMEOUT", "10s", &cfg.OpenWeatherTimeout},
		{"MAPBOX_TIMEOUT", "5s", &cfg.MapboxTimeout},
		{"TIME_TIMEOUT", "10s", &cfg.TimeTimeout},
		{"TICK_INTERVAL", "1s", &cfg.TickInterval},
		{"NIGHT_TICK_INTERVAL", "60s", &cfg.NightTickInterval},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.Query.Lat, cfg.Query.Lon, err = parseCoordinates(); err != nil {
		return nil, err
	}
	if cfg.Display, err = parseDisplayOptions(); err != nil {
		return nil, err
	}

	if cfg.Query.APIKey == "" {
		return nil, errors.New("OPENWEATHER_TOKEN is required")
	}
	if cfg.Query.Lat == 0 && cfg.Query.Lon == 0 && (cfg.LocationName == "" || cfg.MapboxToken == "") {
		return nil, errors.New("OPENWEATHER_LAT and OPENWEATHER_LON are required unless LOCATION_NAME and MAPBOX_TOKEN are set")
	}
	// Same comma-separated list format as KAFKA_BROKERS.
	cfg.MapboxCountry = sharedcfg.ParseBrokers(os.Getenv("MAPBOX_COUNTRY"))
	for _, code := range cfg.MapboxCountry {
		if len(code) != 2 {
			return nil, fmt.Errorf("MAPBOX_COUNTRY: %q is not a two-letter country code", code)
		}
	}
	if cfg.KafkaEnabled() && cfg.KafkaFrameTopic == "" {
		return nil, errors.New("KAFKA_FRAME_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// LoadProxy reads the proxy configuration from environment variables.
func LoadProxy() (*ProxyConfig, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &ProxyConfig{
		Addr:            sharedcfg.EnvOrDefault("PROXY_ADDR", ":8081"),
		UpstreamURL:     sharedcfg.EnvOrDefault("PROXY_UPSTREAM_URL", "https://api.openweathermap.org/data/3.0/onecall"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	cfg.RateLimit, err = strconv.ParseFloat(sharedcfg.EnvOrDefault("PROXY_RATE_LIMIT", "1"), 64)
	if err != nil || cfg.RateLimit <= 0 {
		return nil, errors.New("invalid PROXY_RATE_LIMIT: must be a positive number")
	}
	if cfg.Burst, err = parsePositiveInt("PROXY_BURST", "5"); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = parsePositiveInt("PROXY_CACHE_SIZE", "64"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = parseDuration("PROXY_CACHE_TTL", "5m"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = parseDuration("PROXY_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEnvFile() error {
	path := sharedcfg.EnvOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parsePositiveInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseCoordinates() (lat, lon float64, err error) {
	latStr, lonStr := os.Getenv("OPENWEATHER_LAT"), os.Getenv("OPENWEATHER_LON")
	if latStr == "" && lonStr == "" {
		return 0, 0, nil
	}
	if latStr == "" || lonStr == "" {
		return 0, 0, errors.New("OPENWEATHER_LAT and OPENWEATHER_LON must be set together")
	}
	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, errors.New("invalid OPENWEATHER_LAT: must be between -90 and 90")
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, errors.New("invalid OPENWEATHER_LON: must be between -180 and 180")
	}
	return lat, lon, nil
}

func parseDisplayOptions() (domain.DisplayOptions, error) {
	var opts domain.DisplayOptions

	show, err := domain.ParseShowMode(strings.ToLower(os.Getenv("SHOW_MODE")))
	if err != nil {
		return opts, fmt.Errorf("invalid SHOW_MODE: %w", err)
	}
	opts.Show = show

	if v := os.Getenv("NIGHT_DIMMING"); v != "" {
		opts.NightDimming, err = strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("invalid NIGHT_DIMMING: must be a boolean")
		}
	}
	if opts.QuietStart, err = domain.ParseClockTime(sharedcfg.EnvOrDefault("QUIET_START", "23:00")); err != nil {
		return opts, fmt.Errorf("invalid QUIET_START: %w", err)
	}
	if opts.QuietEnd, err = domain.ParseClockTime(sharedcfg.EnvOrDefault("QUIET_END", "07:00")); err != nil {
		return opts, fmt.Errorf("invalid QUIET_END: %w", err)
	}

	name, at := os.Getenv("EVENT_NAME"), os.Getenv("EVENT_TIME")
	switch {
	case name == "" && at == "":
	case name == "" || at == "":
		return opts, errors.New("EVENT_NAME and EVENT_TIME must be set together")
	default:
		target, err := parseEventTime(at)
		if err != nil {
			return opts, err
		}
		opts.Countdown = &domain.Countdown{Name: name, Target: target}
	}

	return opts, nil
}

// parseEventTime accepts unix seconds or RFC 3339.
func parseEventTime(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("invalid EVENT_TIME: want unix seconds or RFC 3339")
	}
	return t, nil
}
