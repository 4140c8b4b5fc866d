package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/precip-chart/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Data loading.
	DataSource    string
	LocationsFile string
	Locations     []domain.Location
	FetchTimeout  time.Duration
	LoadTimeout   time.Duration

	// Initial view. A zero InitialWindow means the dataset's date extent.
	InitialVariable domain.Field
	InitialWindow   Window

	ChartWidth         int
	ChartHeight        int
	ZoomResetDelay     time.Duration
	TransitionDuration time.Duration
	RenderCacheSize    int

	// Optional view event publishing.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaViewTopic string
}

// Window is a literal time window.
type Window struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether no window was configured.
func (w Window) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	loadTimeout, err := parseDuration("LOAD_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	resetDelay, err := parseDuration("ZOOM_RESET_DELAY", "350ms")
	if err != nil {
		return nil, err
	}
	transition, err := parseDuration("TRANSITION_DURATION", "1s")
	if err != nil {
		return nil, err
	}

	width, err := parsePositiveInt("CHART_WIDTH", 1600)
	if err != nil {
		return nil, err
	}
	height, err := parsePositiveInt("CHART_HEIGHT", 600)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("RENDER_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	variable, err := domain.ParseField(sharedcfg.EnvOrDefault("INITIAL_VARIABLE", string(domain.ActualPrecipitation)))
	if err != nil {
		return nil, fmt.Errorf("invalid INITIAL_VARIABLE: %w", err)
	}

	window, err := ParseWindow(os.Getenv("INITIAL_WINDOW"))
	if err != nil {
		return nil, err
	}

	locationsFile := os.Getenv("LOCATIONS_FILE")
	locations := domain.DefaultLocations()
	if locationsFile != "" {
		locations, err = LoadLocations(locationsFile)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataSource:    sharedcfg.EnvOrDefault("DATA_SOURCE", "data"),
		LocationsFile: locationsFile,
		Locations:     locations,
		FetchTimeout:  fetchTimeout,
		LoadTimeout:   loadTimeout,

		InitialVariable: variable,
		InitialWindow:   window,

		ChartWidth:         width,
		ChartHeight:        height,
		ZoomResetDelay:     resetDelay,
		TransitionDuration: transition,
		RenderCacheSize:    cacheSize,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaViewTopic: sharedcfg.EnvOrDefault("KAFKA_VIEW_TOPIC", "chart-view-events"),
	}

	if cfg.DataSource == "" {
		return nil, errors.New("DATA_SOURCE is required")
	}
	if len(cfg.Locations) == 0 {
		return nil, errors.New("at least one location is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaViewTopic == "" {
		return nil, errors.New("KAFKA_VIEW_TOPIC is required")
	}

	return cfg, nil
}

// ParseWindow parses "start,end" dates (YYYY-MM-DD). An empty string yields a zero Window.
func ParseWindow(s string) (Window, error) {
	if s == "" {
		return Window{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("invalid INITIAL_WINDOW %q: want start,end", s)
	}
	start, err := time.Parse(time.DateOnly, strings.TrimSpace(parts[0]))
	if err != nil {
		return Window{}, fmt.Errorf("invalid INITIAL_WINDOW start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, strings.TrimSpace(parts[1]))
	if err != nil {
		return Window{}, fmt.Errorf("invalid INITIAL_WINDOW end: %w", err)
	}
	if !start.Before(end) {
		return Window{}, fmt.Errorf("invalid INITIAL_WINDOW %q: start must be before end", s)
	}
	return Window{Start: start, End: end}, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
