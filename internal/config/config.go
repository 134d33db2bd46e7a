package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/stopboard/internal/weather"
)

// TransitSource is one prediction endpoint as shown on the board.
type TransitSource struct {
	URL   string `yaml:"url" validate:"required,url"`
	Title string `yaml:"title" validate:"required"`
}

type TransitConfig struct {
	Bus        TransitSource `yaml:"bus"`
	Rail       TransitSource `yaml:"rail"`
	PollPeriod time.Duration `yaml:"poll_period" validate:"gte=1000000000"`
}

// DisplayConfig is the [StartHour, EndHour) window in local time. Equal
// hours keep the display on all day.
type DisplayConfig struct {
	StartHour int `yaml:"start_hour" validate:"gte=0,lte=23"`
	EndHour   int `yaml:"end_hour" validate:"gte=0,lte=23"`
}

type WeatherConfig struct {
	Location   weather.Location `yaml:"location"`
	BaseURL    string           `yaml:"base_url" validate:"omitempty,url"`
	PollPeriod time.Duration    `yaml:"poll_period" validate:"gte=1000000000"`
	// IdlePeriod is the retry delay while offline.
	IdlePeriod time.Duration `yaml:"idle_period" validate:"gte=0"`
}

type NATSConfig struct {
	URL           string `yaml:"url" validate:"omitempty,url"`
	SubjectPrefix string `yaml:"subject_prefix" validate:"required"`
}

type AppConfig struct {
	Transit TransitConfig `yaml:"transit"`
	Display DisplayConfig `yaml:"display"`
	Weather WeatherConfig `yaml:"weather"`
	NATS    NATSConfig    `yaml:"nats"`

	HTTPTimeout time.Duration `yaml:"http_timeout" validate:"gt=0"`
	Timezone    string        `yaml:"timezone" validate:"required"`
	Port        string        `yaml:"port" validate:"required,numeric"`

	// ReadWait bounds how long a consumer read waits for a busy store.
	ReadWait        time.Duration `yaml:"read_wait" validate:"gt=0"`
	StoreMaxHistory int           `yaml:"store_max_history" validate:"gte=0,lte=1024"`

	// ConnectivityProbe is a host:port dialed to decide whether the link is
	// up. Empty means always connected.
	ConnectivityProbe string        `yaml:"connectivity_probe" validate:"omitempty,hostname_port"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" validate:"gte=0"`

	// Location is Timezone resolved.
	Location *time.Location `yaml:"-" validate:"-"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *AppConfig {
	return &AppConfig{
		Transit: TransitConfig{PollPeriod: 30 * time.Second},
		Display: DisplayConfig{StartHour: 6, EndHour: 23},
		Weather: WeatherConfig{
			Location:   weather.Location{Latitude: 42.3601, Longitude: -71.0589},
			PollPeriod: 10 * time.Minute,
			IdlePeriod: 500 * time.Millisecond,
		},
		NATS:              NATSConfig{SubjectPrefix: "stopboard"},
		HTTPTimeout:       8 * time.Second,
		Timezone:          "America/New_York",
		Port:              "8080",
		ReadWait:          10 * time.Millisecond,
		StoreMaxHistory:   32,
		HeartbeatInterval: time.Minute,
	}
}

// Load reads .env, then the optional YAML file named by STOPBOARD_CONFIG, then
// environment overrides, and validates the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := Defaults()

	if path := os.Getenv("STOPBOARD_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	cfg.Transit.Bus.URL = getenvDefault("TRANSIT_BUS_URL", cfg.Transit.Bus.URL)
	cfg.Transit.Bus.Title = getenvDefault("TRANSIT_BUS_TITLE", cfg.Transit.Bus.Title)
	cfg.Transit.Rail.URL = getenvDefault("TRANSIT_RAIL_URL", cfg.Transit.Rail.URL)
	cfg.Transit.Rail.Title = getenvDefault("TRANSIT_RAIL_TITLE", cfg.Transit.Rail.Title)

	cfg.Display.StartHour = getenvInt("DISPLAY_START_HOUR", cfg.Display.StartHour)
	cfg.Display.EndHour = getenvInt("DISPLAY_END_HOUR", cfg.Display.EndHour)

	cfg.Weather.BaseURL = getenvDefault("WEATHER_BASE_URL", cfg.Weather.BaseURL)
	cfg.Timezone = getenvDefault("TZ", cfg.Timezone)
	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.NATS.URL = getenvDefault("NATS_URL", cfg.NATS.URL)
	cfg.NATS.SubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", cfg.NATS.SubjectPrefix)
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", cfg.StoreMaxHistory)
	cfg.ConnectivityProbe = getenvDefault("CONNECTIVITY_PROBE", cfg.ConnectivityProbe)

	var errs []error
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"WEATHER_LATITUDE", &cfg.Weather.Location.Latitude},
		{"WEATHER_LONGITUDE", &cfg.Weather.Location.Longitude},
	} {
		if v := os.Getenv(f.key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", f.key, err))
				continue
			}
			*f.dst = n
		}
	}

	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"TRANSIT_POLL_PERIOD", &cfg.Transit.PollPeriod},
		{"WEATHER_POLL_PERIOD", &cfg.Weather.PollPeriod},
		{"WEATHER_IDLE_PERIOD", &cfg.Weather.IdlePeriod},
		{"HTTP_TIMEOUT", &cfg.HTTPTimeout},
		{"READ_WAIT", &cfg.ReadWait},
		{"HEARTBEAT_INTERVAL", &cfg.HeartbeatInterval},
	} {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", d.key, err))
				continue
			}
			*d.dst = parsed
		}
	}

	return errors.Join(errs...)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		log.Printf("WARN: config: ignoring non-numeric %s=%q", key, v)
	}
	return def
}
