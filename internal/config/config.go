package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	AppEnv   string `mapstructure:"app_env" validate:"oneof=dev prod"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`

	// HTTPTimeout bounds every outbound request to a provider.
	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"gt=0"`

	WeatherProvider       string `mapstructure:"weather_provider" validate:"oneof=openweather openmeteo"`
	Geocoder              string `mapstructure:"geocoder" validate:"oneof=openweather openmeteo google"`
	OpenWeatherAPIKey     string `mapstructure:"openweather_api_key"`
	OpenWeatherBaseURL    string `mapstructure:"openweather_base_url" validate:"url"`
	OpenMeteoBaseURL      string `mapstructure:"openmeteo_base_url" validate:"url"`
	OpenMeteoGeocodingURL string `mapstructure:"openmeteo_geocoding_url" validate:"url"`
	GoogleGeocodingAPIKey string `mapstructure:"google_geocoding_api_key" validate:"required_if=Geocoder google"`

	// ForecastDays is how many daily summaries the dashboard shows.
	ForecastDays int `mapstructure:"forecast_days" validate:"min=1,max=7"`
	// DayZone picks the zone that decides which calendar day a sample falls
	// on: "local", "utc", "location" or an IANA zone name.
	DayZone     string `mapstructure:"day_zone" validate:"required"`
	DefaultCity string `mapstructure:"default_city" validate:"required"`

	// Position reported by the process geolocation provider. Both unset means
	// geolocation is unavailable.
	GeoLatitude  *float64 `mapstructure:"-" validate:"omitempty,min=-90,max=90"`
	GeoLongitude *float64 `mapstructure:"-" validate:"omitempty,min=-180,max=180"`

	// RefreshInterval controls how often the location on screen is reloaded
	// (0 = never).
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"min=0"`

	StoreDriver string `mapstructure:"store_driver" validate:"oneof=sqlite memory"`
	StorePath   string `mapstructure:"store_path" validate:"required_if=StoreDriver sqlite"`

	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures" validate:"min=1"`
	BreakerCooldown    time.Duration `mapstructure:"breaker_cooldown" validate:"gt=0"`
}

var defaults = map[string]any{
	"app_env":                  "dev",
	"log_level":                "info",
	"port":                     8080,
	"http_timeout":             "10s",
	"weather_provider":         "openweather",
	"geocoder":                 "openweather",
	"openweather_api_key":      "",
	"openweather_base_url":     "https://api.openweathermap.org",
	"openmeteo_base_url":       "https://api.open-meteo.com",
	"openmeteo_geocoding_url":  "https://geocoding-api.open-meteo.com",
	"google_geocoding_api_key": "",
	"forecast_days":            5,
	"day_zone":                 "local",
	"default_city":             "London",
	"geo_latitude":             "",
	"geo_longitude":            "",
	"refresh_interval":         "15m",
	"store_driver":             "sqlite",
	"store_path":               "dashboard.db",
	"breaker_max_failures":     5,
	"breaker_cooldown":         "30s",
}

// Load reads configuration from an optional .env file, an optional
// config.yaml and the environment, in increasing order of precedence.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Info("no usable .env file", "error", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.GeoLatitude, err = optionalFloat(v, "geo_latitude"); err != nil {
		return nil, err
	}
	if cfg.GeoLongitude, err = optionalFloat(v, "geo_longitude"); err != nil {
		return nil, err
	}

	cfg.AppEnv = strings.ToLower(cfg.AppEnv)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.WeatherProvider = strings.ToLower(cfg.WeatherProvider)
	cfg.Geocoder = strings.ToLower(cfg.Geocoder)
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the cross-field requirements the
// struct tags cannot express.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.OpenWeatherAPIKey == "" && (c.WeatherProvider == "openweather" || c.Geocoder == "openweather") {
		return errors.New("invalid config: OPENWEATHER_API_KEY is required when openweather is the provider or geocoder")
	}
	if (c.GeoLatitude == nil) != (c.GeoLongitude == nil) {
		return errors.New("invalid config: GEO_LATITUDE and GEO_LONGITUDE must be set together")
	}
	return nil
}

// Addr returns the listen address in the format ":port".
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func optionalFloat(v *viper.Viper, key string) (*float64, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", strings.ToUpper(key), err)
	}
	return &f, nil
}
