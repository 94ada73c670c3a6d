package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/favorites"
	"github.com/i474232898/weather-dashboard/internal/geolocation"
	"github.com/i474232898/weather-dashboard/internal/logging"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/theme"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

const appName = "weather-dashboard"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.AppEnv, cfg.SlogLevel(), appName)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("weather dashboard stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx := context.Background()

	// Preferences survive restarts unless the memory driver is chosen.
	kv, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	breaker := providers.BreakerConfig{
		MaxFailures: cfg.BreakerMaxFailures,
		Cooldown:    cfg.BreakerCooldown,
	}
	clientCfg := providers.HTTPClientConfig{Client: httpClient, Breaker: breaker}

	openWeather := providers.NewOpenWeatherProvider(clientCfg, cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey)
	openMeteo := providers.NewOpenMeteoProvider(clientCfg, cfg.OpenMeteoBaseURL, cfg.OpenMeteoGeocodingURL)

	var provider weather.Provider = openWeather
	if cfg.WeatherProvider == "openmeteo" {
		provider = openMeteo
	}

	var opts []weather.Option
	var geocoder weather.Geocoder
	switch cfg.Geocoder {
	case "openmeteo":
		geocoder = openMeteo
	case "google":
		google := providers.NewGoogleGeocoder(cfg.GoogleGeocodingAPIKey, breaker)
		geocoder = google
		opts = append(opts, weather.WithReverseGeocoder(google))
	default:
		geocoder = openWeather
	}

	zones, err := weather.NewZoneResolver(cfg.DayZone)
	if err != nil {
		return err
	}
	opts = append(opts,
		weather.WithZoneResolver(zones),
		weather.WithForecastDays(cfg.ForecastDays),
	)

	// Core service orchestrating geocoding, fetching and aggregation.
	service := weather.NewService(geocoder, provider, log, opts...)

	favs, err := favorites.Load(ctx, kv, log)
	if err != nil {
		return err
	}
	pref, err := theme.Load(ctx, kv, log)
	if err != nil {
		return err
	}

	session := dashboard.NewSession(dashboard.Config{
		Weather:     service,
		Favorites:   favs,
		Theme:       pref,
		Locator:     geolocation.FromConfig(cfg.GeoLatitude, cfg.GeoLongitude),
		DefaultCity: cfg.DefaultCity,
		Logger:      log,
	})

	log.Info("starting weather dashboard",
		"provider", provider.Name(),
		"geocoder", cfg.Geocoder,
		"day_zone", cfg.DayZone,
		"store", cfg.StoreDriver,
	)

	// Initial load runs in the background so the page can show the loading
	// view immediately.
	go func() {
		startCtx, cancel := context.WithTimeout(ctx, 2*cfg.HTTPTimeout)
		defer cancel()
		if _, err := session.Start(startCtx); err != nil {
			log.Warn("initial load failed", "error", err)
		}
	}()

	// Scheduler that periodically reloads the location on screen.
	sched := scheduler.New(
		scheduler.RefresherFunc(func(ctx context.Context) error {
			_, err := session.Refresh(ctx)
			return err
		}),
		cfg.RefreshInterval,
		log,
		scheduler.WithTimeout(2*cfg.HTTPTimeout),
		scheduler.WithSkip(func(err error) bool {
			return errors.Is(err, dashboard.ErrNoLocation) || errors.Is(err, dashboard.ErrSuperseded)
		}),
	)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2*cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, session, service)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("listening", "addr", cfg.Addr())

	// Wait for termination signal
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.AppConfig) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		return store.NewMemoryStore(), nil
	}
	kv, err := store.OpenSQLite(ctx, cfg.StorePath)
	if err != nil {
		return nil, err
	}
	return kv, nil
}
