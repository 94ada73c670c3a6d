package weather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Service composes the geocoder, the weather provider and the daily
// aggregator into the resolve-and-fetch flow.
type Service struct {
	geocoder Geocoder
	reverse  ReverseGeocoder
	provider Provider
	zones    ZoneResolver
	maxDays  int
	logger   *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithReverseGeocoder names places for providers that report none.
func WithReverseGeocoder(r ReverseGeocoder) Option {
	return func(s *Service) { s.reverse = r }
}

// WithZoneResolver sets the reference time zone for day keys.
func WithZoneResolver(z ZoneResolver) Option {
	return func(s *Service) { s.zones = z }
}

// WithForecastDays caps the number of daily summaries.
func WithForecastDays(n int) Option {
	return func(s *Service) { s.maxDays = n }
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, provider Provider, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		geocoder: geocoder,
		provider: provider,
		zones:    FixedZone{Loc: time.Local},
		maxDays:  DefaultForecastDays,
		logger:   logger.With("component", "weather-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveLocation returns the upstream's best match for a free-text query.
func (s *Service) ResolveLocation(ctx context.Context, query string) (Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Location{}, &NotFoundError{Query: query}
	}
	loc, err := s.geocoder.Resolve(ctx, query)
	if err != nil {
		return Location{}, fmt.Errorf("resolve %q: %w", query, err)
	}
	return loc, nil
}

// ByName resolves a query and fetches the weather for the best match.
func (s *Service) ByName(ctx context.Context, query string) (Report, error) {
	loc, err := s.ResolveLocation(ctx, query)
	if err != nil {
		return Report{}, err
	}
	s.logger.Debug("resolved location",
		"query", query,
		"name", loc.Name,
		"country", loc.Country,
		"latitude", loc.Latitude,
		"longitude", loc.Longitude,
	)
	return s.ByCoords(ctx, loc.Latitude, loc.Longitude)
}

// ByCoords fetches current conditions and forecast for a coordinate pair and
// aggregates the forecast into daily summaries. The report's location is the
// one echoed by the current-conditions response.
func (s *Service) ByCoords(ctx context.Context, lat, lon float64) (Report, error) {
	current, samples, err := s.provider.CurrentAndForecast(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("weather fetch failed",
			"provider", s.provider.Name(),
			"latitude", lat,
			"longitude", lon,
			"error", err,
		)
		return Report{}, fmt.Errorf("fetch weather: %w", err)
	}

	loc := current.Location
	if loc.Name == "" {
		loc = s.nameLocation(ctx, loc)
		current.Location = loc
	}

	zone, err := s.zones.Zone(ctx, loc)
	if err != nil {
		return Report{}, fmt.Errorf("reference zone: %w", err)
	}

	daily := AggregateDaily(samples, zone, s.maxDays)
	s.logger.Debug("aggregated forecast",
		"location", loc.Name,
		"samples", len(samples),
		"days", len(daily),
		"zone", zone.String(),
	)

	return Report{
		Location: loc,
		Current:  current,
		Daily:    daily,
		Zone:     zone,
	}, nil
}

// Forecast returns up to days daily summaries for a coordinate pair, without
// the current-conditions part of the report.
func (s *Service) Forecast(ctx context.Context, lat, lon float64, days int) ([]DaySummary, error) {
	_, samples, err := s.provider.CurrentAndForecast(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	zone, err := s.zones.Zone(ctx, Location{Latitude: lat, Longitude: lon})
	if err != nil {
		return nil, fmt.Errorf("reference zone: %w", err)
	}
	if days <= 0 {
		days = s.maxDays
	}
	return AggregateDaily(samples, zone, days), nil
}

// nameLocation fills a missing place name through the reverse geocoder, or
// falls back to the formatted coordinates.
func (s *Service) nameLocation(ctx context.Context, loc Location) Location {
	if s.reverse != nil {
		named, err := s.reverse.Reverse(ctx, loc.Latitude, loc.Longitude)
		if err == nil && named.Name != "" {
			named.Latitude, named.Longitude = loc.Latitude, loc.Longitude
			return named
		}
		if err != nil {
			s.logger.Debug("reverse geocode failed", "error", err)
		}
	}
	loc.Name = fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
	return loc
}
