package weather

import (
	"context"
	"time"
)

// Geocoder resolves free text to the best matching place.
// Implementations return *NotFoundError when the upstream has no match and
// never re-rank the upstream's results.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (Location, error)
}

// ReverseGeocoder names a coordinate pair. Optional; used when a provider
// reports conditions without a place name.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (Location, error)
}

// Provider abstracts a weather data source (e.g. OpenWeatherMap, Open-Meteo).
type Provider interface {
	Name() string
	// CurrentAndForecast fetches current conditions and the raw forecast
	// samples for a coordinate pair. Either both succeed or one error is
	// returned.
	CurrentAndForecast(ctx context.Context, lat, lon float64) (CurrentConditions, []ForecastSample, error)
}

// ZoneResolver picks the reference time zone used to derive day keys for a
// location. The zone is resolved once per flow.
type ZoneResolver interface {
	Zone(ctx context.Context, loc Location) (*time.Location, error)
}
