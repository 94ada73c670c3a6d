package providers

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder implements weather.Geocoder and weather.ReverseGeocoder on
// top of the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey  string
	circuit *gobreaker.CircuitBreaker

	// overridable in tests
	forward func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

func NewGoogleGeocoder(apiKey string, breaker BreakerConfig) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:  apiKey,
		circuit: newBreaker("google-geocoder", breaker),
		forward: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
}

// Resolve geocodes query and names the result through a reverse lookup.
func (g *GoogleGeocoder) Resolve(ctx context.Context, query string) (weather.Location, error) {
	if g.apiKey == "" {
		return weather.Location{}, errNoAPIKey
	}

	res, err := g.call(ctx, "google geocode", func() (interface{}, error) {
		return g.forward(geocoder.Address{City: query})
	})
	if err != nil {
		if isZeroResults(err) {
			return weather.Location{}, &weather.NotFoundError{Query: query}
		}
		return weather.Location{}, err
	}
	point := res.(geocoder.Location)

	loc := weather.Location{
		Name:      query,
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
	}
	if named, err := g.Reverse(ctx, point.Latitude, point.Longitude); err == nil {
		if named.Name != "" {
			loc.Name = named.Name
		}
		loc.Country = named.Country
	}
	return loc, nil
}

// Reverse names a coordinate pair by the first returned address.
func (g *GoogleGeocoder) Reverse(ctx context.Context, lat, lon float64) (weather.Location, error) {
	if g.apiKey == "" {
		return weather.Location{}, errNoAPIKey
	}

	res, err := g.call(ctx, "google reverse geocode", func() (interface{}, error) {
		return g.reverse(geocoder.Location{Latitude: lat, Longitude: lon})
	})
	if err != nil {
		if isZeroResults(err) {
			return weather.Location{}, &weather.NotFoundError{Query: formatCoord(lat) + "," + formatCoord(lon)}
		}
		return weather.Location{}, err
	}
	addresses := res.([]geocoder.Address)
	if len(addresses) == 0 {
		return weather.Location{}, &weather.NotFoundError{Query: formatCoord(lat) + "," + formatCoord(lon)}
	}

	addr := addresses[0]
	name := addr.City
	if name == "" {
		name = addr.County
	}
	if name == "" {
		name = addr.State
	}
	return weather.Location{
		Name:      name,
		Country:   addr.Country,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// call runs fn through the breaker without blocking past ctx. The client
// library has no context support, so an abandoned call finishes in the
// background.
func (g *GoogleGeocoder) call(ctx context.Context, op string, fn func() (interface{}, error)) (interface{}, error) {
	type result struct {
		v   interface{}
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := g.circuit.Execute(func() (interface{}, error) {
			googleKeyMu.Lock()
			geocoder.ApiKey = g.apiKey
			v, err := fn()
			googleKeyMu.Unlock()
			if isZeroResults(err) {
				return zeroResults{err}, nil
			}
			return v, err
		})
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		return nil, &weather.NetworkError{Op: op, Err: ctx.Err()}
	case r := <-done:
		if r.err == nil {
			if zr, ok := r.v.(zeroResults); ok {
				return nil, zr.err
			}
			return r.v, nil
		}
		if errors.Is(r.err, gobreaker.ErrOpenState) || errors.Is(r.err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.UpstreamError{Status: 503, Message: "Geocoding service is temporarily unavailable"}
		}
		if common.HasAny(strings.ToUpper(r.err.Error()), "DENIED", "QUOTA", "INVALID") {
			return nil, &weather.UpstreamError{Status: 502, Message: r.err.Error()}
		}
		return nil, &weather.NetworkError{Op: op, Err: r.err}
	}
}

// zeroResults carries an empty lookup past the breaker without counting it
// as a failure.
type zeroResults struct{ err error }

func isZeroResults(err error) bool {
	if err == nil {
		return false
	}
	return common.HasAny(strings.ToUpper(err.Error()), "ZERO_RESULTS", "NO RESULTS", "EMPTY RESULTS")
}

var (
	_ weather.Geocoder        = (*GoogleGeocoder)(nil)
	_ weather.ReverseGeocoder = (*GoogleGeocoder)(nil)
)
