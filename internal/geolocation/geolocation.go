// Package geolocation supplies the device position for "use my location".
package geolocation

import (
	"context"
	"fmt"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Coordinates is a position reported by a Locator.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Locator performs a single-shot position lookup. Implementations return
// *weather.GeolocationDeniedError when no position can be supplied.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// Static always reports the same position.
type Static Coordinates

func (s Static) Locate(ctx context.Context) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, &weather.GeolocationDeniedError{Reason: err.Error()}
	}
	return Coordinates(s), nil
}

// Denied always refuses.
type Denied struct {
	Reason string
}

func (d Denied) Locate(context.Context) (Coordinates, error) {
	return Coordinates{}, &weather.GeolocationDeniedError{Reason: d.Reason}
}

// FromConfig builds the process locator from optional configured coordinates.
// Without both coordinates the locator refuses, like a browser with location
// access turned off.
func FromConfig(lat, lon *float64) Locator {
	if lat == nil || lon == nil {
		return Denied{Reason: "no position configured"}
	}
	return Static{Latitude: *lat, Longitude: *lon}
}

// Validate checks that c is a position on the globe.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", c.Longitude)
	}
	return nil
}
