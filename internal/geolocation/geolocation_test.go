package geolocation

import (
	"context"
	"errors"
	"testing"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestFromConfig(t *testing.T) {
	lat, lon := 52.52, 13.405

	got, err := FromConfig(&lat, &lon).Locate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Coordinates{Latitude: lat, Longitude: lon}) {
		t.Errorf("coords = %+v", got)
	}

	for name, loc := range map[string]Locator{
		"no coordinates": FromConfig(nil, nil),
		"latitude only":  FromConfig(&lat, nil),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := loc.Locate(context.Background())
			var denied *weather.GeolocationDeniedError
			if !errors.As(err, &denied) {
				t.Fatalf("expected GeolocationDeniedError, got %v", err)
			}
		})
	}
}

func TestStatic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Static{Latitude: 1, Longitude: 2}.Locate(ctx)
	var denied *weather.GeolocationDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected GeolocationDeniedError, got %v", err)
	}
}

func TestCoordinatesValidate(t *testing.T) {
	tests := []struct {
		c       Coordinates
		wantErr bool
	}{
		{Coordinates{0, 0}, false},
		{Coordinates{-90, 180}, false},
		{Coordinates{90.1, 0}, true},
		{Coordinates{0, -180.5}, true},
	}
	for _, tt := range tests {
		if err := tt.c.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.c, err, tt.wantErr)
		}
	}
}
