package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeGeocoder struct {
	loc   Location
	err   error
	calls int
}

func (g *fakeGeocoder) Resolve(_ context.Context, _ string) (Location, error) {
	g.calls++
	return g.loc, g.err
}

type fakeProvider struct {
	current CurrentConditions
	samples []ForecastSample
	err     error
	gotLat  float64
	gotLon  float64
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) CurrentAndForecast(_ context.Context, lat, lon float64) (CurrentConditions, []ForecastSample, error) {
	p.gotLat, p.gotLon = lat, lon
	if p.err != nil {
		return CurrentConditions{}, nil, p.err
	}
	return p.current, p.samples, nil
}

type fakeReverse struct {
	name string
}

func (r fakeReverse) Reverse(_ context.Context, _, _ float64) (Location, error) {
	return Location{Name: r.name, Country: "GB"}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_ByName(t *testing.T) {
	london := Location{Name: "London", Country: "GB", Latitude: 51.5073, Longitude: -0.1276}
	geo := &fakeGeocoder{loc: london}
	prov := &fakeProvider{
		current: CurrentConditions{Location: london, TemperatureC: 12.3},
		samples: []ForecastSample{
			sample(at(3, 0), 10, 9, "01d"),
			sample(at(3, 3), 14, 8, "02d"),
			sample(at(4, 0), 7, 4, "10d"),
		},
	}
	svc := NewService(geo, prov, discardLogger(), WithZoneResolver(FixedZone{Loc: time.UTC}))

	report, err := svc.ByName(context.Background(), "  London ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prov.gotLat != london.Latitude || prov.gotLon != london.Longitude {
		t.Errorf("provider got %v,%v, want %v,%v", prov.gotLat, prov.gotLon, london.Latitude, london.Longitude)
	}
	if report.Location.Name != "London" {
		t.Errorf("location = %q, want London", report.Location.Name)
	}
	if len(report.Daily) != 2 {
		t.Fatalf("daily = %d, want 2", len(report.Daily))
	}
	if report.Daily[0].TempMax != 14 || report.Daily[0].TempMin != 8 {
		t.Errorf("day one = %+v", report.Daily[0])
	}
	if report.Zone != time.UTC {
		t.Errorf("zone = %v, want UTC", report.Zone)
	}
}

func TestService_ByName_NotFound(t *testing.T) {
	geo := &fakeGeocoder{err: &NotFoundError{Query: "Atlantis"}}
	prov := &fakeProvider{}
	svc := NewService(geo, prov, discardLogger())

	_, err := svc.ByName(context.Background(), "Atlantis")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if prov.gotLat != 0 || prov.gotLon != 0 {
		t.Error("provider must not be called when the lookup has no match")
	}
}

func TestService_ByName_EmptyQuery(t *testing.T) {
	geo := &fakeGeocoder{}
	svc := NewService(geo, &fakeProvider{}, discardLogger())

	_, err := svc.ByName(context.Background(), "   ")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if geo.calls != 0 {
		t.Errorf("geocoder called %d times for blank query", geo.calls)
	}
}

func TestService_ByCoords_ProviderErrorSurfacesOnce(t *testing.T) {
	upstream := &UpstreamError{Status: 401, Message: "Invalid API key"}
	svc := NewService(&fakeGeocoder{}, &fakeProvider{err: upstream}, discardLogger())

	report, err := svc.ByCoords(context.Background(), 1, 2)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != 401 {
		t.Errorf("status = %d, want 401", ue.Status)
	}
	if report.Daily != nil {
		t.Error("no partial report expected on failure")
	}
	if UserMessage(err) != "Invalid API key" {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}
}

func TestService_ByCoords_NamesUnnamedLocation(t *testing.T) {
	prov := &fakeProvider{current: CurrentConditions{Location: Location{Latitude: 51.5, Longitude: -0.12}}}

	t.Run("reverse geocoder", func(t *testing.T) {
		svc := NewService(&fakeGeocoder{}, prov, discardLogger(), WithReverseGeocoder(fakeReverse{name: "Westminster"}))
		report, err := svc.ByCoords(context.Background(), 51.5, -0.12)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Location.Name != "Westminster" || report.Location.Latitude != 51.5 {
			t.Errorf("location = %+v", report.Location)
		}
		if report.Current.Location != report.Location {
			t.Error("current conditions should carry the named location")
		}
	})

	t.Run("coordinates fallback", func(t *testing.T) {
		svc := NewService(&fakeGeocoder{}, prov, discardLogger())
		report, err := svc.ByCoords(context.Background(), 51.5, -0.12)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Location.Name != "51.5000, -0.1200" {
			t.Errorf("name = %q", report.Location.Name)
		}
	})
}

func TestService_ForecastDaysOption(t *testing.T) {
	var samples []ForecastSample
	for d := 1; d <= 6; d++ {
		samples = append(samples, sample(at(d, 12), 1, 0, "01d"))
	}
	prov := &fakeProvider{current: CurrentConditions{Location: Location{Name: "X"}}, samples: samples}
	svc := NewService(&fakeGeocoder{}, prov, discardLogger(),
		WithZoneResolver(FixedZone{Loc: time.UTC}),
		WithForecastDays(3),
	)

	report, err := svc.ByCoords(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Daily) != 3 {
		t.Errorf("daily = %d, want 3", len(report.Daily))
	}
}
