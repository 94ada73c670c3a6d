package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const omForecastBody = `{
	"current": {"time": 1741003200, "temperature_2m": 7.5, "relative_humidity_2m": 80, "wind_speed_10m": 3.2, "weather_code": 61, "is_day": 1},
	"hourly": {
		"time": [1741003200, 1741006800, 1741010400],
		"temperature_2m": [7.5, 8.1, 6.9],
		"weather_code": [61, 3, 0],
		"is_day": [1, 1, 0]
	},
	"daily": {"sunrise": [1740984000], "sunset": [1741024800]}
}`

func TestOpenMeteo_CurrentAndForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("timeformat") != "unixtime" || q.Get("wind_speed_unit") != "ms" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(omForecastBody))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(testHTTPConfig(), srv.URL, "")
	current, samples, err := p.CurrentAndForecast(context.Background(), 48.8566, 2.3522)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.Location.Name != "" {
		t.Errorf("open-meteo reports no place name, got %q", current.Location.Name)
	}
	if current.Location.Latitude != 48.8566 || current.Location.Longitude != 2.3522 {
		t.Errorf("location = %+v", current.Location)
	}
	if current.ConditionCode != "10d" || current.Description != "Rainfall: Slight intensity" {
		t.Errorf("condition = %q/%q", current.ConditionCode, current.Description)
	}
	if current.Sunset.Unix() != 1741024800 {
		t.Errorf("sunset = %v", current.Sunset)
	}
	if len(samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(samples))
	}
	if samples[2].ConditionCode != "01n" || samples[2].TempMax != 6.9 || samples[2].TempMin != 6.9 {
		t.Errorf("sample[2] = %+v", samples[2])
	}
}

func TestOpenMeteo_SunTimesFollowLocalDay(t *testing.T) {
	// Near the date line the first GMT-dated entry is the previous local day.
	noon0 := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC).Unix()
	noon1 := noon0 + 86400
	const sixHours = 6 * 3600

	var r omForecastResponse
	r.Current.Time = noon1 - 3600
	r.Daily = omDaily{
		Sunrise: []int64{noon0 - sixHours, noon1 - sixHours, 0},
		Sunset:  []int64{noon0 + sixHours, noon1 + sixHours, 0},
	}

	cc := r.toConditions(-16.5, 179.4)
	if cc.Sunrise.Unix() != noon1-sixHours || cc.Sunset.Unix() != noon1+sixHours {
		t.Errorf("sunrise/sunset = %v/%v, want the second entry", cc.Sunrise, cc.Sunset)
	}

	r.Daily = omDaily{Sunrise: []int64{0}, Sunset: []int64{0}}
	if cc := r.toConditions(78.2, 15.6); !cc.Sunrise.IsZero() || !cc.Sunset.IsZero() {
		t.Errorf("polar day should leave sun times unset, got %v/%v", cc.Sunrise, cc.Sunset)
	}
}

func TestOpenMeteo_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    weather.Location
		wantErr bool
	}{
		{
			name: "best match",
			body: `{"results":[{"name":"Paris","country_code":"FR","latitude":48.8566,"longitude":2.3522},{"name":"Paris","country_code":"US","latitude":33.66,"longitude":-95.55}]}`,
			want: weather.Location{Name: "Paris", Country: "FR", Latitude: 48.8566, Longitude: 2.3522},
		},
		{
			name:    "no results",
			body:    `{"generationtime_ms":0.5}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/search" || r.URL.Query().Get("count") != "1" {
					t.Errorf("unexpected request %s", r.URL)
				}
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewOpenMeteoProvider(testHTTPConfig(), "", srv.URL)
			got, err := p.Resolve(context.Background(), "Paris")
			if tt.wantErr {
				var nf *weather.NotFoundError
				if !errors.As(err, &nf) {
					t.Fatalf("expected NotFoundError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOpenMeteo_UpstreamReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":true,"reason":"Latitude must be in range of -90 to 90°."}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(testHTTPConfig(), srv.URL, "")
	_, _, err := p.CurrentAndForecast(context.Background(), 100, 0)
	var ue *weather.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusBadRequest || ue.Message != "Latitude must be in range of -90 to 90°." {
		t.Errorf("upstream error = %+v", ue)
	}
}

func TestWMOIconCode(t *testing.T) {
	tests := []struct {
		code  int
		isDay bool
		want  string
	}{
		{0, true, "01d"},
		{0, false, "01n"},
		{2, true, "02d"},
		{3, false, "04n"},
		{45, true, "50d"},
		{53, true, "09d"},
		{63, false, "10n"},
		{81, true, "09d"},
		{75, true, "13d"},
		{86, false, "13n"},
		{96, true, "11d"},
		{42, true, "03d"},
	}
	for _, tt := range tests {
		if got := wmoIconCode(tt.code, tt.isDay); got != tt.want {
			t.Errorf("wmoIconCode(%d, %v) = %q, want %q", tt.code, tt.isDay, got, tt.want)
		}
	}
}
