package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	defaultOpenMeteoBaseURL      = "https://api.open-meteo.com"
	defaultOpenMeteoGeocodingURL = "https://geocoding-api.open-meteo.com"
	openMeteoForecastDays        = 7
)

// OpenMeteoProvider implements weather.Provider and weather.Geocoder for
// Open-Meteo. It needs no API key.
type OpenMeteoProvider struct {
	name         string
	baseURL      string
	geocodingURL string
	httpCfg      HTTPClientConfig
	geocodeCB    *gobreaker.TwoStepCircuitBreaker
	forecastCB   *gobreaker.TwoStepCircuitBreaker
}

func NewOpenMeteoProvider(cfg HTTPClientConfig, baseURL, geocodingURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = defaultOpenMeteoBaseURL
	}
	if geocodingURL == "" {
		geocodingURL = defaultOpenMeteoGeocodingURL
	}
	return &OpenMeteoProvider{
		name:         "openmeteo",
		baseURL:      baseURL,
		geocodingURL: geocodingURL,
		httpCfg:      cfg,
		geocodeCB:    newEndpointBreaker("openmeteo-geocode", cfg.Breaker),
		forecastCB:   newEndpointBreaker("openmeteo-forecast", cfg.Breaker),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type omForecastResponse struct {
	Current struct {
		Time        int64   `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode int     `json:"weather_code"`
		IsDay       int     `json:"is_day"`
	} `json:"current"`
	Hourly struct {
		Time        []int64   `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		WeatherCode []int     `json:"weather_code"`
		IsDay       []int     `json:"is_day"`
	} `json:"hourly"`
	Daily omDaily `json:"daily"`
}

type omDaily struct {
	Sunrise []int64 `json:"sunrise"`
	Sunset  []int64 `json:"sunset"`
}

type omGeocodingResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		CountryCode string  `json:"country_code"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
	} `json:"results"`
}

// Resolve looks up the best match for query through the geocoding search API.
func (p *OpenMeteoProvider) Resolve(ctx context.Context, query string) (weather.Location, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", "1")
	values.Set("format", "json")
	u, err := buildURL(p.geocodingURL, "/v1/search", values)
	if err != nil {
		return weather.Location{}, err
	}

	var payload omGeocodingResponse
	if err := getJSON(ctx, p.httpCfg, p.geocodeCB, "openmeteo geocode", u, &payload); err != nil {
		return weather.Location{}, err
	}
	if len(payload.Results) == 0 {
		return weather.Location{}, &weather.NotFoundError{Query: query}
	}

	best := payload.Results[0]
	return weather.Location{
		Name:      best.Name,
		Country:   best.CountryCode,
		Latitude:  best.Latitude,
		Longitude: best.Longitude,
	}, nil
}

// CurrentAndForecast fetches current conditions and hourly samples in a
// single request. The returned location carries no name; Open-Meteo reports
// only coordinates.
func (p *OpenMeteoProvider) CurrentAndForecast(ctx context.Context, lat, lon float64) (weather.CurrentConditions, []weather.ForecastSample, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lon))
	values.Set("current", strings.Join([]string{
		"temperature_2m",
		"relative_humidity_2m",
		"wind_speed_10m",
		"weather_code",
		"is_day",
	}, ","))
	values.Set("hourly", "temperature_2m,weather_code,is_day")
	values.Set("daily", "sunrise,sunset")
	values.Set("wind_speed_unit", "ms")
	values.Set("timeformat", "unixtime")
	values.Set("timezone", "GMT")
	values.Set("forecast_days", fmt.Sprintf("%d", openMeteoForecastDays))

	u, err := buildURL(p.baseURL, "/v1/forecast", values)
	if err != nil {
		return weather.CurrentConditions{}, nil, err
	}

	var payload omForecastResponse
	if err := getJSON(ctx, p.httpCfg, p.forecastCB, "openmeteo forecast", u, &payload); err != nil {
		return weather.CurrentConditions{}, nil, err
	}

	return payload.toConditions(lat, lon), payload.toSamples(), nil
}

func (r omForecastResponse) toConditions(lat, lon float64) weather.CurrentConditions {
	cur := r.Current
	observed := time.Now().UTC()
	if cur.Time > 0 {
		observed = time.Unix(cur.Time, 0).UTC()
	}
	cc := weather.CurrentConditions{
		Location:      weather.Location{Latitude: lat, Longitude: lon},
		ObservedAt:    observed,
		TemperatureC:  cur.Temperature,
		Description:   wmoDescription(cur.WeatherCode),
		ConditionCode: wmoIconCode(cur.WeatherCode, cur.IsDay == 1),
		HumidityPct:   cur.Humidity,
		WindSpeedMS:   cur.WindSpeed,
	}
	if i := r.Daily.localDay(observed.Unix()); i >= 0 {
		cc.Sunrise = time.Unix(r.Daily.Sunrise[i], 0).UTC()
		cc.Sunset = time.Unix(r.Daily.Sunset[i], 0).UTC()
	}
	return cc
}

// localDay returns the index of the daily entry for the location's own day
// at now, or -1. Daily entries follow GMT dates, so near the date line the
// first one can be a day off; the local day is the one whose solar noon is
// nearest to now. Entries without both sunrise and sunset (polar day or
// night) are skipped.
func (d omDaily) localDay(now int64) int {
	best, bestDist := -1, int64(-1)
	for i := 0; i < min(len(d.Sunrise), len(d.Sunset)); i++ {
		if d.Sunrise[i] == 0 || d.Sunset[i] == 0 {
			continue
		}
		noon := (d.Sunrise[i] + d.Sunset[i]) / 2
		dist := noon - now
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// toSamples zips the hourly arrays into samples. Arrays of uneven length are
// truncated to the shortest.
func (r omForecastResponse) toSamples() []weather.ForecastSample {
	h := r.Hourly
	n := min(len(h.Time), len(h.Temperature), len(h.WeatherCode))
	samples := make([]weather.ForecastSample, 0, n)
	for i := 0; i < n; i++ {
		isDay := i >= len(h.IsDay) || h.IsDay[i] == 1
		samples = append(samples, weather.ForecastSample{
			Timestamp:     h.Time[i],
			TempMax:       h.Temperature[i],
			TempMin:       h.Temperature[i],
			ConditionCode: wmoIconCode(h.WeatherCode[i], isDay),
			Description:   wmoDescription(h.WeatherCode[i]),
		})
	}
	return samples
}

var (
	_ weather.Provider = (*OpenMeteoProvider)(nil)
	_ weather.Geocoder = (*OpenMeteoProvider)(nil)
)
