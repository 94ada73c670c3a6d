package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const defaultOpenWeatherBaseURL = "https://api.openweathermap.org"

// OpenWeatherProvider implements weather.Provider and weather.Geocoder for
// OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig

	geocodeCB  *gobreaker.TwoStepCircuitBreaker
	currentCB  *gobreaker.TwoStepCircuitBreaker
	forecastCB *gobreaker.TwoStepCircuitBreaker
}

func NewOpenWeatherProvider(cfg HTTPClientConfig, baseURL, apiKey string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = defaultOpenWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:       "openweathermap",
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpCfg:    cfg,
		geocodeCB:  newEndpointBreaker("openweather-geocode", cfg.Breaker),
		currentCB:  newEndpointBreaker("openweather-current", cfg.Breaker),
		forecastCB: newEndpointBreaker("openweather-forecast", cfg.Breaker),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owCondition struct {
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

type owCurrentResponse struct {
	Name  string `json:"name"`
	Dt    int64  `json:"dt"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []owCondition `json:"weather"`
}

type owForecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMax float64 `json:"temp_max"`
			TempMin float64 `json:"temp_min"`
		} `json:"main"`
		Weather []owCondition `json:"weather"`
	} `json:"list"`
}

type owGeoResult struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Resolve looks up the best match for query through the direct geocoding API.
func (p *OpenWeatherProvider) Resolve(ctx context.Context, query string) (weather.Location, error) {
	if p.apiKey == "" {
		return weather.Location{}, fmt.Errorf("openweather: %w", errNoAPIKey)
	}

	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", "1")
	values.Set("appid", p.apiKey)
	u, err := buildURL(p.baseURL, "/geo/1.0/direct", values)
	if err != nil {
		return weather.Location{}, err
	}

	var results []owGeoResult
	if err := getJSON(ctx, p.httpCfg, p.geocodeCB, "openweather geocode", u, &results); err != nil {
		return weather.Location{}, err
	}
	if len(results) == 0 {
		return weather.Location{}, &weather.NotFoundError{Query: query}
	}

	best := results[0]
	return weather.Location{
		Name:      best.Name,
		Country:   best.Country,
		Latitude:  best.Lat,
		Longitude: best.Lon,
	}, nil
}

// CurrentAndForecast fetches current conditions and the 3-hourly forecast in
// parallel. The first failure cancels the other request and is the only error
// returned.
func (p *OpenWeatherProvider) CurrentAndForecast(ctx context.Context, lat, lon float64) (weather.CurrentConditions, []weather.ForecastSample, error) {
	if p.apiKey == "" {
		return weather.CurrentConditions{}, nil, fmt.Errorf("openweather: %w", errNoAPIKey)
	}

	values := url.Values{}
	values.Set("lat", formatCoord(lat))
	values.Set("lon", formatCoord(lon))
	values.Set("units", "metric")
	values.Set("appid", p.apiKey)

	currentURL, err := buildURL(p.baseURL, "/data/2.5/weather", values)
	if err != nil {
		return weather.CurrentConditions{}, nil, err
	}
	forecastURL, err := buildURL(p.baseURL, "/data/2.5/forecast", values)
	if err != nil {
		return weather.CurrentConditions{}, nil, err
	}

	var (
		current  owCurrentResponse
		forecast owForecastResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return getJSON(gctx, p.httpCfg, p.currentCB, "openweather current", currentURL, &current)
	})
	g.Go(func() error {
		return getJSON(gctx, p.httpCfg, p.forecastCB, "openweather forecast", forecastURL, &forecast)
	})
	if err := g.Wait(); err != nil {
		return weather.CurrentConditions{}, nil, err
	}

	return current.toConditions(), forecast.toSamples(), nil
}

func (r owCurrentResponse) toConditions() weather.CurrentConditions {
	cond := firstCondition(r.Weather)
	observed := time.Now().UTC()
	if r.Dt > 0 {
		observed = time.Unix(r.Dt, 0).UTC()
	}
	return weather.CurrentConditions{
		Location: weather.Location{
			Name:      r.Name,
			Country:   r.Sys.Country,
			Latitude:  r.Coord.Lat,
			Longitude: r.Coord.Lon,
		},
		ObservedAt:    observed,
		TemperatureC:  r.Main.Temp,
		Description:   cond.Description,
		ConditionCode: cond.Icon,
		HumidityPct:   r.Main.Humidity,
		WindSpeedMS:   r.Wind.Speed,
		Sunrise:       time.Unix(r.Sys.Sunrise, 0).UTC(),
		Sunset:        time.Unix(r.Sys.Sunset, 0).UTC(),
	}
}

func (r owForecastResponse) toSamples() []weather.ForecastSample {
	samples := make([]weather.ForecastSample, 0, len(r.List))
	for _, item := range r.List {
		cond := firstCondition(item.Weather)
		samples = append(samples, weather.ForecastSample{
			Timestamp:     item.Dt,
			TempMax:       item.Main.TempMax,
			TempMin:       item.Main.TempMin,
			ConditionCode: cond.Icon,
			Description:   cond.Description,
		})
	}
	return samples
}

func firstCondition(items []owCondition) owCondition {
	if len(items) == 0 {
		return owCondition{}
	}
	return items[0]
}

var (
	_ weather.Provider = (*OpenWeatherProvider)(nil)
	_ weather.Geocoder = (*OpenWeatherProvider)(nil)
)
