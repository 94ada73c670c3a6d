package weather

import (
	"math"
	"time"
)

// DefaultForecastDays is the number of daily summaries shown when no other
// limit is configured.
const DefaultForecastDays = 5

// Location is a resolved place. Two locations are the same place when their
// coordinates match; the name plays no part in identity.
type Location struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// coordScale rounds coordinates to 1e-4 degrees, the precision the upstream
// providers echo back.
const coordScale = 1e4

// Key returns a canonical coordinate key for indexing this location.
func (l Location) Key() [2]int64 {
	return [2]int64{
		int64(math.Round(l.Latitude * coordScale)),
		int64(math.Round(l.Longitude * coordScale)),
	}
}

// SamePlace reports whether l and other share coordinates.
func (l Location) SamePlace(other Location) bool {
	return l.Key() == other.Key()
}

// ForecastSample is one short-interval forecast entry as delivered by the
// provider. Samples arrive in non-decreasing timestamp order.
type ForecastSample struct {
	Timestamp     int64   `json:"dt"` // UTC epoch seconds
	TempMax       float64 `json:"tempMax"`
	TempMin       float64 `json:"tempMin"`
	ConditionCode string  `json:"conditionCode"`
	Description   string  `json:"description"`
}

// DaySummary is the aggregated view of all samples that fall on one calendar
// day in the reference zone.
type DaySummary struct {
	DayKey        string    `json:"day"`
	Date          time.Time `json:"date"` // midnight of DayKey in the reference zone
	TempMax       float64   `json:"tempMax"`
	TempMin       float64   `json:"tempMin"`
	ConditionCode string    `json:"conditionCode"`
	Description   string    `json:"description"`
}

// CurrentConditions is the provider's observation for a location.
type CurrentConditions struct {
	Location      Location  `json:"location"`
	ObservedAt    time.Time `json:"observedAt"`
	TemperatureC  float64   `json:"temperatureC"`
	Description   string    `json:"description"`
	ConditionCode string    `json:"conditionCode"`
	HumidityPct   float64   `json:"humidityPercent"`
	WindSpeedMS   float64   `json:"windSpeed"`
	Sunrise       time.Time `json:"sunrise"`
	Sunset        time.Time `json:"sunset"`
}

// Report is the outcome of one resolve-and-fetch flow.
type Report struct {
	Location Location          `json:"location"`
	Current  CurrentConditions `json:"current"`
	Daily    []DaySummary      `json:"daily"`
	Zone     *time.Location    `json:"-"`
}
