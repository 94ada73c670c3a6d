// Package view turns weather reports into display-ready strings.
package view

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	dateLayout  = "Monday, January 2, 2006"
	clockLayout = "15:04"
	dayLayout   = "Mon"

	// ForecastUnavailable is shown in place of the forecast after an error.
	ForecastUnavailable = "No forecast data available"
)

var iconNames = map[string]string{
	"01d": "sun",
	"01n": "moon",
	"02d": "cloud-sun",
	"02n": "cloud-moon",
	"03d": "cloud",
	"03n": "cloud",
	"04d": "cloud",
	"04n": "cloud",
	"09d": "cloud-rain",
	"09n": "cloud-rain",
	"10d": "cloud-sun-rain",
	"10n": "cloud-moon-rain",
	"11d": "cloud-lightning",
	"11n": "cloud-lightning",
	"13d": "snowflake",
	"13n": "snowflake",
	"50d": "fog",
	"50n": "fog",
}

// IconName maps a provider icon code to an icon name. Unknown codes render as
// a plain cloud.
func IconName(code string) string {
	if name, ok := iconNames[code]; ok {
		return name
	}
	return "cloud"
}

// Model is everything the page shows for one location.
type Model struct {
	Title           string         `json:"title"`
	Date            string         `json:"date"`
	Temperature     string         `json:"temperature"`
	Description     string         `json:"description"`
	Humidity        string         `json:"humidity"`
	Wind            string         `json:"wind"`
	Sunrise         string         `json:"sunrise"`
	Sunset          string         `json:"sunset"`
	Icon            string         `json:"icon"`
	Favorite        bool           `json:"favorite"`
	Forecast        []ForecastItem `json:"forecast"`
	ForecastMessage string         `json:"forecastMessage,omitempty"`
	Error           bool           `json:"error"`
	Message         string         `json:"message,omitempty"`
}

// ForecastItem is one day of the forecast strip.
type ForecastItem struct {
	DayKey string `json:"dayKey"`
	Day    string `json:"day"`
	Icon   string `json:"icon"`
	High   string `json:"high"`
	Low    string `json:"low"`
}

// Render builds the view for a successful report. Times are shown in zone;
// nil means the report's own zone, then UTC.
func Render(r weather.Report, zone *time.Location, favorite bool) Model {
	if zone == nil {
		zone = r.Zone
	}
	if zone == nil {
		zone = time.UTC
	}
	cur := r.Current

	m := Model{
		Title:       title(r.Location),
		Date:        cur.ObservedAt.In(zone).Format(dateLayout),
		Temperature: fmt.Sprintf("%d", round(cur.TemperatureC)),
		Description: cur.Description,
		Humidity:    fmt.Sprintf("%d%%", round(cur.HumidityPct)),
		Wind:        fmt.Sprintf("%d km/h", round(cur.WindSpeedMS*3.6)),
		Sunrise:     clock(cur.Sunrise, zone),
		Sunset:      clock(cur.Sunset, zone),
		Icon:        IconName(cur.ConditionCode),
		Favorite:    favorite,
		Forecast:    make([]ForecastItem, 0, len(r.Daily)),
	}
	for _, d := range r.Daily {
		m.Forecast = append(m.Forecast, ForecastItem{
			DayKey: d.DayKey,
			Day:    d.Date.Format(dayLayout),
			Icon:   IconName(d.ConditionCode),
			High:   fmt.Sprintf("%d°", round(d.TempMax)),
			Low:    fmt.Sprintf("%d°", round(d.TempMin)),
		})
	}
	if len(m.Forecast) == 0 {
		m.ForecastMessage = ForecastUnavailable
	}
	return m
}

// Placeholder is the view after a failed flow: every weather field reset and
// message shown in place of the description.
func Placeholder(message string) Model {
	if message == "" {
		message = "Failed to get weather data"
	}
	return Model{
		Title:           "Error",
		Temperature:     "--",
		Description:     message,
		Humidity:        "--%",
		Wind:            "-- km/h",
		Sunrise:         "--:--",
		Sunset:          "--:--",
		Icon:            IconName(""),
		Forecast:        []ForecastItem{},
		ForecastMessage: ForecastUnavailable,
		Error:           true,
		Message:         message,
	}
}

// Loading is the view before the first flow completes.
func Loading() Model {
	m := Placeholder("--")
	m.Title = "Detecting location..."
	m.Error = false
	m.Message = ""
	m.ForecastMessage = ""
	return m
}

func title(loc weather.Location) string {
	if loc.Country == "" {
		return loc.Name
	}
	return loc.Name + ", " + loc.Country
}

func clock(t time.Time, zone *time.Location) string {
	if t.IsZero() || t.Unix() == 0 {
		return "--:--"
	}
	return t.In(zone).Format(clockLayout)
}

// round rounds half up, so -2.5 becomes -2.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
