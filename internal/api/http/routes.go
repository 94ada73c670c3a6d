package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/geolocation"
	"github.com/i474232898/weather-dashboard/internal/theme"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// Dashboard is the session the routes drive.
type Dashboard interface {
	Snapshot() dashboard.Snapshot
	Search(ctx context.Context, query string) (dashboard.Result, error)
	Coords(ctx context.Context, lat, lon float64) (dashboard.Result, error)
	Locate(ctx context.Context, locator geolocation.Locator) (dashboard.Result, error)
	SelectFavorite(ctx context.Context, lat, lon float64) (dashboard.Result, error)
	ToggleFavorite(ctx context.Context) (bool, error)
	ToggleTheme(ctx context.Context) (theme.Theme, error)
}

// Forecaster serves daily summaries without touching the session.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64, days int) ([]weather.DaySummary, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, session Dashboard, forecaster Forecaster) {
	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(session.Snapshot())
	})

	v1.Get("/dashboard/search", func(c *fiber.Ctx) error {
		q := searchQuery{City: c.Query("city")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, err := session.Search(c.UserContext(), q.City)
		if err != nil {
			return flowFailed(err, res)
		}
		return c.JSON(res)
	})

	v1.Get("/dashboard/coords", func(c *fiber.Ctx) error {
		q, err := parseCoordsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, err := session.Coords(c.UserContext(), *q.Lat, *q.Lon)
		if err != nil {
			return flowFailed(err, res)
		}
		return c.JSON(res)
	})

	v1.Post("/dashboard/locate", func(c *fiber.Ctx) error {
		var body locateBody
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		locator, err := body.locator()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, err := session.Locate(c.UserContext(), locator)
		if err != nil {
			return flowFailed(err, res)
		}
		return c.JSON(res)
	})

	v1.Get("/favorites", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"favorites": session.Snapshot().Favorites,
		})
	})

	v1.Post("/favorites/toggle", func(c *fiber.Ctx) error {
		fav, err := session.ToggleFavorite(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"favorite":  fav,
			"favorites": session.Snapshot().Favorites,
		})
	})

	v1.Post("/favorites/select", func(c *fiber.Ctx) error {
		q, err := parseCoordsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, err := session.SelectFavorite(c.UserContext(), *q.Lat, *q.Lon)
		if err != nil {
			return flowFailed(err, res)
		}
		return c.JSON(res)
	})

	v1.Get("/theme", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"theme": session.Snapshot().Theme})
	})

	v1.Post("/theme/toggle", func(c *fiber.Ctx) error {
		t, err := session.ToggleTheme(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"theme": t})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		q, err := parseForecastQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		days, err := forecaster.Forecast(c.UserContext(), *q.Lat, *q.Lon, q.Days)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"lat":  *q.Lat,
			"lon":  *q.Lon,
			"days": days,
		})
	})
}

type searchQuery struct {
	City string `validate:"max=200"`
}

// coordsQuery holds query parameters for identifying a position.
type coordsQuery struct {
	Lat *float64 `validate:"required,min=-90,max=90"`
	Lon *float64 `validate:"required,min=-180,max=180"`
}

func parseCoordsQuery(c *fiber.Ctx) (coordsQuery, error) {
	var q coordsQuery
	var err error

	if q.Lat, err = parseFloatParam(c, "lat"); err != nil {
		return q, err
	}
	if q.Lon, err = parseFloatParam(c, "lon"); err != nil {
		return q, err
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

type forecastQuery struct {
	coordsQuery
	Days int `validate:"omitempty,min=1,max=7"`
}

func parseForecastQuery(c *fiber.Ctx) (forecastQuery, error) {
	coords, err := parseCoordsQuery(c)
	if err != nil {
		return forecastQuery{}, err
	}
	q := forecastQuery{coordsQuery: coords}

	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.New("days must be an integer")
		}
		q.Days = days
		if days == 0 {
			return q, errors.New("days must be between 1 and 7")
		}
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func parseFloatParam(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

// locateBody is either a browser-supplied position or a report that the
// browser refused. An empty body asks the server's own locator.
type locateBody struct {
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Denied bool     `json:"denied"`
	Reason string   `json:"reason"`
}

func (b locateBody) locator() (geolocation.Locator, error) {
	if b.Denied {
		reason := b.Reason
		if reason == "" {
			reason = "permission denied"
		}
		return geolocation.Denied{Reason: reason}, nil
	}
	if b.Lat == nil && b.Lon == nil {
		return nil, nil
	}
	if b.Lat == nil || b.Lon == nil {
		return nil, errors.New("lat and lon must be provided together")
	}
	coords := geolocation.Coordinates{Latitude: *b.Lat, Longitude: *b.Lon}
	if err := coords.Validate(); err != nil {
		return nil, err
	}
	return geolocation.Static(coords), nil
}
