package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/view"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// flowError carries the view a failed flow left on screen.
type flowError struct {
	err  error
	view *view.Model
}

func (e *flowError) Error() string { return e.err.Error() }
func (e *flowError) Unwrap() error { return e.err }

// flowFailed wraps err with the placeholder the session applied, if any. A
// flow that was rejected or discarded leaves no view to report.
func flowFailed(err error, res dashboard.Result) error {
	fe := &flowError{err: err}
	if res.RequestID != "" {
		v := res.View
		fe.view = &v
	}
	return fe
}

// ErrorHandler is the centralized Fiber error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusCode(err)

	body := fiber.Map{
		"error":   true,
		"message": message(err),
	}
	var fe *flowError
	if errors.As(err, &fe) && fe.view != nil {
		body["view"] = fe.view
	}
	return c.Status(code).JSON(body)
}

func statusCode(err error) int {
	var (
		fiberErr   *fiber.Error
		validation validator.ValidationErrors
		notFound   *weather.NotFoundError
		upstream   *weather.UpstreamError
		network    *weather.NetworkError
		denied     *weather.GeolocationDeniedError
	)
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validation), errors.Is(err, dashboard.ErrEmptyQuery):
		return fiber.StatusBadRequest
	case errors.Is(err, dashboard.ErrNoLocation), errors.Is(err, dashboard.ErrSuperseded):
		return fiber.StatusConflict
	case errors.Is(err, dashboard.ErrUnknownFavorite), errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &upstream):
		if upstream.Status == fiber.StatusServiceUnavailable {
			return fiber.StatusServiceUnavailable
		}
		return fiber.StatusBadGateway
	case errors.As(err, &network):
		return fiber.StatusGatewayTimeout
	case errors.As(err, &denied):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func message(err error) string {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Message
	}
	if statusCode(err) == fiber.StatusInternalServerError {
		return "Something went wrong"
	}
	return dashboard.Message(err)
}
