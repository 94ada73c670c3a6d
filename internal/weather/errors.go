package weather

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a geocode lookup yields no match.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("location %q not found", e.Query)
}

// UpstreamError is returned when the provider answers with a non-success status.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

// NetworkError is returned when a request to the provider cannot complete.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// GeolocationDeniedError is returned when the geolocation provider declines or
// cannot supply coordinates.
type GeolocationDeniedError struct {
	Reason string
}

func (e *GeolocationDeniedError) Error() string {
	if e.Reason == "" {
		return "geolocation unavailable"
	}
	return "geolocation unavailable: " + e.Reason
}

// UserMessage turns a flow error into the text shown to the user.
func UserMessage(err error) string {
	var (
		notFound *NotFoundError
		upstream *UpstreamError
		network  *NetworkError
		denied   *GeolocationDeniedError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return "City not found. Please check the spelling."
	case errors.As(err, &upstream):
		if upstream.Message != "" {
			return upstream.Message
		}
		return "Failed to fetch weather data"
	case errors.As(err, &network):
		return "Unable to reach the weather service. Please check your connection."
	case errors.As(err, &denied):
		return "Unable to retrieve your location. Please enable location services or enter a city manually."
	default:
		return "Failed to get weather data"
	}
}
