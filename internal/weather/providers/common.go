package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// BreakerConfig controls when a provider stops calling its upstream.
type BreakerConfig struct {
	MaxFailures uint32
	Cooldown    time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Breaker BreakerConfig
}

var (
	errNoHTTPClient = errors.New("http client not configured")
	errNoAPIKey     = errors.New("api key is not configured")
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

func breakerSettings(name string, cfg BreakerConfig) gobreaker.Settings {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}
}

// newBreaker creates a circuit breaker that trips after MaxFailures
// consecutive failures and probes again after Cooldown.
func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(breakerSettings(name, cfg))
}

// newEndpointBreaker creates the breaker for one upstream endpoint. Requests
// that run concurrently within a flow each get their own, so a half-open
// breaker never rejects the second half of a healthy flow.
func newEndpointBreaker(name string, cfg BreakerConfig) *gobreaker.TwoStepCircuitBreaker {
	return gobreaker.NewTwoStepCircuitBreaker(breakerSettings(name, cfg))
}

func breakerOpen() *weather.UpstreamError {
	return &weather.UpstreamError{
		Status:  http.StatusServiceUnavailable,
		Message: "Weather service is temporarily unavailable",
	}
}

// getJSON issues a single GET to rawURL and decodes a successful body into out.
// It never retries. Failures are classified as *weather.NetworkError when the
// request cannot complete and *weather.UpstreamError on a non-success status.
// Transport errors and 5xx answers count against cb; client errors do not.
func getJSON(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.TwoStepCircuitBreaker,
	op string,
	rawURL string,
	out any,
) error {
	if cfg.Client == nil {
		return errNoHTTPClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	done, err := cb.Allow()
	if err != nil {
		return breakerOpen()
	}

	resp, err := cfg.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			releaseCancelled(cb, done)
		} else {
			done(false)
		}
		return &weather.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		done(false)
		return upstreamError(resp)
	}
	done(true)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, &weather.UpstreamError{
			Status:  http.StatusBadGateway,
			Message: "Failed to fetch weather data",
		})
	}
	return nil
}

// releaseCancelled settles a request abandoned by its caller. It is not
// counted, except that a half-open breaker gets its single probe slot back.
func releaseCancelled(cb *gobreaker.TwoStepCircuitBreaker, done func(bool)) {
	if cb.State() == gobreaker.StateHalfOpen {
		done(true)
	}
}

// upstreamError reads the provider's error body. OpenWeatherMap answers
// {"cod": ..., "message": ...}; Open-Meteo answers {"error": true, "reason": ...}.
func upstreamError(resp *http.Response) *weather.UpstreamError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Reason
		}
	}
	return &weather.UpstreamError{Status: resp.StatusCode, Message: msg}
}

// buildURL joins base and path and encodes values as the query string.
func buildURL(base, path string, values url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// formatCoord renders a coordinate with the precision the upstreams accept.
func formatCoord(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
