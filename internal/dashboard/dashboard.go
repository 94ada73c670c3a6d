// Package dashboard owns the single-user session: the location on screen, its
// rendered view, and the request sequencing that keeps late responses from
// overwriting newer ones.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/favorites"
	"github.com/i474232898/weather-dashboard/internal/geolocation"
	"github.com/i474232898/weather-dashboard/internal/theme"
	"github.com/i474232898/weather-dashboard/internal/view"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrEmptyQuery is returned when a search has no text.
	ErrEmptyQuery = errors.New("empty search query")
	// ErrNoLocation is returned when an operation needs a loaded location.
	ErrNoLocation = errors.New("no location loaded")
	// ErrUnknownFavorite is returned when selecting a location that is not a
	// favorite.
	ErrUnknownFavorite = errors.New("location is not a favorite")
	// ErrSuperseded is returned when a newer request was issued before this
	// one finished; its result was discarded.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Message turns a flow error into the text shown to the user.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return "Please enter a city name"
	case errors.Is(err, ErrNoLocation):
		return "Load a location first"
	case errors.Is(err, ErrUnknownFavorite):
		return "That location is not in your favorites"
	case errors.Is(err, ErrSuperseded):
		return "A newer request replaced this one"
	default:
		return weather.UserMessage(err)
	}
}

// WeatherService is the resolve-and-fetch flow the session drives.
type WeatherService interface {
	ByName(ctx context.Context, query string) (weather.Report, error)
	ByCoords(ctx context.Context, lat, lon float64) (weather.Report, error)
}

// Snapshot is the session state the page renders.
type Snapshot struct {
	View      view.Model         `json:"view"`
	Theme     theme.Theme        `json:"theme"`
	Location  *weather.Location  `json:"location,omitempty"`
	Favorites []weather.Location `json:"favorites"`
	Sequence  uint64             `json:"sequence"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Result describes one applied flow.
type Result struct {
	RequestID string     `json:"requestId"`
	Sequence  uint64     `json:"sequence"`
	View      view.Model `json:"view"`
}

// Session is the dashboard state for one user.
type Session struct {
	weather     WeatherService
	favorites   *favorites.Favorites
	theme       *theme.Preference
	locator     geolocation.Locator
	defaultCity string
	logger      *slog.Logger
	now         func() time.Time

	// issued is the newest sequence token handed out.
	issued atomic.Uint64

	mu        sync.Mutex
	applied   uint64
	current   *weather.Location
	model     view.Model
	updatedAt time.Time
}

// Config wires a Session.
type Config struct {
	Weather     WeatherService
	Favorites   *favorites.Favorites
	Theme       *theme.Preference
	Locator     geolocation.Locator
	DefaultCity string
	Logger      *slog.Logger
}

// NewSession creates a Session with nothing loaded.
func NewSession(cfg Config) *Session {
	locator := cfg.Locator
	if locator == nil {
		locator = geolocation.Denied{Reason: "no locator"}
	}
	city := cfg.DefaultCity
	if city == "" {
		city = "London"
	}
	return &Session{
		weather:     cfg.Weather,
		favorites:   cfg.Favorites,
		theme:       cfg.Theme,
		locator:     locator,
		defaultCity: city,
		logger:      cfg.Logger.With("component", "dashboard"),
		now:         time.Now,
		model:       view.Loading(),
	}
}

// Start loads the device location, falling back to the default city when
// no position is available.
func (s *Session) Start(ctx context.Context) (Result, error) {
	coords, err := s.locator.Locate(ctx)
	if err != nil {
		s.logger.Info("geolocation unavailable, using default city",
			"city", s.defaultCity,
			"error", err,
		)
		return s.Search(ctx, s.defaultCity)
	}
	return s.Coords(ctx, coords.Latitude, coords.Longitude)
}

// Search resolves query and shows the best match.
func (s *Session) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, ErrEmptyQuery
	}
	return s.run(ctx, "search", s.issue(), func(ctx context.Context) (weather.Report, error) {
		return s.weather.ByName(ctx, query)
	})
}

// Coords shows the weather at a coordinate pair.
func (s *Session) Coords(ctx context.Context, lat, lon float64) (Result, error) {
	return s.run(ctx, "coords", s.issue(), func(ctx context.Context) (weather.Report, error) {
		return s.weather.ByCoords(ctx, lat, lon)
	})
}

// Locate asks locator for a position and shows its weather. Unlike Start, a
// refusal is reported to the caller and leaves the session untouched.
func (s *Session) Locate(ctx context.Context, locator geolocation.Locator) (Result, error) {
	if locator == nil {
		locator = s.locator
	}
	coords, err := locator.Locate(ctx)
	if err != nil {
		var denied *weather.GeolocationDeniedError
		if !errors.As(err, &denied) {
			err = &weather.GeolocationDeniedError{Reason: err.Error()}
		}
		return Result{}, err
	}
	return s.Coords(ctx, coords.Latitude, coords.Longitude)
}

// SelectFavorite shows a stored favorite by its coordinates.
func (s *Session) SelectFavorite(ctx context.Context, lat, lon float64) (Result, error) {
	fav, ok := s.favorites.Find(weather.Location{Latitude: lat, Longitude: lon})
	if !ok {
		return Result{}, fmt.Errorf("select %.4f,%.4f: %w", lat, lon, ErrUnknownFavorite)
	}
	return s.Coords(ctx, fav.Latitude, fav.Longitude)
}

// Refresh reloads the location on screen. It gives way to user requests: it
// does nothing while one is in flight and is discarded if one is issued
// before it finishes.
func (s *Session) Refresh(ctx context.Context) (Result, error) {
	s.mu.Lock()
	cur := s.current
	token := s.applied
	s.mu.Unlock()

	if cur == nil {
		if s.issued.Load() != 0 {
			return Result{}, ErrNoLocation
		}
		return s.Start(ctx)
	}
	if s.issued.Load() != token {
		return Result{}, ErrSuperseded
	}
	loc := *cur
	return s.run(ctx, "refresh", token, func(ctx context.Context) (weather.Report, error) {
		return s.weather.ByCoords(ctx, loc.Latitude, loc.Longitude)
	})
}

// ToggleFavorite adds or removes the location on screen and reports whether
// it is a favorite afterwards.
func (s *Session) ToggleFavorite(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false, ErrNoLocation
	}
	fav, err := s.favorites.Toggle(ctx, *s.current)
	if err != nil {
		return false, err
	}
	s.model.Favorite = fav
	return fav, nil
}

// ToggleTheme flips the theme.
func (s *Session) ToggleTheme(ctx context.Context) (theme.Theme, error) {
	return s.theme.Toggle(ctx)
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		View:      s.model,
		Theme:     s.theme.Current(),
		Favorites: s.favorites.List(),
		Sequence:  s.applied,
		UpdatedAt: s.updatedAt,
	}
	snap.View.Forecast = make([]view.ForecastItem, len(s.model.Forecast))
	copy(snap.View.Forecast, s.model.Forecast)
	if s.current != nil {
		loc := *s.current
		snap.Location = &loc
	}
	return snap
}

func (s *Session) issue() uint64 {
	return s.issued.Add(1)
}

// run executes fetch and applies its outcome if token is still the newest
// issued. A failure replaces the whole view with the placeholder and clears
// the location on screen.
func (s *Session) run(ctx context.Context, op string, token uint64, fetch func(context.Context) (weather.Report, error)) (Result, error) {
	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID, "sequence", token, "op", op)
	start := s.now()

	report, err := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if latest := s.issued.Load(); token != latest {
		logger.Info("discarding stale response", "latest", latest, "error", err)
		return Result{}, ErrSuperseded
	}

	s.applied = token
	s.updatedAt = s.now()

	if err != nil {
		s.current = nil
		s.model = view.Placeholder(Message(err))
		logger.Warn("weather flow failed",
			"error", err,
			"duration", s.updatedAt.Sub(start),
		)
		return Result{RequestID: requestID, Sequence: token, View: s.model}, err
	}

	loc := report.Location
	s.current = &loc
	s.model = view.Render(report, nil, s.favorites.IsFavorite(loc))
	logger.Info("weather flow applied",
		"location", loc.Name,
		"country", loc.Country,
		"days", len(report.Daily),
		"duration", s.updatedAt.Sub(start),
	)
	return Result{RequestID: requestID, Sequence: token, View: s.model}, nil
}
