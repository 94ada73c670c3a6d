// Package favorites keeps the user's ordered list of favorite locations.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// StorageKey is the key the list is persisted under.
const StorageKey = "weatherFavorites"

// Favorites is an insertion-ordered set of locations keyed by coordinates.
// Every mutation rewrites the whole list to the backing store.
type Favorites struct {
	mu     sync.Mutex
	items  []weather.Location
	kv     store.Store
	logger *slog.Logger
}

// Load reads the persisted list. A missing or unreadable list starts empty.
func Load(ctx context.Context, kv store.Store, logger *slog.Logger) (*Favorites, error) {
	f := &Favorites{
		kv:     kv,
		logger: logger.With("component", "favorites"),
	}

	raw, err := kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	var items []weather.Location
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		f.logger.Warn("discarding unreadable favorites", "error", err)
		return f, nil
	}
	f.items = dedupe(items)
	return f, nil
}

// Toggle adds loc when absent and removes it when present. It reports whether
// loc is a favorite afterwards. When persisting fails the list is left as it
// was.
func (f *Favorites) Toggle(ctx context.Context, loc weather.Location) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev := f.items
	next := make([]weather.Location, 0, len(prev)+1)
	added := true
	for _, it := range prev {
		if it.SamePlace(loc) {
			added = false
			continue
		}
		next = append(next, it)
	}
	if added {
		next = append(next, loc)
	}

	if err := f.persist(ctx, next); err != nil {
		return !added, err
	}
	f.items = next

	f.logger.Info("favorite toggled",
		"name", loc.Name,
		"latitude", loc.Latitude,
		"longitude", loc.Longitude,
		"favorite", added,
		"count", len(next),
	)
	return added, nil
}

// IsFavorite reports whether a location with loc's coordinates is in the list.
func (f *Favorites) IsFavorite(loc weather.Location) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, it := range f.items {
		if it.SamePlace(loc) {
			return true
		}
	}
	return false
}

// Find returns the stored entry matching loc's coordinates.
func (f *Favorites) Find(loc weather.Location) (weather.Location, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, it := range f.items {
		if it.SamePlace(loc) {
			return it, true
		}
	}
	return weather.Location{}, false
}

// List returns a copy of the favorites in insertion order.
func (f *Favorites) List() []weather.Location {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]weather.Location, len(f.items))
	copy(out, f.items)
	return out
}

func (f *Favorites) persist(ctx context.Context, items []weather.Location) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	if err := f.kv.Put(ctx, StorageKey, string(data)); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}

// dedupe keeps the first entry for each coordinate pair.
func dedupe(items []weather.Location) []weather.Location {
	seen := make(map[[2]int64]struct{}, len(items))
	out := make([]weather.Location, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.Key()]; ok {
			continue
		}
		seen[it.Key()] = struct{}{}
		out = append(out, it)
	}
	return out
}
