package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/store"
)

// StorageKey is the key the theme is persisted under.
const StorageKey = "theme"

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == Light || t == Dark
}

// Other returns the opposite theme.
func (t Theme) Other() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Preference holds the current theme and writes every change through to the
// store.
type Preference struct {
	mu     sync.Mutex
	cur    Theme
	kv     store.Store
	logger *slog.Logger
}

// Load reads the persisted theme, defaulting to Light.
func Load(ctx context.Context, kv store.Store, logger *slog.Logger) (*Preference, error) {
	p := &Preference{
		cur:    Light,
		kv:     kv,
		logger: logger.With("component", "theme"),
	}

	raw, err := kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return p, nil
	case err != nil:
		return nil, fmt.Errorf("load theme: %w", err)
	}

	if t := Theme(raw); t.Valid() {
		p.cur = t
	} else {
		p.logger.Warn("ignoring unknown theme", "value", raw)
	}
	return p, nil
}

// Current returns the active theme.
func (p *Preference) Current() Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

// Toggle flips the theme and persists it.
func (p *Preference) Toggle(ctx context.Context) (Theme, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.cur.Other()
	if err := p.kv.Put(ctx, StorageKey, string(next)); err != nil {
		return p.cur, fmt.Errorf("save theme: %w", err)
	}
	p.cur = next
	p.logger.Debug("theme changed", "theme", next)
	return next, nil
}
