package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestStores(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{
			name: "memory",
			open: func(t *testing.T) Store { return NewMemoryStore() },
		},
		{
			name: "sqlite",
			open: func(t *testing.T) Store {
				s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "dash.db"))
				if err != nil {
					t.Fatalf("open sqlite: %v", err)
				}
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.open(t)
			defer s.Close()

			if _, err := s.Get(ctx, "theme"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for missing key, got %v", err)
			}

			if err := s.Put(ctx, "theme", "dark"); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Put(ctx, "theme", "light"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := s.Get(ctx, "theme")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got != "light" {
				t.Errorf("theme = %q, want light", got)
			}
		})
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dash.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(ctx, "weatherFavorites", `[{"name":"Oslo"}]`); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "weatherFavorites")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != `[{"name":"Oslo"}]` {
		t.Errorf("value = %q", got)
	}
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{":memory:", ":memory:"},
		{"dash.db", "file:dash.db?_busy_timeout=5000&_journal_mode=WAL"},
		{"file:dash.db?cache=shared", "file:dash.db?cache=shared&_busy_timeout=5000&_journal_mode=WAL"},
	}
	for _, tt := range tests {
		got, err := buildDSN(tt.path)
		if err != nil {
			t.Fatalf("buildDSN(%q): %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("buildDSN(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	if _, err := buildDSN(""); err == nil {
		t.Error("expected error for empty path")
	}
}
