package favorites

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	london = weather.Location{Name: "London", Country: "GB", Latitude: 51.5073, Longitude: -0.1276}
	paris  = weather.Location{Name: "Paris", Country: "FR", Latitude: 48.8566, Longitude: 2.3522}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingStore struct {
	store.Store
}

func (failingStore) Put(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestToggleTwiceRestoresList(t *testing.T) {
	ctx := context.Background()
	f, err := Load(ctx, store.NewMemoryStore(), discardLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := f.Toggle(ctx, paris); err != nil {
		t.Fatalf("toggle paris: %v", err)
	}
	before := f.List()

	added, err := f.Toggle(ctx, london)
	if err != nil || !added {
		t.Fatalf("first toggle = %v, %v; want true, nil", added, err)
	}
	if !f.IsFavorite(london) {
		t.Error("london should be a favorite")
	}

	added, err = f.Toggle(ctx, london)
	if err != nil || added {
		t.Fatalf("second toggle = %v, %v; want false, nil", added, err)
	}
	if f.IsFavorite(london) {
		t.Error("london should no longer be a favorite")
	}

	after := f.List()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("list = %+v, want %+v", after, before)
	}
}

func TestIdentityIsCoordinates(t *testing.T) {
	ctx := context.Background()
	f, _ := Load(ctx, store.NewMemoryStore(), discardLogger())

	if _, err := f.Toggle(ctx, london); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	renamed := london
	renamed.Name = "Londres"
	renamed.Latitude += 0.00001

	if !f.IsFavorite(renamed) {
		t.Error("a differently named lookup of the same place should match")
	}
	added, err := f.Toggle(ctx, renamed)
	if err != nil || added {
		t.Fatalf("toggle renamed = %v, %v; want false, nil", added, err)
	}
	if len(f.List()) != 0 {
		t.Errorf("list = %+v, want empty", f.List())
	}
}

func TestListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	f, _ := Load(ctx, store.NewMemoryStore(), discardLogger())
	oslo := weather.Location{Name: "Oslo", Latitude: 59.91, Longitude: 10.75}

	for _, loc := range []weather.Location{paris, oslo, london} {
		if _, err := f.Toggle(ctx, loc); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}
	got := f.List()
	want := []string{"Paris", "Oslo", "London"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("list[%d] = %s, want %s", i, got[i].Name, name)
		}
	}
}

func TestPersistedAcrossLoads(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()

	f, _ := Load(ctx, kv, discardLogger())
	f.Toggle(ctx, london)
	f.Toggle(ctx, paris)

	reloaded, err := Load(ctx, kv, discardLogger())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.List()
	if len(got) != 2 || got[0] != london || got[1] != paris {
		t.Errorf("reloaded = %+v", got)
	}

	raw, _ := kv.Get(ctx, StorageKey)
	want := `[{"name":"London","country":"GB","lat":51.5073,"lon":-0.1276},{"name":"Paris","country":"FR","lat":48.8566,"lon":2.3522}]`
	if raw != want {
		t.Errorf("stored = %s\nwant     %s", raw, want)
	}
}

func TestLoadUnreadableStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	kv.Put(ctx, StorageKey, "{not json")

	f, err := Load(ctx, kv, discardLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(f.List()) != 0 {
		t.Errorf("list = %+v, want empty", f.List())
	}
}

func TestToggleKeepsListWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	f, _ := Load(ctx, failingStore{store.NewMemoryStore()}, discardLogger())

	added, err := f.Toggle(ctx, london)
	if err == nil {
		t.Fatal("expected persist error")
	}
	if added || f.IsFavorite(london) {
		t.Error("failed toggle must leave the list unchanged")
	}
}
