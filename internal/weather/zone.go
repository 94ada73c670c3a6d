package weather

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ringsaturn/tzf"
)

// FixedZone always answers with the same zone.
type FixedZone struct {
	Loc *time.Location
}

func (z FixedZone) Zone(_ context.Context, _ Location) (*time.Location, error) {
	if z.Loc == nil {
		return time.UTC, nil
	}
	return z.Loc, nil
}

// CoordinateZone looks up the IANA zone containing a location's coordinates.
type CoordinateZone struct {
	finder tzf.F
	mu     sync.RWMutex
}

var (
	coordZone     *CoordinateZone
	coordZoneErr  error
	coordZoneOnce sync.Once
)

// NewCoordinateZone returns the shared coordinate zone resolver.
// The finder holds its polygon data in memory, so it is built once per process.
func NewCoordinateZone() (*CoordinateZone, error) {
	coordZoneOnce.Do(func() {
		finder, err := tzf.NewDefaultFinder()
		if err != nil {
			coordZoneErr = fmt.Errorf("failed to initialize timezone finder: %w", err)
			return
		}
		coordZone = &CoordinateZone{finder: finder}
	})
	if coordZoneErr != nil {
		return nil, coordZoneErr
	}
	return coordZone, nil
}

func (z *CoordinateZone) Zone(_ context.Context, loc Location) (*time.Location, error) {
	z.mu.RLock()
	name := z.finder.GetTimezoneName(loc.Longitude, loc.Latitude)
	z.mu.RUnlock()

	if name == "" {
		return nil, fmt.Errorf("could not determine timezone for coordinates lat=%f, lon=%f", loc.Latitude, loc.Longitude)
	}
	tz, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone location %s: %w", name, err)
	}
	return tz, nil
}

// NewZoneResolver builds the resolver for a day_zone setting: "local", "utc",
// "location", or an IANA zone name.
func NewZoneResolver(setting string) (ZoneResolver, error) {
	switch strings.ToLower(strings.TrimSpace(setting)) {
	case "", "local":
		return FixedZone{Loc: time.Local}, nil
	case "utc":
		return FixedZone{Loc: time.UTC}, nil
	case "location":
		return NewCoordinateZone()
	default:
		tz, err := time.LoadLocation(setting)
		if err != nil {
			return nil, fmt.Errorf("invalid day zone %q: %w", setting, err)
		}
		return FixedZone{Loc: tz}, nil
	}
}
