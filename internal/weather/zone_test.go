package weather

import (
	"context"
	"testing"
	"time"
)

func TestNewZoneResolver_Fixed(t *testing.T) {
	tests := []struct {
		setting string
		want    string
	}{
		{"", time.Local.String()},
		{"local", time.Local.String()},
		{"UTC", "UTC"},
		{"Europe/Berlin", "Europe/Berlin"},
	}
	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			r, err := NewZoneResolver(tt.setting)
			if err != nil {
				t.Fatalf("NewZoneResolver(%q) error = %v", tt.setting, err)
			}
			tz, err := r.Zone(context.Background(), Location{Latitude: 1, Longitude: 2})
			if err != nil {
				t.Fatalf("Zone() error = %v", err)
			}
			if tz.String() != tt.want {
				t.Errorf("zone = %q, want %q", tz.String(), tt.want)
			}
		})
	}
}

func TestNewZoneResolver_Invalid(t *testing.T) {
	if _, err := NewZoneResolver("Not/AZone"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}

func TestFixedZone_NilIsUTC(t *testing.T) {
	tz, err := FixedZone{}.Zone(context.Background(), Location{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tz != time.UTC {
		t.Errorf("zone = %v, want UTC", tz)
	}
}
