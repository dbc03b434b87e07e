package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestDistanceReflexive(t *testing.T) {
	points := []orb.Point{
		{0, 0},
		{106.6297, 10.8231},  // Ho Chi Minh City
		{-180, 90},
		{179.9999, -89.9999},
	}
	for _, p := range points {
		if d := Distance(p, p); d != 0 {
			t.Errorf("Distance(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]orb.Point{
		{{106.6297, 10.8231}, {105.8342, 21.0278}}, // HCMC ↔ Hanoi
		{{0, 0}, {1, 1}},
		{{-73.9857, 40.7484}, {2.2945, 48.8584}}, // NYC ↔ Paris
	}
	for _, pair := range pairs {
		ab := Distance(pair[0], pair[1])
		ba := Distance(pair[1], pair[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Distance not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	tests := []struct {
		name     string
		a, b     orb.Point
		want     float64 // meters
		tolerance float64
	}{
		// One degree of latitude along a meridian ≈ 111.19 km with R=6371km
		{"one degree latitude", orb.Point{0, 0}, orb.Point{0, 1}, 111195, 50},
		{"hcmc to hanoi", orb.Point{106.6297, 10.8231}, orb.Point{105.8342, 21.0278}, 1137000, 10000},
		{"quarter circumference", orb.Point{0, 0}, orb.Point{0, 90}, 10007543, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Distance() = %v, want %v ± %v", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceNaNPropagates(t *testing.T) {
	d := Distance(orb.Point{math.NaN(), 10}, orb.Point{106, 10})
	if !math.IsNaN(d) {
		t.Errorf("Distance with NaN input = %v, want NaN", d)
	}
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{"origin", 0, 0, true},
		{"hcmc", 10.8231, 106.6297, true},
		{"poles", 90, 180, true},
		{"lat too high", 90.1, 0, false},
		{"lng too low", 0, -180.5, false},
		{"nan lat", math.NaN(), 0, false},
		{"nan lng", 0, math.NaN(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCoordinate(tt.lat, tt.lng); got != tt.want {
				t.Errorf("ValidCoordinate(%v, %v) = %v, want %v", tt.lat, tt.lng, got, tt.want)
			}
		})
	}
}
