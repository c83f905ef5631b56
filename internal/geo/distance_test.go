package geo

import (
	"math"
	"testing"
)

func TestHaversineMeters_ZeroDistance(t *testing.T) {
	d := HaversineMeters(10, 20, 10, 20)
	if d < 0 || d > 1e-6 {
		t.Fatalf("zero distance expected ~0, got %v", d)
	}
}

func TestHaversineMeters_OneDegreeLatitude(t *testing.T) {
	// One degree of latitude along a meridian is ~111.19 km.
	d := HaversineMeters(0, 0, 1, 0)
	want := EarthRadiusMeters * math.Pi / 180
	if math.Abs(d-want) > 1 {
		t.Fatalf("one degree latitude = %v, want ~%v", d, want)
	}
}

func TestWithinMeters(t *testing.T) {
	// ~11 meters apart (1e-4 degrees of latitude).
	lat1, lng1 := 37.8044, -122.2712
	lat2, lng2 := 37.8045, -122.2712
	if !WithinMeters(lat1, lng1, lat2, lng2, 50) {
		t.Fatal("expected points to be within 50 meters")
	}
	if WithinMeters(lat1, lng1, lat2, lng2, 5) {
		t.Fatal("expected points to be outside 5 meters")
	}
}
