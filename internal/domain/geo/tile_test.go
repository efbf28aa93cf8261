package geo

import (
	"math"
	"testing"
)

func TestTileAt_Origin(t *testing.T) {
	// (0, 0) lands in the south-east tile of the 2x2 grid at zoom 1.
	x, y := TileAt(0, 0, 1)
	if x != 1 || y != 1 {
		t.Errorf("expected (1, 1), got (%d, %d)", x, y)
	}
}

func TestTileAt_ZoomZero(t *testing.T) {
	x, y := TileAt(51.5, -0.12, 0)
	if x != 0 || y != 0 {
		t.Errorf("zoom 0 has a single tile, got (%d, %d)", x, y)
	}
}

func TestTileAt_KnownLocation(t *testing.T) {
	// London at zoom 10, reference values from the slippy-map formula.
	x, y := TileAt(51.5074, -0.1278, 10)
	if x != 511 || y != 340 {
		t.Errorf("expected (511, 340), got (%d, %d)", x, y)
	}
}

func TestTileAt_ClampsPoles(t *testing.T) {
	x, y := TileAt(90, 0, 3)
	if y != 0 {
		t.Errorf("north pole should clamp to y=0, got y=%d", y)
	}
	x, y = TileAt(-90, 0, 3)
	if y != 7 {
		t.Errorf("south pole should clamp to y=max, got y=%d", y)
	}
	_ = x
}

func TestTileAt_ClampsAntimeridian(t *testing.T) {
	x, _ := TileAt(0, 180, 4)
	if x != 15 {
		t.Errorf("lng=180 should clamp to x=max, got x=%d", x)
	}
}

func TestTileLatLng_Inverse(t *testing.T) {
	// The tile containing a coordinate spans that coordinate.
	lat, lng := 40.7128, -74.0060
	zoom := 12
	x, y := TileAt(lat, lng, zoom)

	if got := TileLng(x, zoom); got > lng {
		t.Errorf("left edge %f should be <= lng %f", got, lng)
	}
	if got := TileLng(x+1, zoom); got < lng {
		t.Errorf("right edge %f should be >= lng %f", got, lng)
	}
	if got := TileLat(y, zoom); got < lat {
		t.Errorf("top edge %f should be >= lat %f", got, lat)
	}
	if got := TileLat(y+1, zoom); got > lat {
		t.Errorf("bottom edge %f should be <= lat %f", got, lat)
	}
}

func TestTileCenter_RoundTrips(t *testing.T) {
	zoom := 8
	for _, tc := range []struct{ x, y int }{{0, 0}, {128, 128}, {200, 37}} {
		lat, lng := TileCenter(tc.x, tc.y, zoom)
		x, y := TileAt(lat, lng, zoom)
		if x != tc.x || y != tc.y {
			t.Errorf("center of (%d, %d) resolved to (%d, %d)", tc.x, tc.y, x, y)
		}
	}
}

func TestTileLat_Bounds(t *testing.T) {
	if got := TileLat(0, 5); math.Abs(got-MaxLatitude) > 1e-6 {
		t.Errorf("top of the map should be MaxLatitude, got %f", got)
	}
	if got := TileLat(32, 5); math.Abs(got+MaxLatitude) > 1e-6 {
		t.Errorf("bottom of the map should be -MaxLatitude, got %f", got)
	}
}

func TestValidCoordinates(t *testing.T) {
	cases := []struct {
		lat, lng float64
		ok       bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{91, 0, false},
		{0, 181, false},
		{-91, 0, false},
		{0, -181, false},
	}
	for _, c := range cases {
		if got := ValidCoordinates(c.lat, c.lng); got != c.ok {
			t.Errorf("ValidCoordinates(%f, %f) = %v, want %v", c.lat, c.lng, got, c.ok)
		}
	}
}
