// Package geo holds slippy-map tile arithmetic shared by the search core.
package geo

import "math"

// MaxLatitude is the Web Mercator latitude clamp.
const MaxLatitude = 85.05112878

// TileAt returns the (x, y) tile containing the given coordinates at zoom.
// Latitude is clamped to the Web Mercator range before projection.
func TileAt(lat, lng float64, zoom int) (x, y int) {
	if lat > MaxLatitude {
		lat = MaxLatitude
	}
	if lat < -MaxLatitude {
		lat = -MaxLatitude
	}
	n := float64(int(1) << uint(zoom))
	x = int(math.Floor((lng + 180) / 360 * n))
	latRad := lat * math.Pi / 180
	y = int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))

	max := (1 << uint(zoom)) - 1
	if x < 0 {
		x = 0
	}
	if x > max {
		x = max
	}
	if y < 0 {
		y = 0
	}
	if y > max {
		y = max
	}
	return x, y
}

// TileLat returns the latitude of the top edge of tile row y at zoom.
func TileLat(y, zoom int) float64 {
	n := float64(int(1) << uint(zoom))
	t := math.Pi * (1 - 2*float64(y)/n)
	return math.Atan(math.Sinh(t)) * 180 / math.Pi
}

// TileLng returns the longitude of the left edge of tile column x at zoom.
func TileLng(x, zoom int) float64 {
	n := float64(int(1) << uint(zoom))
	return float64(x)/n*360 - 180
}

// TileCenter returns the center coordinates of a tile.
func TileCenter(x, y, zoom int) (lat, lng float64) {
	latTop := TileLat(y, zoom)
	latBottom := TileLat(y+1, zoom)
	lngLeft := TileLng(x, zoom)
	lngRight := TileLng(x+1, zoom)
	return (latTop + latBottom) / 2, (lngLeft + lngRight) / 2
}

// ValidCoordinates reports whether lat/lng are in geographic range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
