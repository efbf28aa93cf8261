// Package request holds validated similarity-search query parameters.
package request

import (
	"fmt"

	"github.com/anveshak/tilesearch/internal/domain"
)

// Search parameter limits.
const (
	DefaultTopK = 10
	MaxTopK     = 100
	MinZoom     = 0
	MaxZoom     = 24
)

// clampTopK applies the default and upper bound shared by all variants.
func clampTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// Initial is a validated first-stage similarity search.
type Initial struct {
	annotationID string
	scope        domain.Scope
	geojson      []byte
	zoom         int
	topK         int
}

// NewInitial validates and normalizes the first-stage parameters.
// geojson is the client's inline copy of the annotation geometry; it may
// be nil, in which case the stored geometry is used for extraction.
func NewInitial(annotationID string, scope domain.Scope, geojson []byte, zoom, topK int) (Initial, error) {
	if annotationID == "" {
		return Initial{}, fmt.Errorf("annotation_id is required")
	}
	if scope.IsZero() {
		return Initial{}, fmt.Errorf("dataset is required")
	}
	if zoom < MinZoom || zoom > MaxZoom {
		return Initial{}, fmt.Errorf("zoom must be between %d and %d", MinZoom, MaxZoom)
	}
	return Initial{
		annotationID: annotationID,
		scope:        scope,
		geojson:      geojson,
		zoom:         zoom,
		topK:         clampTopK(topK),
	}, nil
}

// AnnotationID returns the query annotation id.
func (r *Initial) AnnotationID() string { return r.annotationID }

// Scope returns the dataset scope to search.
func (r *Initial) Scope() domain.Scope { return r.scope }

// GeoJSON returns the inline geometry payload, nil when absent.
func (r *Initial) GeoJSON() []byte { return r.geojson }

// Zoom returns the zoom level to search.
func (r *Initial) Zoom() int { return r.zoom }

// TopK returns the number of results to return.
func (r *Initial) TopK() int { return r.topK }

// Deepen is a validated second-stage search across remaining zoom levels.
type Deepen struct {
	annotationID string
	geojson      []byte
	excludeZooms []int
	topK         int
}

// NewDeepen validates and normalizes the deepen parameters.
func NewDeepen(annotationID string, geojson []byte, excludeZooms []int, topK int) (Deepen, error) {
	if annotationID == "" {
		return Deepen{}, fmt.Errorf("annotation_id is required")
	}
	for _, z := range excludeZooms {
		if z < MinZoom || z > MaxZoom {
			return Deepen{}, fmt.Errorf("exclude_zooms entry %d out of range", z)
		}
	}
	return Deepen{
		annotationID: annotationID,
		geojson:      geojson,
		excludeZooms: excludeZooms,
		topK:         clampTopK(topK),
	}, nil
}

// AnnotationID returns the query annotation id.
func (r *Deepen) AnnotationID() string { return r.annotationID }

// GeoJSON returns the inline geometry payload, nil when absent.
func (r *Deepen) GeoJSON() []byte { return r.geojson }

// ExcludeZooms returns the zooms the client has already searched.
func (r *Deepen) ExcludeZooms() []int { return r.excludeZooms }

// TopK returns the number of merged results to return.
func (r *Deepen) TopK() int { return r.topK }

// Point is a validated point-query variant (no annotation involved).
type Point struct {
	scope domain.Scope
	lat   float64
	lng   float64
	zoom  int
	topK  int
}

// NewPoint validates and normalizes the point-query parameters.
func NewPoint(scope domain.Scope, lat, lng float64, zoom, topK int) (Point, error) {
	if scope.IsZero() {
		return Point{}, fmt.Errorf("dataset is required")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Point{}, fmt.Errorf("coordinates out of range: lat=%v lng=%v", lat, lng)
	}
	if zoom < MinZoom || zoom > MaxZoom {
		return Point{}, fmt.Errorf("zoom must be between %d and %d", MinZoom, MaxZoom)
	}
	return Point{scope: scope, lat: lat, lng: lng, zoom: zoom, topK: clampTopK(topK)}, nil
}

// Scope returns the dataset scope to search.
func (r *Point) Scope() domain.Scope { return r.scope }

// Lat returns the query latitude in degrees.
func (r *Point) Lat() float64 { return r.lat }

// Lng returns the query longitude in degrees.
func (r *Point) Lng() float64 { return r.lng }

// Zoom returns the zoom level to search.
func (r *Point) Zoom() int { return r.zoom }

// TopK returns the number of results to return.
func (r *Point) TopK() int { return r.topK }
