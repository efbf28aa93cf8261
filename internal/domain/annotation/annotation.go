// Package annotation holds the user-drawn annotation aggregate.
package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/anveshak/tilesearch/internal/domain"
)

// Annotation is a user-drawn geometry with a label, scoped to a dataset
// and optional footprint. The id is client-generated (time-based).
type Annotation struct {
	id          string
	scope       domain.Scope
	label       string
	geojson     []byte
	zoomCreated int
	createdAt   int64
}

// New validates and builds an annotation. The geojson payload must carry
// a Point, Polygon or LineString geometry, bare or wrapped in a Feature.
func New(id string, scope domain.Scope, label string, geojsonPayload []byte, zoomCreated int, createdAt int64) (Annotation, error) {
	if id == "" {
		return Annotation{}, fmt.Errorf("annotation id is required")
	}
	if scope.IsZero() {
		return Annotation{}, fmt.Errorf("annotation dataset is required")
	}
	if _, err := ParseGeometry(geojsonPayload); err != nil {
		return Annotation{}, err
	}
	return Annotation{
		id:          id,
		scope:       scope,
		label:       label,
		geojson:     geojsonPayload,
		zoomCreated: zoomCreated,
		createdAt:   createdAt,
	}, nil
}

// Reconstruct rebuilds an annotation from storage without re-validation.
func Reconstruct(id string, scope domain.Scope, label string, geojsonPayload []byte, zoomCreated int, createdAt int64) Annotation {
	return Annotation{
		id:          id,
		scope:       scope,
		label:       label,
		geojson:     geojsonPayload,
		zoomCreated: zoomCreated,
		createdAt:   createdAt,
	}
}

// ID returns the client-generated annotation id.
func (a *Annotation) ID() string { return a.id }

// Scope returns the dataset scope the annotation belongs to.
func (a *Annotation) Scope() domain.Scope { return a.scope }

// Label returns the user label, possibly empty.
func (a *Annotation) Label() string { return a.label }

// GeoJSON returns the raw geometry payload as stored.
func (a *Annotation) GeoJSON() []byte { return a.geojson }

// ZoomCreated returns the zoom level the annotation was drawn at.
func (a *Annotation) ZoomCreated() int { return a.zoomCreated }

// CreatedAt returns the creation time in unix milliseconds.
func (a *Annotation) CreatedAt() int64 { return a.createdAt }

// WithLabel returns a copy with the label replaced. Labels are the only
// mutable attribute; geometry edits are not part of the contract.
func (a *Annotation) WithLabel(label string) Annotation {
	out := *a
	out.label = label
	return out
}

// Center returns the geometry's bounding-box midpoint as (lat, lng).
// Used to resolve the annotation to a containing tile.
func (a *Annotation) Center() (lat, lng float64, err error) {
	g, err := ParseGeometry(a.geojson)
	if err != nil {
		return 0, 0, err
	}
	b := g.Bounds()
	// GeoJSON coordinate order is (lng, lat).
	return (b.Min(1) + b.Max(1)) / 2, (b.Min(0) + b.Max(0)) / 2, nil
}

// ParseGeometry decodes a GeoJSON payload into a geometry, unwrapping a
// Feature envelope when present. Only Point, Polygon and LineString are
// accepted, matching the drawing tools' output.
func ParseGeometry(payload []byte) (geom.T, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty geojson", domain.ErrInvalidGeometry)
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGeometry, err)
	}

	var g geom.T
	switch probe.Type {
	case "Feature":
		var f geojson.Feature
		if err := f.UnmarshalJSON(payload); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGeometry, err)
		}
		g = f.Geometry
	default:
		if err := geojson.Unmarshal(payload, &g); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGeometry, err)
		}
	}

	switch g.(type) {
	case *geom.Point, *geom.Polygon, *geom.LineString:
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unsupported geometry type %q", domain.ErrInvalidGeometry, probe.Type)
	}
}
