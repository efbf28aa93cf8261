package annotation

import (
	"errors"
	"math"
	"testing"

	"github.com/twpayne/go-geom"

	"github.com/anveshak/tilesearch/internal/domain"
)

const (
	pointJSON   = `{"type":"Point","coordinates":[-0.1278,51.5074]}`
	polygonJSON = `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,2],[0,2],[0,0]]]}`
	lineJSON    = `{"type":"LineString","coordinates":[[0,0],[10,10]]}`
	featureJSON = `{"type":"Feature","properties":{"name":"crater"},"geometry":{"type":"Point","coordinates":[137.4,-4.6]}}`
)

func testScope(t *testing.T) domain.Scope {
	t.Helper()
	s, err := domain.NewScope("mars", "gale")
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	ann, err := New("ann-1", testScope(t), "crater rim", []byte(polygonJSON), 7, 1700000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ann.ID() != "ann-1" || ann.Label() != "crater rim" {
		t.Errorf("unexpected annotation: id=%q label=%q", ann.ID(), ann.Label())
	}
	if ann.ZoomCreated() != 7 {
		t.Errorf("expected zoom 7, got %d", ann.ZoomCreated())
	}
	if ann.CreatedAt() != 1700000000000 {
		t.Errorf("unexpected createdAt %d", ann.CreatedAt())
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New("", testScope(t), "", []byte(pointJSON), 3, 0); err == nil {
		t.Error("expected error for missing id")
	}
	if _, err := New("ann-1", domain.Scope{}, "", []byte(pointJSON), 3, 0); err == nil {
		t.Error("expected error for zero scope")
	}
	_, err := New("ann-1", testScope(t), "", []byte(`{"type":"bogus"}`), 3, 0)
	if !errors.Is(err, domain.ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestWithLabel(t *testing.T) {
	ann, _ := New("ann-1", testScope(t), "old", []byte(pointJSON), 3, 42)
	updated := ann.WithLabel("new")
	if updated.Label() != "new" {
		t.Errorf("expected 'new', got %q", updated.Label())
	}
	if ann.Label() != "old" {
		t.Error("original should be unchanged")
	}
	if updated.ID() != ann.ID() || updated.CreatedAt() != ann.CreatedAt() {
		t.Error("other attributes should carry over")
	}
}

func TestCenter_Point(t *testing.T) {
	ann, _ := New("ann-1", testScope(t), "", []byte(pointJSON), 3, 0)
	lat, lng, err := ann.Center()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(lat-51.5074) > 1e-9 || math.Abs(lng+0.1278) > 1e-9 {
		t.Errorf("expected (51.5074, -0.1278), got (%f, %f)", lat, lng)
	}
}

func TestCenter_Polygon(t *testing.T) {
	ann, _ := New("ann-1", testScope(t), "", []byte(polygonJSON), 3, 0)
	lat, lng, err := ann.Center()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(lat-1) > 1e-9 || math.Abs(lng-2) > 1e-9 {
		t.Errorf("expected bbox midpoint (1, 2), got (%f, %f)", lat, lng)
	}
}

func TestParseGeometry_Types(t *testing.T) {
	for _, payload := range []string{pointJSON, polygonJSON, lineJSON} {
		if _, err := ParseGeometry([]byte(payload)); err != nil {
			t.Errorf("payload %s: unexpected error %v", payload, err)
		}
	}
}

func TestParseGeometry_FeatureUnwrapped(t *testing.T) {
	g, err := ParseGeometry([]byte(featureJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := g.(*geom.Point)
	if !ok {
		t.Fatalf("expected *geom.Point, got %T", g)
	}
	if p.X() != 137.4 || p.Y() != -4.6 {
		t.Errorf("unexpected coordinates (%f, %f)", p.X(), p.Y())
	}
}

func TestParseGeometry_Rejected(t *testing.T) {
	cases := []string{
		"",
		"not json",
		`{"type":"MultiPolygon","coordinates":[]}`,
		`{"type":"GeometryCollection","geometries":[]}`,
	}
	for _, payload := range cases {
		_, err := ParseGeometry([]byte(payload))
		if !errors.Is(err, domain.ErrInvalidGeometry) {
			t.Errorf("payload %q: expected ErrInvalidGeometry, got %v", payload, err)
		}
	}
}
