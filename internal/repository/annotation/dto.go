package annotation

import (
	"fmt"
	"strconv"

	"github.com/anveshak/tilesearch/internal/domain"
	domann "github.com/anveshak/tilesearch/internal/domain/annotation"
)

// annotationToHash converts a domain Annotation to a map for HSET.
func annotationToHash(ann domann.Annotation) map[string]string {
	return map[string]string{
		"id":           ann.ID(),
		"dataset":      ann.Scope().Dataset(),
		"footprint":    ann.Scope().Footprint(),
		"label":        ann.Label(),
		"geojson":      string(ann.GeoJSON()),
		"zoom_created": strconv.Itoa(ann.ZoomCreated()),
		"created_at":   strconv.FormatInt(ann.CreatedAt(), 10),
	}
}

// annotationFromHash hydrates a domain Annotation from an HGETALL result map.
func annotationFromHash(m map[string]string) (domann.Annotation, error) {
	scope, err := domain.NewScope(m["dataset"], m["footprint"])
	if err != nil {
		return domann.Annotation{}, fmt.Errorf("invalid scope: %w", err)
	}

	zoomCreated, err := strconv.Atoi(m["zoom_created"])
	if err != nil {
		return domann.Annotation{}, fmt.Errorf("invalid zoom_created: %w", err)
	}

	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domann.Annotation{}, fmt.Errorf("invalid created_at: %w", err)
	}

	return domann.Reconstruct(m["id"], scope, m["label"], []byte(m["geojson"]), zoomCreated, createdAt), nil
}
