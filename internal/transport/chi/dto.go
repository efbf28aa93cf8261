package chi

import (
	"encoding/json"

	domann "github.com/anveshak/tilesearch/internal/domain/annotation"
	domds "github.com/anveshak/tilesearch/internal/domain/dataset"
	"github.com/anveshak/tilesearch/internal/domain/search/result"
)

// errorResponse is the wire shape of every error: a single detail string.
type errorResponse struct {
	Detail string `json:"detail"`
}

type statusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

// initialSearchRequest is the POST /annotations/similar body.
type initialSearchRequest struct {
	AnnotationID string          `json:"annotation_id"`
	Dataset      string          `json:"dataset"`
	Footprint    string          `json:"footprint,omitempty"`
	GeoJSON      json.RawMessage `json:"geojson,omitempty"`
	Zoom         int             `json:"zoom"`
	TopK         int             `json:"top_k,omitempty"`
}

// deepenSearchRequest is the POST /annotations/similar/more body.
type deepenSearchRequest struct {
	AnnotationID string          `json:"annotation_id"`
	GeoJSON      json.RawMessage `json:"geojson,omitempty"`
	ExcludeZooms []int           `json:"exclude_zooms,omitempty"`
	TopK         int             `json:"top_k,omitempty"`
}

type similarTilesResponse struct {
	SimilarTiles []result.SimilarTile `json:"similar_tiles"`
}

type similarAnnotationsResponse struct {
	Similar []result.AnnotationMatch `json:"similar"`
}

// createAnnotationRequest is the POST /annotations body.
type createAnnotationRequest struct {
	ID          string          `json:"id"`
	Dataset     string          `json:"dataset"`
	Footprint   string          `json:"footprint,omitempty"`
	Label       string          `json:"label,omitempty"`
	GeoJSON     json.RawMessage `json:"geojson"`
	ZoomCreated int             `json:"zoom_created"`
}

// updateAnnotationRequest is the PUT /annotations/{id} body.
type updateAnnotationRequest struct {
	Label string `json:"label"`
}

type annotationResponse struct {
	ID          string          `json:"id"`
	Dataset     string          `json:"dataset"`
	Footprint   string          `json:"footprint,omitempty"`
	Label       string          `json:"label"`
	GeoJSON     json.RawMessage `json:"geojson"`
	ZoomCreated int             `json:"zoom_created"`
	CreatedAt   int64           `json:"created_at"`
}

func annotationToResponse(ann *domann.Annotation) annotationResponse {
	return annotationResponse{
		ID:          ann.ID(),
		Dataset:     ann.Scope().Dataset(),
		Footprint:   ann.Scope().Footprint(),
		Label:       ann.Label(),
		GeoJSON:     json.RawMessage(ann.GeoJSON()),
		ZoomCreated: ann.ZoomCreated(),
		CreatedAt:   ann.CreatedAt(),
	}
}

// updateAnnotationResponse echoes the relabeled annotation, matching the
// shape clients already consume.
type updateAnnotationResponse struct {
	Status     string             `json:"status"`
	Annotation annotationResponse `json:"annotation"`
}

type datasetListResponse struct {
	Datasets []string `json:"datasets"`
}

type footprintResponse struct {
	Footprint string       `json:"footprint"`
	Bounds    domds.Bounds `json:"bounds"`
	Zooms     []int        `json:"zooms"`
	TileCount int          `json:"tile_count"`
}

type footprintListResponse struct {
	Footprints []footprintResponse `json:"footprints"`
}

type boundsResponse struct {
	domds.Bounds
	Zooms []int `json:"zooms"`
}

// ingestRequest is the POST /ingest body.
type ingestRequest struct {
	Dataset   string `json:"dataset"`
	Footprint string `json:"footprint,omitempty"`
}

// ingestCancelRequest is the POST /ingest/cancel body.
type ingestCancelRequest struct {
	JobID string `json:"job_id"`
}
