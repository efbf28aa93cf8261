package sdk

import "encoding/json"

// SimilarTile is one search hit: a tile address and its score in [0, 1].
type SimilarTile struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Z     int     `json:"z"`
	Score float64 `json:"score"`
}

// AnnotationMatch is one hit of an annotation-to-annotation search.
type AnnotationMatch struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Annotation is the wire representation of a stored annotation.
type Annotation struct {
	ID          string          `json:"id"`
	Dataset     string          `json:"dataset"`
	Footprint   string          `json:"footprint,omitempty"`
	Label       string          `json:"label,omitempty"`
	GeoJSON     json.RawMessage `json:"geojson"`
	ZoomCreated int             `json:"zoom_created"`
	CreatedAt   int64           `json:"created_at,omitempty"`
}

// SimilarRequest asks for the first-stage search at a single zoom.
type SimilarRequest struct {
	AnnotationID string          `json:"annotation_id"`
	Dataset      string          `json:"dataset"`
	Footprint    string          `json:"footprint,omitempty"`
	GeoJSON      json.RawMessage `json:"geojson,omitempty"`
	Zoom         int             `json:"zoom"`
	TopK         int             `json:"top_k,omitempty"`
}

// MoreRequest asks for the deepening search over remaining zooms.
type MoreRequest struct {
	AnnotationID string          `json:"annotation_id"`
	GeoJSON      json.RawMessage `json:"geojson,omitempty"`
	ExcludeZooms []int           `json:"exclude_zooms,omitempty"`
	TopK         int             `json:"top_k,omitempty"`
}

// Bounds is a geographic bounding box in degrees.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// DatasetBounds is the GET /datasets/{dataset}/bounds response.
type DatasetBounds struct {
	Bounds
	Zooms []int `json:"zooms"`
}

// Footprint is one downloaded footprint of a dataset.
type Footprint struct {
	Footprint string `json:"footprint"`
	Bounds    Bounds `json:"bounds"`
	Zooms     []int  `json:"zooms"`
	TileCount int    `json:"tile_count"`
}

// IngestStatus is a point-in-time snapshot of an ingestion job.
type IngestStatus struct {
	JobID      string  `json:"job_id"`
	Dataset    string  `json:"dataset"`
	Footprint  string  `json:"footprint,omitempty"`
	State      string  `json:"state"`
	TilesRead  int     `json:"tiles_read"`
	Error      string  `json:"error,omitempty"`
	StartedAt  int64   `json:"started_at"`
	FinishedAt int64   `json:"finished_at,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}
