package sdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// SearchService runs similarity searches.
type SearchService struct {
	c *Client
}

// Similar runs the first-stage search at the request's zoom level.
func (s *SearchService) Similar(ctx context.Context, req SimilarRequest) ([]SimilarTile, error) {
	var out struct {
		SimilarTiles []SimilarTile `json:"similar_tiles"`
	}
	err := s.c.do(ctx, http.MethodPost, "/annotations/similar", nil, req, &out)
	return out.SimilarTiles, err
}

// More deepens a previous Similar call across the remaining zoom levels.
// The server rejects it with ErrBadRequest when no Similar call preceded.
func (s *SearchService) More(ctx context.Context, req MoreRequest) ([]SimilarTile, error) {
	var out struct {
		SimilarTiles []SimilarTile `json:"similar_tiles"`
	}
	err := s.c.do(ctx, http.MethodPost, "/annotations/similar/more", nil, req, &out)
	return out.SimilarTiles, err
}

// SimilarAnnotations ranks the dataset's other annotations against the
// given one.
func (s *SearchService) SimilarAnnotations(ctx context.Context, id string, topK int) ([]AnnotationMatch, error) {
	q := url.Values{}
	if topK > 0 {
		q.Set("top_k", strconv.Itoa(topK))
	}
	var out struct {
		Similar []AnnotationMatch `json:"similar"`
	}
	err := s.c.do(ctx, http.MethodGet, "/annotations/"+url.PathEscape(id)+"/similar", q, nil, &out)
	return out.Similar, err
}

// SimilarByPoint ranks a dataset's tiles against the tile containing the
// coordinate.
func (s *SearchService) SimilarByPoint(ctx context.Context, dataset, footprint string, lat, lng float64, zoom, topK int) ([]SimilarTile, error) {
	q := url.Values{
		"lat":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng":  {strconv.FormatFloat(lng, 'f', -1, 64)},
		"zoom": {strconv.Itoa(zoom)},
	}
	if footprint != "" {
		q.Set("footprint", footprint)
	}
	if topK > 0 {
		q.Set("top_k", strconv.Itoa(topK))
	}
	var out struct {
		SimilarTiles []SimilarTile `json:"similar_tiles"`
	}
	err := s.c.do(ctx, http.MethodGet, "/tiles/"+url.PathEscape(dataset)+"/similar", q, nil, &out)
	return out.SimilarTiles, err
}
