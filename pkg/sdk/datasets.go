package sdk

import (
	"context"
	"net/http"
	"net/url"
)

// DatasetService queries the catalog of ingested datasets.
type DatasetService struct {
	c *Client
}

// List returns the known dataset names.
func (s *DatasetService) List(ctx context.Context) ([]string, error) {
	var out struct {
		Datasets []string `json:"datasets"`
	}
	err := s.c.do(ctx, http.MethodGet, "/datasets", nil, nil, &out)
	return out.Datasets, err
}

// Footprints returns the downloaded footprints of a dataset.
func (s *DatasetService) Footprints(ctx context.Context, dataset string) ([]Footprint, error) {
	var out struct {
		Footprints []Footprint `json:"footprints"`
	}
	err := s.c.do(ctx, http.MethodGet, "/datasets/"+url.PathEscape(dataset)+"/footprints", nil, nil, &out)
	return out.Footprints, err
}

// Bounds returns the covered bounds and ingested zooms of a scope.
func (s *DatasetService) Bounds(ctx context.Context, dataset, footprint string) (DatasetBounds, error) {
	q := url.Values{}
	if footprint != "" {
		q.Set("footprint", footprint)
	}
	var out DatasetBounds
	err := s.c.do(ctx, http.MethodGet, "/datasets/"+url.PathEscape(dataset)+"/bounds", q, nil, &out)
	return out, err
}
