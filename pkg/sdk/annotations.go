package sdk

import (
	"context"
	"net/http"
	"net/url"
)

// AnnotationService manages annotations.
type AnnotationService struct {
	c *Client
}

// Create stores a new annotation. ID must be unique; the server rejects
// duplicates with ErrConflict.
func (s *AnnotationService) Create(ctx context.Context, ann Annotation) error {
	return s.c.do(ctx, http.MethodPost, "/annotations", nil, ann, nil)
}

// Get retrieves an annotation by id.
func (s *AnnotationService) Get(ctx context.Context, id string) (Annotation, error) {
	var out Annotation
	err := s.c.do(ctx, http.MethodGet, "/annotations/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// List returns the annotations of a dataset, optionally narrowed to one
// footprint, oldest first. The server responds with a bare JSON array.
func (s *AnnotationService) List(ctx context.Context, dataset, footprint string) ([]Annotation, error) {
	q := url.Values{"dataset": {dataset}}
	if footprint != "" {
		q.Set("footprint", footprint)
	}
	var out []Annotation
	err := s.c.do(ctx, http.MethodGet, "/annotations", q, nil, &out)
	return out, err
}

// UpdateLabel replaces an annotation's label and returns the updated
// annotation.
func (s *AnnotationService) UpdateLabel(ctx context.Context, id, label string) (Annotation, error) {
	body := map[string]string{"label": label}
	var out struct {
		Annotation Annotation `json:"annotation"`
	}
	err := s.c.do(ctx, http.MethodPut, "/annotations/"+url.PathEscape(id), nil, body, &out)
	return out.Annotation, err
}

// Delete removes an annotation. Deleting a missing annotation succeeds.
func (s *AnnotationService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, "/annotations/"+url.PathEscape(id), nil, nil, nil)
}
