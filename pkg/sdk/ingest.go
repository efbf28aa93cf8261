package sdk

import (
	"context"
	"net/http"
	"net/url"
)

// IngestService controls server-side feature-file ingestion.
type IngestService struct {
	c *Client
}

// Start launches an ingestion job for a scope. Returns ErrConflict when
// the scope already has a running job.
func (s *IngestService) Start(ctx context.Context, dataset, footprint string) (IngestStatus, error) {
	body := map[string]string{"dataset": dataset}
	if footprint != "" {
		body["footprint"] = footprint
	}
	var out IngestStatus
	err := s.c.do(ctx, http.MethodPost, "/ingest", nil, body, &out)
	return out, err
}

// Cancel requests cancellation of a running job.
func (s *IngestService) Cancel(ctx context.Context, jobID string) (IngestStatus, error) {
	var out IngestStatus
	err := s.c.do(ctx, http.MethodPost, "/ingest/cancel", nil, map[string]string{"job_id": jobID}, &out)
	return out, err
}

// Status returns the snapshot of a job by id.
func (s *IngestService) Status(ctx context.Context, jobID string) (IngestStatus, error) {
	q := url.Values{"job_id": {jobID}}
	var out IngestStatus
	err := s.c.do(ctx, http.MethodGet, "/ingest/status", q, nil, &out)
	return out, err
}
