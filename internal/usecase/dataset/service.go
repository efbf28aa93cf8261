// Package dataset exposes the catalog of ingested scopes.
package dataset

import (
	"context"

	"github.com/anveshak/tilesearch/internal/domain"
	domds "github.com/anveshak/tilesearch/internal/domain/dataset"
)

// Service answers catalog queries: known datasets, their footprints and
// the covered bounds.
type Service struct {
	repo Repository
}

// New creates a dataset catalog service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Datasets returns the distinct dataset names.
func (s *Service) Datasets(ctx context.Context) ([]string, error) {
	return s.repo.Datasets(ctx)
}

// Footprints returns the footprint records under a dataset.
func (s *Service) Footprints(ctx context.Context, dataset string) ([]domds.Dataset, error) {
	return s.repo.Footprints(ctx, dataset)
}

// Get returns the record for one scope.
func (s *Service) Get(ctx context.Context, scope domain.Scope) (domds.Dataset, error) {
	return s.repo.Get(ctx, scope)
}
