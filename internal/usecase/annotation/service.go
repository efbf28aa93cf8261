// Package annotation implements annotation lifecycle operations.
package annotation

import (
	"context"
	"fmt"
	"time"

	"github.com/anveshak/tilesearch/internal/domain"
	domann "github.com/anveshak/tilesearch/internal/domain/annotation"
)

// Service handles annotation create, read, relabel and delete.
type Service struct {
	repo     Repository
	vectors  VectorCache
	sessions SessionStore
	now      func() time.Time
}

// New creates an annotation service.
func New(repo Repository, vectors VectorCache, sessions SessionStore) *Service {
	return &Service{repo: repo, vectors: vectors, sessions: sessions, now: time.Now}
}

// CreateInput carries the client-supplied annotation attributes.
type CreateInput struct {
	ID          string
	Scope       domain.Scope
	Label       string
	GeoJSON     []byte
	ZoomCreated int
}

// Create validates and stores a new annotation.
func (s *Service) Create(ctx context.Context, in CreateInput) (domann.Annotation, error) {
	ann, err := domann.New(in.ID, in.Scope, in.Label, in.GeoJSON, in.ZoomCreated, s.now().UnixMilli())
	if err != nil {
		return domann.Annotation{}, err
	}
	if err := s.repo.Create(ctx, ann); err != nil {
		return domann.Annotation{}, fmt.Errorf("create annotation: %w", err)
	}
	return ann, nil
}

// Get retrieves an annotation by id.
func (s *Service) Get(ctx context.Context, id string) (domann.Annotation, error) {
	return s.repo.Get(ctx, id)
}

// List returns the annotations within the scope, oldest first.
func (s *Service) List(ctx context.Context, scope domain.Scope) ([]domann.Annotation, error) {
	return s.repo.List(ctx, scope)
}

// UpdateLabel replaces the label of an existing annotation. The geometry
// is immutable, so the cached vector stays valid.
func (s *Service) UpdateLabel(ctx context.Context, id, label string) (domann.Annotation, error) {
	ann, err := s.repo.Get(ctx, id)
	if err != nil {
		return domann.Annotation{}, err
	}
	updated := ann.WithLabel(label)
	if err := s.repo.Update(ctx, updated); err != nil {
		return domann.Annotation{}, fmt.Errorf("update annotation: %w", err)
	}
	return updated, nil
}

// Delete removes an annotation together with its cached vector and any
// search session. Deleting a missing annotation is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	if err := s.vectors.DeleteAnnotationVector(ctx, id); err != nil {
		return fmt.Errorf("delete annotation vector: %w", err)
	}
	s.sessions.Forget(id)
	return nil
}
