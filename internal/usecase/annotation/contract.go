package annotation

import (
	"context"

	"github.com/anveshak/tilesearch/internal/domain"
	domann "github.com/anveshak/tilesearch/internal/domain/annotation"
)

// Repository defines the storage contract for annotations.
type Repository interface {
	Create(ctx context.Context, ann domann.Annotation) error
	Get(ctx context.Context, id string) (domann.Annotation, error)
	Update(ctx context.Context, ann domann.Annotation) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, scope domain.Scope) ([]domann.Annotation, error)
}

// VectorCache invalidates cached annotation vectors.
type VectorCache interface {
	DeleteAnnotationVector(ctx context.Context, id string) error
}

// SessionStore forgets search sessions for removed annotations.
type SessionStore interface {
	Forget(id string)
}
