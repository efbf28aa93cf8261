package search

import (
	"context"

	"github.com/anveshak/tilesearch/internal/domain"
	domann "github.com/anveshak/tilesearch/internal/domain/annotation"
	domds "github.com/anveshak/tilesearch/internal/domain/dataset"
	"github.com/anveshak/tilesearch/internal/domain/search/result"
)

// Index answers top-k queries against per-(scope, zoom) partitions.
type Index interface {
	Query(ctx context.Context, scope domain.Scope, zoom int, vec []float32, topK int) ([]result.SimilarTile, error)
}

// DatasetReader reads dataset records for zoom availability checks.
type DatasetReader interface {
	Get(ctx context.Context, scope domain.Scope) (domds.Dataset, error)
}

// AnnotationReader reads annotations for query resolution.
type AnnotationReader interface {
	Get(ctx context.Context, id string) (domann.Annotation, error)
	List(ctx context.Context, scope domain.Scope) ([]domann.Annotation, error)
}

// VectorCache is the lazily computed annotation vector store.
type VectorCache interface {
	GetOrComputeAnnotationVector(ctx context.Context, id string, compute func(ctx context.Context) ([]float32, error)) ([]float32, error)
	CachedAnnotationVector(ctx context.Context, id string) ([]float32, error)
}

// TileReader reads a single stored tile vector (point queries).
type TileReader interface {
	TileVector(ctx context.Context, scope domain.Scope, zoom, x, y int) ([]float32, error)
}
