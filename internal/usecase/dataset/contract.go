package dataset

import (
	"context"

	"github.com/anveshak/tilesearch/internal/domain"
	domds "github.com/anveshak/tilesearch/internal/domain/dataset"
)

// Repository defines the storage contract for the dataset catalog.
type Repository interface {
	Get(ctx context.Context, scope domain.Scope) (domds.Dataset, error)
	Datasets(ctx context.Context) ([]string, error)
	Footprints(ctx context.Context, dataset string) ([]domds.Dataset, error)
}
