package ingest

import (
	"context"

	"github.com/anveshak/tilesearch/internal/domain"
	domds "github.com/anveshak/tilesearch/internal/domain/dataset"
	"github.com/anveshak/tilesearch/internal/repository/feature"
)

// FeatureWriter persists batches of tile vectors.
type FeatureWriter interface {
	PutTileVectors(ctx context.Context, scope domain.Scope, zoom int, tiles []feature.TileFeature) error
}

// DatasetWriter registers ingested scope metadata.
type DatasetWriter interface {
	Put(ctx context.Context, ds domds.Dataset) error
}

// IndexRebuilder rebuilds index partitions after ingestion.
type IndexRebuilder interface {
	RebuildPartition(ctx context.Context, scope domain.Scope, zoom int) error
}
