// Package index holds the per-(scope, zoom) similarity index: immutable
// exact top-k partitions behind an atomically swappable manager.
package index

import (
	"context"
	"fmt"

	"github.com/anveshak/tilesearch/internal/domain"
	"github.com/anveshak/tilesearch/internal/domain/search/result"
)

// cancelCheckInterval is how many entries a scan processes between
// context cancellation checks.
const cancelCheckInterval = 1024

// Entry is a single tile vector inside a partition. Vectors are assumed
// unit-normalized at ingestion time.
type Entry struct {
	X      int
	Y      int
	Vector []float32
}

// Partition is an immutable snapshot of one (scope, zoom) tile set.
// Queries against a partition are lock-free; rebuilds produce a new
// partition and swap it in at the manager level.
type Partition struct {
	scope   domain.Scope
	zoom    int
	dim     int
	entries []Entry
}

// NewPartition builds a partition from ingested entries, validating that
// every vector matches the expected dimension.
func NewPartition(scope domain.Scope, zoom, dim int, entries []Entry) (*Partition, error) {
	for _, e := range entries {
		if err := domain.ValidateDim(e.Vector, dim); err != nil {
			return nil, fmt.Errorf("tile %d/%d/%d: %w", zoom, e.X, e.Y, err)
		}
	}
	return &Partition{scope: scope, zoom: zoom, dim: dim, entries: entries}, nil
}

// Scope returns the partition's dataset scope.
func (p *Partition) Scope() domain.Scope { return p.scope }

// Zoom returns the partition's zoom level.
func (p *Partition) Zoom() int { return p.zoom }

// Size returns the number of tile vectors in the partition.
func (p *Partition) Size() int { return len(p.entries) }

// Search scans the partition for the exact top-k tiles by cosine score.
// Results are ordered by score descending, ties by (z, x, y) ascending.
// The scan aborts when ctx is cancelled.
func (p *Partition) Search(ctx context.Context, vec []float32, topK int) ([]result.SimilarTile, error) {
	if err := domain.ValidateDim(vec, p.dim); err != nil {
		return nil, fmt.Errorf("query vector: %w", err)
	}
	if topK <= 0 {
		return nil, nil
	}

	hits := make([]result.SimilarTile, 0, len(p.entries))
	for i, e := range p.entries {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("partition scan %s z%d: %w", p.scope, p.zoom, err)
			}
		}
		score, err := domain.CosineScore(vec, e.Vector)
		if err != nil {
			return nil, fmt.Errorf("tile %d/%d/%d: %w", p.zoom, e.X, e.Y, err)
		}
		hits = append(hits, result.SimilarTile{X: e.X, Y: e.Y, Z: p.zoom, Score: score})
	}

	result.SortTiles(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}
