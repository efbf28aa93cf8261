package index

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/anveshak/tilesearch/internal/domain"
	"github.com/anveshak/tilesearch/internal/domain/search/result"
	"github.com/anveshak/tilesearch/internal/metrics"
)

// TileVector is a tile's stored feature vector, as loaded from the
// feature store during a rebuild.
type TileVector struct {
	X      int
	Y      int
	Vector []float32
}

// VectorSource loads all tile vectors of a (scope, zoom) partition (ISP).
type VectorSource interface {
	TileVectors(ctx context.Context, scope domain.Scope, zoom int) ([]TileVector, error)
}

// partitionRef holds the swappable snapshot for one (scope, zoom).
// The snapshot pointer is nil while the first build is in progress.
type partitionRef struct {
	snap atomic.Pointer[Partition]
}

// Manager owns all index partitions. Queries read the current snapshot;
// RebuildPartition builds a replacement off to the side and swaps it in,
// so in-flight queries always complete against a consistent snapshot.
type Manager struct {
	source VectorSource
	logger *zap.Logger

	mu    sync.RWMutex
	parts map[string]*partitionRef
}

// NewManager creates an index manager over the given vector source.
func NewManager(source VectorSource, logger *zap.Logger) *Manager {
	return &Manager{
		source: source,
		logger: logger,
		parts:  make(map[string]*partitionRef),
	}
}

func partitionKey(scope domain.Scope, zoom int) string {
	return scope.String() + ":z" + strconv.Itoa(zoom)
}

// Query runs an exact top-k search against the (scope, zoom) partition.
// Returns ErrPartitionNotFound when the partition was never built and
// ErrIndexUnavailable when a first build is still in progress.
func (m *Manager) Query(ctx context.Context, scope domain.Scope, zoom int, vec []float32, topK int) ([]result.SimilarTile, error) {
	m.mu.RLock()
	ref, ok := m.parts[partitionKey(scope, zoom)]
	m.mu.RUnlock()

	if !ok {
		return nil, domain.NewPartitionNotFound(scope, zoom)
	}

	snap := ref.snap.Load()
	if snap == nil {
		return nil, fmt.Errorf("%w: %s zoom %d mid-build", domain.ErrIndexUnavailable, scope, zoom)
	}

	hits, err := snap.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("query %s z%d: %w", scope, zoom, err)
	}
	return hits, nil
}

// RebuildPartition reloads the (scope, zoom) tile vectors and atomically
// swaps the snapshot. Idempotent and safe to call at any time; concurrent
// queries keep using the previous snapshot until the swap.
func (m *Manager) RebuildPartition(ctx context.Context, scope domain.Scope, zoom int) error {
	key := partitionKey(scope, zoom)

	m.mu.Lock()
	ref, ok := m.parts[key]
	if !ok {
		ref = &partitionRef{}
		m.parts[key] = ref
	}
	m.mu.Unlock()

	tiles, err := m.source.TileVectors(ctx, scope, zoom)
	if err != nil {
		metrics.PartitionRebuildsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("load vectors %s z%d: %w", scope, zoom, err)
	}

	dim := 0
	if len(tiles) > 0 {
		dim = len(tiles[0].Vector)
	}
	entries := make([]Entry, len(tiles))
	for i, t := range tiles {
		entries[i] = Entry{X: t.X, Y: t.Y, Vector: t.Vector}
	}

	part, err := NewPartition(scope, zoom, dim, entries)
	if err != nil {
		metrics.PartitionRebuildsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("build partition %s z%d: %w", scope, zoom, err)
	}

	ref.snap.Store(part)
	metrics.PartitionRebuildsTotal.WithLabelValues("success").Inc()
	metrics.PartitionSize.WithLabelValues(scope.String(), strconv.Itoa(zoom)).Set(float64(part.Size()))

	m.logger.Info("index partition rebuilt",
		zap.String("scope", scope.String()),
		zap.Int("zoom", zoom),
		zap.Int("tiles", part.Size()),
	)
	return nil
}

// HasPartition reports whether a queryable snapshot exists.
func (m *Manager) HasPartition(scope domain.Scope, zoom int) bool {
	m.mu.RLock()
	ref, ok := m.parts[partitionKey(scope, zoom)]
	m.mu.RUnlock()
	return ok && ref.snap.Load() != nil
}

// PartitionSize returns the snapshot size, or 0 when absent.
func (m *Manager) PartitionSize(scope domain.Scope, zoom int) int {
	m.mu.RLock()
	ref, ok := m.parts[partitionKey(scope, zoom)]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	snap := ref.snap.Load()
	if snap == nil {
		return 0
	}
	return snap.Size()
}
