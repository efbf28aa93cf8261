// Package feature implements the feature store: precomputed tile vectors
// keyed by (scope, zoom, x, y) and a lazily computed, single-flight
// annotation vector cache.
package feature

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/anveshak/tilesearch/internal/db"
	"github.com/anveshak/tilesearch/internal/domain"
	"github.com/anveshak/tilesearch/internal/index"
	"github.com/anveshak/tilesearch/internal/metrics"
)

// store is the consumer interface for feature persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// TileFeature is one ingested tile vector with its byte-size estimate.
type TileFeature struct {
	X        int
	Y        int
	Vector   []float32
	ByteSize int64
}

// Repo is the feature store over a db.Store.
type Repo struct {
	store  store
	prefix string
	flight singleflight.Group
	logger *zap.Logger
}

// New creates a feature repository. prefix namespaces all keys.
func New(s store, prefix string, logger *zap.Logger) *Repo {
	return &Repo{store: s, prefix: prefix, logger: logger}
}

func (r *Repo) tileKey(scope domain.Scope, zoom, x, y int) string {
	return fmt.Sprintf("%stile:%s:z%d:%d:%d", r.prefix, scope, zoom, x, y)
}

func (r *Repo) tilePattern(scope domain.Scope, zoom int) string {
	return fmt.Sprintf("%stile:%s:z%d:*", r.prefix, scope, zoom)
}

func (r *Repo) annotationKey(id string) string {
	return r.prefix + "annvec:" + id
}

// PutTileVectors stores a batch of tile vectors for one (scope, zoom).
// Vectors are unit-normalized before persisting; writes are append-only
// per tile (re-ingestion overwrites with identical content).
func (r *Repo) PutTileVectors(ctx context.Context, scope domain.Scope, zoom int, tiles []TileFeature) error {
	items := make([]db.HashSetItem, len(tiles))
	for i, t := range tiles {
		if err := domain.ValidateDim(t.Vector, 0); err != nil {
			return fmt.Errorf("tile %d/%d/%d: %w", zoom, t.X, t.Y, err)
		}
		items[i] = db.HashSetItem{
			Key: r.tileKey(scope, zoom, t.X, t.Y),
			Fields: map[string]string{
				fieldVector: string(vectorToBytes(domain.Normalize(t.Vector))),
				fieldBytes:  strconv.FormatInt(t.ByteSize, 10),
			},
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("put tile vectors %s z%d: %w", scope, zoom, err)
	}
	return nil
}

// TileVector returns the stored vector for one tile.
func (r *Repo) TileVector(ctx context.Context, scope domain.Scope, zoom, x, y int) ([]float32, error) {
	fields, err := r.store.HGetAll(ctx, r.tileKey(scope, zoom, x, y))
	if err != nil {
		return nil, fmt.Errorf("get tile %s %d/%d/%d: %w", scope, zoom, x, y, err)
	}
	raw, ok := fields[fieldVector]
	if !ok {
		return nil, fmt.Errorf("%w: %s tile %d/%d/%d", domain.ErrTileNotFound, scope, zoom, x, y)
	}
	vec, err := bytesToVector([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parse tile %s %d/%d/%d: %w", scope, zoom, x, y, err)
	}
	return vec, nil
}

// TileVectors loads every stored vector of a (scope, zoom) partition.
// Implements index.VectorSource for partition rebuilds.
func (r *Repo) TileVectors(ctx context.Context, scope domain.Scope, zoom int) ([]index.TileVector, error) {
	keys, err := r.store.Scan(ctx, r.tilePattern(scope, zoom))
	if err != nil {
		return nil, fmt.Errorf("scan tiles %s z%d: %w", scope, zoom, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load tiles %s z%d: %w", scope, zoom, err)
	}

	out := make([]index.TileVector, 0, len(keys))
	for i, key := range keys {
		x, y, err := parseTileKey(key)
		if err != nil {
			r.logger.Warn("skipping malformed tile key", zap.String("key", key), zap.Error(err))
			continue
		}
		raw, ok := hashes[i][fieldVector]
		if !ok {
			continue
		}
		vec, err := bytesToVector([]byte(raw))
		if err != nil {
			r.logger.Warn("skipping corrupt tile vector", zap.String("key", key), zap.Error(err))
			continue
		}
		out = append(out, index.TileVector{X: x, Y: y, Vector: vec})
	}
	return out, nil
}

// parseTileKey extracts (x, y) from the trailing ":{x}:{y}" of a tile key.
func parseTileKey(key string) (x, y int, err error) {
	parts := strings.Split(key, ":")
	if len(parts) < 3 {
		return 0, 0, fmt.Errorf("malformed tile key %q", key)
	}
	x, errX := strconv.Atoi(parts[len(parts)-2])
	y, errY := strconv.Atoi(parts[len(parts)-1])
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("malformed tile key %q", key)
	}
	return x, y, nil
}

// GetOrComputeAnnotationVector returns the cached annotation vector or
// computes it via compute. Concurrent calls for the same id coalesce to
// a single computation; the computed vector is cached even when the
// triggering request is cancelled afterwards.
func (r *Repo) GetOrComputeAnnotationVector(
	ctx context.Context,
	id string,
	compute func(ctx context.Context) ([]float32, error),
) ([]float32, error) {
	if vec, ok := r.cachedVector(ctx, id); ok {
		metrics.VectorCacheTotal.WithLabelValues("hit").Inc()
		return vec, nil
	}

	metrics.VectorCacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := r.flight.Do(id, func() (any, error) {
		// Another flight may have cached it between the miss and here.
		if vec, ok := r.cachedVector(ctx, id); ok {
			return vec, nil
		}

		vec, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		vec = domain.Normalize(vec)

		// Cache writes survive request cancellation: the computation is
		// already paid for and the cache is idempotent.
		if err := r.store.Set(context.WithoutCancel(ctx), r.annotationKey(id), vectorToBytes(vec)); err != nil {
			r.logger.Warn("failed to cache annotation vector", zap.String("annotation_id", id), zap.Error(err))
		}
		return vec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("compute annotation vector %s: %w", id, err)
	}
	return v.([]float32), nil
}

// CachedAnnotationVector returns the cached vector without computing.
func (r *Repo) CachedAnnotationVector(ctx context.Context, id string) ([]float32, error) {
	vec, ok := r.cachedVector(ctx, id)
	if !ok {
		return nil, fmt.Errorf("%w: no cached vector for annotation %s", domain.ErrAnnotationNotFound, id)
	}
	return vec, nil
}

// DeleteAnnotationVector removes the cached vector. Idempotent.
func (r *Repo) DeleteAnnotationVector(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.annotationKey(id)); err != nil {
		return fmt.Errorf("delete annotation vector %s: %w", id, err)
	}
	return nil
}

func (r *Repo) cachedVector(ctx context.Context, id string) ([]float32, bool) {
	data, err := r.store.Get(ctx, r.annotationKey(id))
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("failed to read cached annotation vector", zap.String("annotation_id", id), zap.Error(err))
		}
		return nil, false
	}
	vec, err := bytesToVector(data)
	if err != nil {
		r.logger.Warn("failed to parse cached annotation vector", zap.String("annotation_id", id), zap.Error(err))
		return nil, false
	}
	return vec, true
}
