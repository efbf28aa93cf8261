// Package search orchestrates the staged similarity search flow: an
// initial single-zoom search followed by deepening across the remaining
// zoom levels of the dataset.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anveshak/tilesearch/internal/domain"
	"github.com/anveshak/tilesearch/internal/domain/geo"
	"github.com/anveshak/tilesearch/internal/domain/search/request"
	"github.com/anveshak/tilesearch/internal/domain/search/result"
	"github.com/anveshak/tilesearch/internal/metrics"
)

// DefaultDeepenConcurrency bounds parallel per-zoom queries in a deepen.
const DefaultDeepenConcurrency = 4

// Service handles staged tile similarity search.
type Service struct {
	index       Index
	datasets    DatasetReader
	annotations AnnotationReader
	vectors     VectorCache
	tiles       TileReader
	extractor   domain.Extractor
	sessions    *Sessions
	concurrency int
	logger      *zap.Logger
}

// New creates a search service. concurrency bounds the deepen fan-out;
// values below 1 fall back to DefaultDeepenConcurrency.
func New(
	index Index,
	datasets DatasetReader,
	annotations AnnotationReader,
	vectors VectorCache,
	tiles TileReader,
	extractor domain.Extractor,
	sessions *Sessions,
	concurrency int,
	logger *zap.Logger,
) *Service {
	if concurrency < 1 {
		concurrency = DefaultDeepenConcurrency
	}
	return &Service{
		index:       index,
		datasets:    datasets,
		annotations: annotations,
		vectors:     vectors,
		tiles:       tiles,
		extractor:   extractor,
		sessions:    sessions,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Sessions exposes the session store for lifecycle invalidation.
func (s *Service) Sessions() *Sessions { return s.sessions }

// InitialSearch runs the first-stage search: resolve the annotation
// vector and query the partition at the drawn zoom. A new session
// replaces any previous one for the annotation.
func (s *Service) InitialSearch(ctx context.Context, req *request.Initial) ([]result.SimilarTile, error) {
	start := time.Now()
	tiles, err := s.initialSearch(ctx, req)
	observeSearch("initial", start, err)
	return tiles, err
}

func (s *Service) initialSearch(ctx context.Context, req *request.Initial) ([]result.SimilarTile, error) {
	ann, err := s.annotations.Get(ctx, req.AnnotationID())
	if err != nil {
		return nil, err
	}

	ds, err := s.datasets.Get(ctx, req.Scope())
	if err != nil {
		return nil, err
	}
	if !ds.HasZoom(req.Zoom()) {
		return nil, domain.NewPartitionNotFound(req.Scope(), req.Zoom())
	}

	geojson := req.GeoJSON()
	if len(geojson) == 0 {
		geojson = ann.GeoJSON()
	}
	vec, err := s.annotationVector(ctx, req.AnnotationID(), req.Scope(), geojson)
	if err != nil {
		return nil, err
	}

	tiles, err := s.index.Query(ctx, req.Scope(), req.Zoom(), vec, req.TopK())
	if err != nil {
		return nil, err
	}

	s.sessions.StartInitial(req.AnnotationID(), req.Scope(), req.Zoom())
	return tiles, nil
}

// DeepenSearch runs the second stage: query every remaining zoom level of
// the session's dataset in parallel and merge by score. Zoom levels named
// in exclude_zooms or already searched by this session are skipped.
// Requires a prior InitialSearch for the annotation.
func (s *Service) DeepenSearch(ctx context.Context, req *request.Deepen) ([]result.SimilarTile, error) {
	start := time.Now()
	tiles, err := s.deepenSearch(ctx, req)
	observeSearch("deepen", start, err)
	return tiles, err
}

func (s *Service) deepenSearch(ctx context.Context, req *request.Deepen) ([]result.SimilarTile, error) {
	// The scope is pinned by the session; resolve it before claiming zooms.
	scope, ok := s.sessions.Scope(req.AnnotationID())
	if !ok {
		return nil, domain.ErrSearchNotStarted
	}

	ds, err := s.datasets.Get(ctx, scope)
	if err != nil {
		return nil, err
	}

	remaining, err := s.sessions.ClaimRemaining(req.AnnotationID(), ds.Zooms(), req.ExcludeZooms())
	if err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		return []result.SimilarTile{}, nil
	}

	ann, err := s.annotations.Get(ctx, req.AnnotationID())
	if err != nil {
		s.sessions.Unclaim(req.AnnotationID(), remaining)
		return nil, err
	}
	geojson := req.GeoJSON()
	if len(geojson) == 0 {
		geojson = ann.GeoJSON()
	}
	vec, err := s.annotationVector(ctx, req.AnnotationID(), scope, geojson)
	if err != nil {
		s.sessions.Unclaim(req.AnnotationID(), remaining)
		return nil, err
	}

	sets := make([][]result.SimilarTile, len(remaining))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, zoom := range remaining {
		g.Go(func() error {
			tiles, err := s.index.Query(gctx, scope, zoom, vec, req.TopK())
			if err != nil {
				return fmt.Errorf("query zoom %d: %w", zoom, err)
			}
			sets[i] = tiles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.sessions.Unclaim(req.AnnotationID(), remaining)
		return nil, err
	}

	return mergeTiles(sets, req.TopK()), nil
}

// SimilarByPoint resolves the coordinate to its containing tile and ranks
// the partition against that tile's stored vector. The query tile itself
// is excluded from the results.
func (s *Service) SimilarByPoint(ctx context.Context, req *request.Point) ([]result.SimilarTile, error) {
	start := time.Now()
	tiles, err := s.similarByPoint(ctx, req)
	observeSearch("point", start, err)
	return tiles, err
}

func (s *Service) similarByPoint(ctx context.Context, req *request.Point) ([]result.SimilarTile, error) {
	if _, err := s.datasets.Get(ctx, req.Scope()); err != nil {
		return nil, err
	}

	x, y := geo.TileAt(req.Lat(), req.Lng(), req.Zoom())
	vec, err := s.tiles.TileVector(ctx, req.Scope(), req.Zoom(), x, y)
	if err != nil {
		return nil, err
	}

	// Fetch one extra so dropping the query tile still fills topK.
	tiles, err := s.index.Query(ctx, req.Scope(), req.Zoom(), vec, req.TopK()+1)
	if err != nil {
		return nil, err
	}

	out := tiles[:0]
	for _, t := range tiles {
		if t.X == x && t.Y == y && t.Z == req.Zoom() {
			continue
		}
		out = append(out, t)
	}
	if len(out) > req.TopK() {
		out = out[:req.TopK()]
	}
	return out, nil
}

// SimilarAnnotations ranks the dataset's other annotations against the
// given one by cosine similarity of their cached vectors. Annotations
// with no cached vector yet are skipped rather than extracted on demand.
func (s *Service) SimilarAnnotations(ctx context.Context, id string, topK int) ([]result.AnnotationMatch, error) {
	start := time.Now()
	matches, err := s.similarAnnotations(ctx, id, topK)
	observeSearch("annotation", start, err)
	return matches, err
}

func (s *Service) similarAnnotations(ctx context.Context, id string, topK int) ([]result.AnnotationMatch, error) {
	if topK <= 0 {
		topK = request.DefaultTopK
	}

	ann, err := s.annotations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	vec, err := s.annotationVector(ctx, id, ann.Scope(), ann.GeoJSON())
	if err != nil {
		return nil, err
	}

	datasetScope, err := domain.NewScope(ann.Scope().Dataset(), "")
	if err != nil {
		return nil, err
	}
	others, err := s.annotations.List(ctx, datasetScope)
	if err != nil {
		return nil, err
	}

	matches := make([]result.AnnotationMatch, 0, len(others))
	for _, other := range others {
		if other.ID() == id {
			continue
		}
		otherVec, err := s.vectors.CachedAnnotationVector(ctx, other.ID())
		if err != nil {
			continue
		}
		score, err := domain.CosineScore(vec, otherVec)
		if err != nil {
			s.logger.Warn("skipping annotation with mismatched vector",
				zap.String("annotation_id", other.ID()), zap.Error(err))
			continue
		}
		matches = append(matches, result.AnnotationMatch{ID: other.ID(), Score: score})
	}

	result.SortMatches(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// annotationVector returns the annotation's vector, extracting and
// caching it on first use.
func (s *Service) annotationVector(ctx context.Context, id string, scope domain.Scope, geojson []byte) ([]float32, error) {
	return s.vectors.GetOrComputeAnnotationVector(ctx, id, func(ctx context.Context) ([]float32, error) {
		res, err := s.extractor.Extract(ctx, domain.ExtractInput{
			AnnotationID: id,
			Scope:        scope,
			GeoJSON:      geojson,
		})
		if err != nil {
			return nil, err
		}
		return res.Vector, nil
	})
}

func observeSearch(kind string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchesTotal.WithLabelValues(kind, status).Inc()
	metrics.SearchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
