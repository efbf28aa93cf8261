// Package ingest loads precomputed tile feature files into the feature
// store and rebuilds the affected index partitions.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anveshak/tilesearch/internal/domain"
	domds "github.com/anveshak/tilesearch/internal/domain/dataset"
	"github.com/anveshak/tilesearch/internal/domain/geo"
	"github.com/anveshak/tilesearch/internal/repository/feature"
)

const (
	// DefaultWorkers bounds parallel feature-store writes per job.
	DefaultWorkers = 4

	// writeBatchSize is the number of tiles flushed per store write.
	writeBatchSize = 512
)

// Service runs ingestion jobs. One job per scope at a time; jobs survive
// the triggering request and are tracked until queried.
type Service struct {
	features FeatureWriter
	datasets DatasetWriter
	index    IndexRebuilder
	dataDir  string
	workers  int
	jobs     *jobRegistry
	logger   *zap.Logger

	wg sync.WaitGroup
}

// New creates an ingest service reading feature files under dataDir.
func New(features FeatureWriter, datasets DatasetWriter, index IndexRebuilder, dataDir string, workers int, logger *zap.Logger) *Service {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Service{
		features: features,
		datasets: datasets,
		index:    index,
		dataDir:  dataDir,
		workers:  workers,
		jobs:     newJobRegistry(),
		logger:   logger,
	}
}

// Start launches an ingestion job for the scope. The returned status
// snapshot carries the job id for cancel and status queries. Returns
// domain.ErrIngestRunning when the scope already has a running job and
// domain.ErrDatasetNotFound when no feature files exist for it.
func (s *Service) Start(ctx context.Context, scope domain.Scope) (Status, error) {
	r, err := newReader(s.dataDir, scope)
	if err != nil {
		return Status{}, err
	}

	// The job outlives the triggering request.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := &job{
		id:      uuid.NewString(),
		scope:   scope,
		cancel:  cancel,
		state:   StateRunning,
		started: time.Now(),
	}
	if err := s.jobs.add(j); err != nil {
		cancel()
		return Status{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer s.jobs.release(j)
		s.run(jobCtx, j, r)
	}()

	return j.status(), nil
}

// Cancel requests cancellation of a running job. Canceling a finished
// job is a no-op.
func (s *Service) Cancel(jobID string) (Status, error) {
	j, ok := s.jobs.get(jobID)
	if !ok {
		return Status{}, fmt.Errorf("%w: ingest job %s", domain.ErrDatasetNotFound, jobID)
	}
	j.cancel()
	return j.status(), nil
}

// Status returns the job snapshot by id.
func (s *Service) Status(jobID string) (Status, error) {
	j, ok := s.jobs.get(jobID)
	if !ok {
		return Status{}, fmt.Errorf("%w: ingest job %s", domain.ErrDatasetNotFound, jobID)
	}
	return j.status(), nil
}

// StatusByScope returns the most recently started job for a scope.
func (s *Service) StatusByScope(scope domain.Scope) (Status, error) {
	j, ok := s.jobs.latest(scope)
	if !ok {
		return Status{}, fmt.Errorf("%w: no ingest job for %s", domain.ErrDatasetNotFound, scope)
	}
	return j.status(), nil
}

// Wait blocks until all running jobs complete. Used on shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

// scopeStats accumulates dataset metadata while rows stream in.
type scopeStats struct {
	bounds    domds.Bounds
	boundsSet bool
	zooms     map[int]bool
	dim       int
	tileCount int
}

func (st *scopeStats) observe(row tileRow) error {
	if st.dim == 0 {
		st.dim = len(row.Vector)
	} else if len(row.Vector) != st.dim {
		return fmt.Errorf("%w: tile z%d/%d/%d has dim %d, want %d",
			domain.ErrVectorDimMismatch, row.Zoom, row.X, row.Y, len(row.Vector), st.dim)
	}

	st.zooms[row.Zoom] = true
	st.tileCount++

	north := geo.TileLat(row.Y, row.Zoom)
	south := geo.TileLat(row.Y+1, row.Zoom)
	west := geo.TileLng(row.X, row.Zoom)
	east := geo.TileLng(row.X+1, row.Zoom)
	if !st.boundsSet {
		st.bounds = domds.Bounds{MinLat: south, MinLng: west, MaxLat: north, MaxLng: east}
		st.boundsSet = true
		return nil
	}
	if south < st.bounds.MinLat {
		st.bounds.MinLat = south
	}
	if north > st.bounds.MaxLat {
		st.bounds.MaxLat = north
	}
	if west < st.bounds.MinLng {
		st.bounds.MinLng = west
	}
	if east > st.bounds.MaxLng {
		st.bounds.MaxLng = east
	}
	return nil
}

func (s *Service) run(ctx context.Context, j *job, r *reader) {
	logger := s.logger.With(zap.String("job_id", j.id), zap.String("scope", j.scope.String()))
	logger.Info("ingestion started")

	stats := &scopeStats{zooms: make(map[int]bool)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	batches := make(map[int][]feature.TileFeature)
	flush := func(zoom int) {
		batch := batches[zoom]
		batches[zoom] = nil
		g.Go(func() error {
			if err := s.features.PutTileVectors(gctx, j.scope, zoom, batch); err != nil {
				return fmt.Errorf("write zoom %d batch: %w", zoom, err)
			}
			j.addRead(len(batch))
			return nil
		})
	}

	var rowErr error
	readErr := r.ReadRows(func(row tileRow) bool {
		if gctx.Err() != nil {
			return false
		}
		if err := stats.observe(row); err != nil {
			rowErr = err
			return false
		}
		batches[row.Zoom] = append(batches[row.Zoom], feature.TileFeature{
			X:        row.X,
			Y:        row.Y,
			Vector:   row.Vector,
			ByteSize: row.ByteSize,
		})
		if len(batches[row.Zoom]) >= writeBatchSize {
			flush(row.Zoom)
		}
		return true
	})

	for zoom, batch := range batches {
		if len(batch) > 0 {
			flush(zoom)
		}
	}
	waitErr := g.Wait()

	switch {
	case ctx.Err() != nil:
		j.finish(StateCanceled, nil)
		logger.Info("ingestion canceled", zap.Int("tiles_read", j.status().TilesRead))
		return
	case rowErr != nil:
		j.finish(StateFailed, rowErr)
		logger.Error("ingestion failed", zap.Error(rowErr))
		return
	case readErr != nil:
		j.finish(StateFailed, readErr)
		logger.Error("ingestion failed", zap.Error(readErr))
		return
	case waitErr != nil:
		j.finish(StateFailed, waitErr)
		logger.Error("ingestion failed", zap.Error(waitErr))
		return
	}

	if err := s.register(ctx, j.scope, stats); err != nil {
		j.finish(StateFailed, err)
		logger.Error("ingestion failed", zap.Error(err))
		return
	}

	j.finish(StateDone, nil)
	logger.Info("ingestion finished",
		zap.Int("tiles", stats.tileCount),
		zap.Int("zooms", len(stats.zooms)),
		zap.Int("dim", stats.dim),
	)
}

// register stores the dataset record and rebuilds its index partitions.
func (s *Service) register(ctx context.Context, scope domain.Scope, stats *scopeStats) error {
	zooms := make([]int, 0, len(stats.zooms))
	for z := range stats.zooms {
		zooms = append(zooms, z)
	}
	sort.Ints(zooms)

	ds, err := domds.New(scope, stats.bounds, zooms, stats.dim, stats.tileCount, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	if err := s.datasets.Put(ctx, ds); err != nil {
		return fmt.Errorf("register dataset: %w", err)
	}

	for _, zoom := range zooms {
		if err := s.index.RebuildPartition(ctx, scope, zoom); err != nil {
			return fmt.Errorf("rebuild partition z%d: %w", zoom, err)
		}
	}
	return nil
}
