// Package tilesearch is the in-process client: the same repositories and
// usecases the HTTP server wires, without the HTTP layer.
package tilesearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anveshak/tilesearch/internal/db"
	dbMemory "github.com/anveshak/tilesearch/internal/db/memory"
	dbRedis "github.com/anveshak/tilesearch/internal/db/redis"
	"github.com/anveshak/tilesearch/internal/domain"
	"github.com/anveshak/tilesearch/internal/index"
	annotationrepo "github.com/anveshak/tilesearch/internal/repository/annotation"
	datasetrepo "github.com/anveshak/tilesearch/internal/repository/dataset"
	featurerepo "github.com/anveshak/tilesearch/internal/repository/feature"
	annotationuc "github.com/anveshak/tilesearch/internal/usecase/annotation"
	datasetuc "github.com/anveshak/tilesearch/internal/usecase/dataset"
	searchuc "github.com/anveshak/tilesearch/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "tilesearch:"
)

// Client is the tilesearch embedded SDK entry point.
type Client struct {
	store     db.Store
	annSvc    *annotationuc.Service
	searchSvc *searchuc.Service
	dsSvc     *datasetuc.Service
	index     *index.Manager
}

// New creates a Client and connects to the store. The provided context
// is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o(cfg)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("tilesearch: store not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("tilesearch: create redis store: %w", err)
		}
		return s, nil
	case "memory":
		return dbMemory.NewStore(), nil
	case "":
		return nil, errors.New("tilesearch: store required (use WithRedis or WithMemory)")
	default:
		return nil, fmt.Errorf("tilesearch: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	logger := zap.NewNop()

	featRepo := featurerepo.New(store, cfg.keyPrefix, logger)
	annRepo := annotationrepo.New(store, cfg.keyPrefix)
	dsRepo := datasetrepo.New(store, cfg.keyPrefix)
	indexMgr := index.NewManager(featRepo, logger)

	// Extractor: noop when not configured (searches over cached vectors
	// still work, first-time extraction returns an error).
	var extractor domain.Extractor = &noopExtractor{}
	if cfg.extractor != nil {
		extractor = &extractorAdapter{inner: cfg.extractor}
	}

	sessions := searchuc.NewSessions()
	searchSvc := searchuc.New(
		indexMgr, dsRepo, annRepo, featRepo, featRepo, extractor,
		sessions, cfg.deepenConcurrency, logger,
	)
	annSvc := annotationuc.New(annRepo, featRepo, sessions)
	dsSvc := datasetuc.New(dsRepo)

	return &Client{
		store:     store,
		annSvc:    annSvc,
		searchSvc: searchSvc,
		dsSvc:     dsSvc,
		index:     indexMgr,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Annotations returns the annotation lifecycle service.
func (c *Client) Annotations() *annotationuc.Service { return c.annSvc }

// Search returns the similarity search service.
func (c *Client) Search() *searchuc.Service { return c.searchSvc }

// Datasets returns the dataset catalog service.
func (c *Client) Datasets() *datasetuc.Service { return c.dsSvc }

// RebuildPartition loads a (dataset, zoom) partition into the index.
// Call it after loading tile vectors out-of-band.
func (c *Client) RebuildPartition(ctx context.Context, dataset, footprint string, zoom int) error {
	scope, err := domain.NewScope(dataset, footprint)
	if err != nil {
		return err
	}
	return c.index.RebuildPartition(ctx, scope, zoom)
}

// noopExtractor returns an error on Extract (used when no extractor configured).
type noopExtractor struct{}

func (noopExtractor) Extract(_ context.Context, _ domain.ExtractInput) (domain.ExtractResult, error) {
	return domain.ExtractResult{}, errors.New(
		"tilesearch: extractor not configured (use WithExtractor)",
	)
}
