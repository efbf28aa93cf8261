package tilesearch

import (
	"context"

	"github.com/anveshak/tilesearch/internal/domain"
)

// Extractor vectorizes annotation geometries. Implementations wrap
// whatever model serves the dataset's tile feature space.
type Extractor interface {
	Extract(ctx context.Context, geojson []byte) ([]float32, error)
}

type clientConfig struct {
	driver            string
	addrs             []string
	password          string
	keyPrefix         string
	extractor         Extractor
	deepenConcurrency int
}

// Option configures the embedded client.
type Option func(*clientConfig)

// WithRedis connects to a Redis-compatible store.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = addrs
		c.password = password
	}
}

// WithMemory uses an in-process store. Handy for tests and single-node
// setups with an external ingest.
func WithMemory() Option {
	return func(c *clientConfig) {
		c.driver = "memory"
	}
}

// WithKeyPrefix overrides the storage key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithExtractor sets the feature extraction provider. Without one,
// searches for annotations with no cached vector fail.
func WithExtractor(e Extractor) Option {
	return func(c *clientConfig) {
		c.extractor = e
	}
}

// WithDeepenConcurrency bounds parallel zoom queries in deepen searches.
func WithDeepenConcurrency(n int) Option {
	return func(c *clientConfig) {
		c.deepenConcurrency = n
	}
}

// extractorAdapter wraps the public Extractor to satisfy domain.Extractor.
type extractorAdapter struct {
	inner Extractor
}

func (a *extractorAdapter) Extract(ctx context.Context, in domain.ExtractInput) (domain.ExtractResult, error) {
	vec, err := a.inner.Extract(ctx, in.GeoJSON)
	if err != nil {
		return domain.ExtractResult{}, err
	}
	return domain.ExtractResult{Vector: vec}, nil
}
