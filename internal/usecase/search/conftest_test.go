package search

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/anveshak/tilesearch/internal/domain"
	domann "github.com/anveshak/tilesearch/internal/domain/annotation"
	domds "github.com/anveshak/tilesearch/internal/domain/dataset"
	"github.com/anveshak/tilesearch/internal/domain/search/result"
)

// --- Mocks ---

type mockIndex struct {
	// hits per zoom level; zooms absent from the map return an error.
	hits map[int][]result.SimilarTile
	err  error

	mu      sync.Mutex // deepen queries run concurrently
	queried []int
	lastTop int
}

func (m *mockIndex) Query(_ context.Context, scope domain.Scope, zoom int, _ []float32, topK int) ([]result.SimilarTile, error) {
	m.mu.Lock()
	m.queried = append(m.queried, zoom)
	m.lastTop = topK
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	hits, ok := m.hits[zoom]
	if !ok {
		return nil, domain.NewPartitionNotFound(scope, zoom)
	}
	return hits, nil
}

type mockDatasets struct {
	ds  domds.Dataset
	err error
}

func (m *mockDatasets) Get(_ context.Context, _ domain.Scope) (domds.Dataset, error) {
	return m.ds, m.err
}

type mockAnnotations struct {
	ann  domann.Annotation
	err  error
	list []domann.Annotation
}

func (m *mockAnnotations) Get(_ context.Context, _ string) (domann.Annotation, error) {
	return m.ann, m.err
}

func (m *mockAnnotations) List(_ context.Context, _ domain.Scope) ([]domann.Annotation, error) {
	return m.list, nil
}

// mockVectors computes on every call unless a cached entry exists.
type mockVectors struct {
	cached   map[string][]float32
	computes int
}

func (m *mockVectors) GetOrComputeAnnotationVector(
	ctx context.Context, id string,
	compute func(ctx context.Context) ([]float32, error),
) ([]float32, error) {
	if vec, ok := m.cached[id]; ok {
		return vec, nil
	}
	m.computes++
	return compute(ctx)
}

func (m *mockVectors) CachedAnnotationVector(_ context.Context, id string) ([]float32, error) {
	vec, ok := m.cached[id]
	if !ok {
		return nil, domain.ErrAnnotationNotFound
	}
	return vec, nil
}

type mockTiles struct {
	vec   []float32
	err   error
	lastX int
	lastY int
}

func (m *mockTiles) TileVector(_ context.Context, _ domain.Scope, _ int, x, y int) ([]float32, error) {
	m.lastX, m.lastY = x, y
	return m.vec, m.err
}

type mockExtractor struct {
	vec    []float32
	err    error
	called int
}

func (m *mockExtractor) Extract(_ context.Context, _ domain.ExtractInput) (domain.ExtractResult, error) {
	m.called++
	if m.err != nil {
		return domain.ExtractResult{}, m.err
	}
	return domain.ExtractResult{Vector: m.vec}, nil
}

// --- Fixtures ---

const pointJSON = `{"type":"Point","coordinates":[137.4,-4.6]}`

func testScope(t *testing.T) domain.Scope {
	t.Helper()
	s, err := domain.NewScope("mars", "gale")
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	return s
}

func testAnnotation(t *testing.T, id string) domann.Annotation {
	t.Helper()
	return domann.Reconstruct(id, testScope(t), "", []byte(pointJSON), 3, 100)
}

func testDataset(t *testing.T, zooms ...int) domds.Dataset {
	t.Helper()
	if len(zooms) == 0 {
		zooms = []int{3, 4, 5}
	}
	ds, err := domds.New(testScope(t), domds.Bounds{}, zooms, 2, 100, 0)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return ds
}

func tile(x, y, z int, score float64) result.SimilarTile {
	return result.SimilarTile{X: x, Y: y, Z: z, Score: score}
}

type fixture struct {
	index       *mockIndex
	datasets    *mockDatasets
	annotations *mockAnnotations
	vectors     *mockVectors
	tiles       *mockTiles
	extractor   *mockExtractor
	sessions    *Sessions
	svc         *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		index:       &mockIndex{hits: map[int][]result.SimilarTile{}},
		datasets:    &mockDatasets{ds: testDataset(t)},
		annotations: &mockAnnotations{ann: testAnnotation(t, "ann-1")},
		vectors:     &mockVectors{cached: map[string][]float32{}},
		tiles:       &mockTiles{vec: []float32{1, 0}},
		extractor:   &mockExtractor{vec: []float32{1, 0}},
		sessions:    NewSessions(),
	}
	f.svc = New(f.index, f.datasets, f.annotations, f.vectors, f.tiles, f.extractor, f.sessions, 2, zap.NewNop())
	return f
}
