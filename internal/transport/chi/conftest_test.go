package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/anveshak/tilesearch/internal/db/memory"
	"github.com/anveshak/tilesearch/internal/domain"
	domds "github.com/anveshak/tilesearch/internal/domain/dataset"
	"github.com/anveshak/tilesearch/internal/index"
	annotationrepo "github.com/anveshak/tilesearch/internal/repository/annotation"
	datasetrepo "github.com/anveshak/tilesearch/internal/repository/dataset"
	featurerepo "github.com/anveshak/tilesearch/internal/repository/feature"
	annotationuc "github.com/anveshak/tilesearch/internal/usecase/annotation"
	datasetuc "github.com/anveshak/tilesearch/internal/usecase/dataset"
	healthuc "github.com/anveshak/tilesearch/internal/usecase/health"
	ingestuc "github.com/anveshak/tilesearch/internal/usecase/ingest"
	searchuc "github.com/anveshak/tilesearch/internal/usecase/search"
)

// stubExtractor returns a fixed feature vector for any geometry.
type stubExtractor struct {
	vec    []float32
	called int
}

func (s *stubExtractor) Extract(_ context.Context, _ domain.ExtractInput) (domain.ExtractResult, error) {
	s.called++
	return domain.ExtractResult{Vector: append([]float32(nil), s.vec...)}, nil
}

// testEnv wires the full API over the in-memory store.
type testEnv struct {
	router    chirouter.Router
	features  *featurerepo.Repo
	datasets  *datasetrepo.Repo
	indexMgr  *index.Manager
	extractor *stubExtractor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()

	featRepo := featurerepo.New(store, "test:", logger)
	annRepo := annotationrepo.New(store, "test:")
	dsRepo := datasetrepo.New(store, "test:")
	indexMgr := index.NewManager(featRepo, logger)

	extractor := &stubExtractor{vec: []float32{1, 0}}
	sessions := searchuc.NewSessions()

	searchSvc := searchuc.New(indexMgr, dsRepo, annRepo, featRepo, featRepo, extractor, sessions, 2, logger)
	annSvc := annotationuc.New(annRepo, featRepo, sessions)
	dsSvc := datasetuc.New(dsRepo)
	ingestSvc := ingestuc.New(featRepo, dsRepo, indexMgr, t.TempDir(), 2, logger)
	healthSvc := healthuc.New(store, nil)

	srv := NewServer(annSvc, searchSvc, dsSvc, ingestSvc, healthSvc, logger)
	r := chirouter.NewRouter()
	srv.Routes(r)

	return &testEnv{
		router:    r,
		features:  featRepo,
		datasets:  dsRepo,
		indexMgr:  indexMgr,
		extractor: extractor,
	}
}

// seedMars loads a two-level "mars" pyramid: six tiles at zoom 3 and
// three at zoom 4, with vectors of descending similarity to the stub
// extractor's [1, 0].
func (e *testEnv) seedMars(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	scope, err := domain.NewScope("mars", "")
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}

	z3 := []featurerepo.TileFeature{
		{X: 4, Y: 4, Vector: []float32{1, 0}}, // contains (lat 0, lng 0)
		{X: 5, Y: 0, Vector: []float32{0.96, 0.28}},
		{X: 0, Y: 0, Vector: []float32{0.8, 0.6}},
		{X: 1, Y: 0, Vector: []float32{0.6, 0.8}},
		{X: 3, Y: 0, Vector: []float32{0.28, 0.96}},
		{X: 2, Y: 0, Vector: []float32{0, 1}},
	}
	if err := e.features.PutTileVectors(ctx, scope, 3, z3); err != nil {
		t.Fatalf("put z3: %v", err)
	}

	z4 := []featurerepo.TileFeature{
		{X: 8, Y: 8, Vector: []float32{1, 0}},
		{X: 9, Y: 8, Vector: []float32{0.8, 0.6}},
		{X: 10, Y: 8, Vector: []float32{0, 1}},
	}
	if err := e.features.PutTileVectors(ctx, scope, 4, z4); err != nil {
		t.Fatalf("put z4: %v", err)
	}

	ds, err := domds.New(scope, domds.Bounds{MinLat: -85, MinLng: -180, MaxLat: 85, MaxLng: 180}, []int{3, 4}, 2, 9, 0)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	if err := e.datasets.Put(ctx, ds); err != nil {
		t.Fatalf("put dataset: %v", err)
	}

	for _, zoom := range []int{3, 4} {
		if err := e.indexMgr.RebuildPartition(ctx, scope, zoom); err != nil {
			t.Fatalf("rebuild z%d: %v", zoom, err)
		}
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorResponse](t, rec).Detail
}

const craterJSON = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`

func createMarsAnnotation(t *testing.T, e *testEnv, id string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/annotations", map[string]any{
		"id":           id,
		"dataset":      "mars",
		"label":        "crater",
		"geojson":      json.RawMessage(craterJSON),
		"zoom_created": 3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create annotation: status %d body %s", rec.Code, rec.Body.String())
	}
}
