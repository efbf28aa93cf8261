// Package chi implements the HTTP API over the go-chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/anveshak/tilesearch/internal/domain"
	"github.com/anveshak/tilesearch/internal/domain/search/request"
	annotationuc "github.com/anveshak/tilesearch/internal/usecase/annotation"
	datasetuc "github.com/anveshak/tilesearch/internal/usecase/dataset"
	healthuc "github.com/anveshak/tilesearch/internal/usecase/health"
	ingestuc "github.com/anveshak/tilesearch/internal/usecase/ingest"
	searchuc "github.com/anveshak/tilesearch/internal/usecase/search"
	"github.com/anveshak/tilesearch/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the similarity search API.
type Server struct {
	annotations   *annotationuc.Service
	search        *searchuc.Service
	datasets      *datasetuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	annotations *annotationuc.Service,
	search *searchuc.Service,
	datasets *datasetuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		annotations: annotations,
		search:      search,
		datasets:    datasets,
		ingest:      ingest,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		indexUnavailableHandler(logger),
		sentinelHandler(domain.ErrAnnotationNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrTileNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrDatasetNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrPartitionNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict),
		sentinelHandler(domain.ErrIngestRunning, http.StatusConflict),
		sentinelHandler(domain.ErrSearchNotStarted, http.StatusBadRequest),
		sentinelHandler(domain.ErrInvalidGeometry, http.StatusBadRequest),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest),
		sentinelHandler(domain.ErrExtraction, http.StatusBadGateway),
	}
	return s
}

// Routes mounts every API route on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/annotations/similar", s.initialSearch)
	r.Post("/annotations/similar/more", s.deepenSearch)
	r.Get("/annotations/{id}/similar", s.similarAnnotations)
	r.Get("/tiles/{dataset}/similar", s.similarByPoint)

	r.Post("/annotations", s.createAnnotation)
	r.Get("/annotations", s.listAnnotations)
	r.Get("/annotations/{id}", s.getAnnotation)
	r.Put("/annotations/{id}", s.updateAnnotation)
	r.Delete("/annotations/{id}", s.deleteAnnotation)

	r.Get("/datasets", s.listDatasets)
	r.Get("/datasets/{dataset}/footprints", s.listFootprints)
	r.Get("/datasets/{dataset}/bounds", s.datasetBounds)

	r.Post("/ingest", s.startIngest)
	r.Post("/ingest/cancel", s.cancelIngest)
	r.Get("/ingest/status", s.ingestStatus)

	r.Get("/health", s.healthCheck)
	r.Get("/metrics", s.metrics)
}

// initialSearch handles POST /annotations/similar.
func (s *Server) initialSearch(w http.ResponseWriter, r *http.Request) {
	var req initialSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	scope, err := domain.NewScope(req.Dataset, req.Footprint)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	searchReq, err := request.NewInitial(req.AnnotationID, scope, req.GeoJSON, req.Zoom, req.TopK)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tiles, err := s.search.InitialSearch(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, similarTilesResponse{SimilarTiles: tiles})
}

// deepenSearch handles POST /annotations/similar/more.
func (s *Server) deepenSearch(w http.ResponseWriter, r *http.Request) {
	var req deepenSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	searchReq, err := request.NewDeepen(req.AnnotationID, req.GeoJSON, req.ExcludeZooms, req.TopK)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tiles, err := s.search.DeepenSearch(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, similarTilesResponse{SimilarTiles: tiles})
}

// similarAnnotations handles GET /annotations/{id}/similar.
func (s *Server) similarAnnotations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	topK, err := queryInt(r, "top_k", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := s.search.SimilarAnnotations(r.Context(), id, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, similarAnnotationsResponse{Similar: matches})
}

// similarByPoint handles GET /tiles/{dataset}/similar.
func (s *Server) similarByPoint(w http.ResponseWriter, r *http.Request) {
	scope, err := domain.NewScope(chi.URLParam(r, "dataset"), r.URL.Query().Get("footprint"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lat, err := queryFloat(r, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lng, err := queryFloat(r, "lng")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	zoom, err := queryInt(r, "zoom", -1)
	if err != nil || zoom < 0 {
		writeError(w, http.StatusBadRequest, "zoom query parameter is required")
		return
	}
	topK, err := queryInt(r, "top_k", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	searchReq, err := request.NewPoint(scope, lat, lng, zoom, topK)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tiles, err := s.search.SimilarByPoint(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, similarTilesResponse{SimilarTiles: tiles})
}

// createAnnotation handles POST /annotations.
func (s *Server) createAnnotation(w http.ResponseWriter, r *http.Request) {
	var req createAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "annotation id is required")
		return
	}
	scope, err := domain.NewScope(req.Dataset, req.Footprint)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ann, err := s.annotations.Create(r.Context(), annotationuc.CreateInput{
		ID:          req.ID,
		Scope:       scope,
		Label:       req.Label,
		GeoJSON:     req.GeoJSON,
		ZoomCreated: req.ZoomCreated,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, statusResponse{Status: "saved", ID: ann.ID()})
}

// listAnnotations handles GET /annotations.
func (s *Server) listAnnotations(w http.ResponseWriter, r *http.Request) {
	scope, err := domain.NewScope(r.URL.Query().Get("dataset"), r.URL.Query().Get("footprint"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	anns, err := s.annotations.List(r.Context(), scope)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]annotationResponse, len(anns))
	for i := range anns {
		items[i] = annotationToResponse(&anns[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// getAnnotation handles GET /annotations/{id}.
func (s *Server) getAnnotation(w http.ResponseWriter, r *http.Request) {
	ann, err := s.annotations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, annotationToResponse(&ann))
}

// updateAnnotation handles PUT /annotations/{id}.
func (s *Server) updateAnnotation(w http.ResponseWriter, r *http.Request) {
	var req updateAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ann, err := s.annotations.UpdateLabel(r.Context(), chi.URLParam(r, "id"), req.Label)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updateAnnotationResponse{
		Status:     "updated",
		Annotation: annotationToResponse(&ann),
	})
}

// deleteAnnotation handles DELETE /annotations/{id}.
func (s *Server) deleteAnnotation(w http.ResponseWriter, r *http.Request) {
	if err := s.annotations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

// listDatasets handles GET /datasets.
func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	names, err := s.datasets.Datasets(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, datasetListResponse{Datasets: names})
}

// listFootprints handles GET /datasets/{dataset}/footprints.
func (s *Server) listFootprints(w http.ResponseWriter, r *http.Request) {
	records, err := s.datasets.Footprints(r.Context(), chi.URLParam(r, "dataset"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]footprintResponse, len(records))
	for i := range records {
		items[i] = footprintResponse{
			Footprint: records[i].Scope().Footprint(),
			Bounds:    records[i].Bounds(),
			Zooms:     records[i].Zooms(),
			TileCount: records[i].TileCount(),
		}
	}
	writeJSON(w, http.StatusOK, footprintListResponse{Footprints: items})
}

// datasetBounds handles GET /datasets/{dataset}/bounds.
func (s *Server) datasetBounds(w http.ResponseWriter, r *http.Request) {
	scope, err := domain.NewScope(chi.URLParam(r, "dataset"), r.URL.Query().Get("footprint"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ds, err := s.datasets.Get(r.Context(), scope)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boundsResponse{Bounds: ds.Bounds(), Zooms: ds.Zooms()})
}

// startIngest handles POST /ingest.
func (s *Server) startIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	scope, err := domain.NewScope(req.Dataset, req.Footprint)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := s.ingest.Start(r.Context(), scope)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}

// cancelIngest handles POST /ingest/cancel.
func (s *Server) cancelIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestCancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	status, err := s.ingest.Cancel(req.JobID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ingestStatus handles GET /ingest/status. Accepts either a job_id or a
// dataset/footprint pair (most recent job for the scope).
func (s *Server) ingestStatus(w http.ResponseWriter, r *http.Request) {
	if jobID := r.URL.Query().Get("job_id"); jobID != "" {
		status, err := s.ingest.Status(jobID)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	scope, err := domain.NewScope(r.URL.Query().Get("dataset"), r.URL.Query().Get("footprint"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "job_id or dataset query parameter is required")
		return
	}
	status, err := s.ingest.StatusByScope(scope)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":  report.Status,
		"checks":  report.Checks,
		"version": version.String(),
	})
}

// metrics handles GET /metrics.
func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}

func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, errors.New(name + " query parameter is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(name + " must be a number")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var pe *domain.PartitionError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	sentinels := []error{
		domain.ErrAnnotationNotFound,
		domain.ErrTileNotFound,
		domain.ErrDatasetNotFound,
		domain.ErrPartitionNotFound,
		domain.ErrAlreadyExists,
		domain.ErrIngestRunning,
		domain.ErrSearchNotStarted,
		domain.ErrInvalidGeometry,
		domain.ErrVectorDimMismatch,
		domain.ErrExtraction,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

// indexUnavailableHandler maps mid-rebuild partitions to the same 404 the
// client sees for missing ones, but logs them distinctly for operators.
func indexUnavailableHandler(logger *zap.Logger) errorHandler {
	return func(w http.ResponseWriter, err error, _ string) bool {
		if !errors.Is(err, domain.ErrIndexUnavailable) {
			return false
		}
		logger.Warn("query hit partition mid-rebuild", zap.Error(err))
		writeError(w, http.StatusNotFound, domain.ErrPartitionNotFound.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
