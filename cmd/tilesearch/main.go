package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/anveshak/tilesearch/internal/config"
	"github.com/anveshak/tilesearch/internal/db"
	dbMemory "github.com/anveshak/tilesearch/internal/db/memory"
	dbRedis "github.com/anveshak/tilesearch/internal/db/redis"
	"github.com/anveshak/tilesearch/internal/index"
	logpkg "github.com/anveshak/tilesearch/internal/logger"
	"github.com/anveshak/tilesearch/internal/metrics"
	annotationrepo "github.com/anveshak/tilesearch/internal/repository/annotation"
	datasetrepo "github.com/anveshak/tilesearch/internal/repository/dataset"
	featurerepo "github.com/anveshak/tilesearch/internal/repository/feature"
	chiTransport "github.com/anveshak/tilesearch/internal/transport/chi"
	openaiExt "github.com/anveshak/tilesearch/internal/transport/openai"
	annotationuc "github.com/anveshak/tilesearch/internal/usecase/annotation"
	datasetuc "github.com/anveshak/tilesearch/internal/usecase/dataset"
	healthuc "github.com/anveshak/tilesearch/internal/usecase/health"
	ingestuc "github.com/anveshak/tilesearch/internal/usecase/ingest"
	searchuc "github.com/anveshak/tilesearch/internal/usecase/search"
	"github.com/anveshak/tilesearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tilesearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create database store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	case "memory":
		store = dbMemory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Feature extraction provider
	extractor := openaiExt.NewExtractor(&openaiExt.Config{
		APIKey:     cfg.Extractor.APIKey,
		BaseURL:    cfg.Extractor.BaseURL,
		Model:      cfg.Extractor.Model,
		Dimensions: cfg.Extractor.Dimensions,
		Provider:   cfg.Extractor.Provider,
		Logger:     logger,
	})
	logger.Info("Extractor created",
		zap.String("provider", cfg.Extractor.Provider),
		zap.String("model", cfg.Extractor.Model),
		zap.Int("dimensions", cfg.Extractor.Dimensions),
	)

	// Create repositories
	featRepo := featurerepo.New(store, cfg.Storage.KeyPrefix, logger)
	annRepo := annotationrepo.New(store, cfg.Storage.KeyPrefix)
	dsRepo := datasetrepo.New(store, cfg.Storage.KeyPrefix)

	// In-memory index over the feature store
	indexMgr := index.NewManager(featRepo, logger)

	// Create use case services
	sessions := searchuc.NewSessions()
	searchSvc := searchuc.New(
		indexMgr, dsRepo, annRepo, featRepo, featRepo, extractor,
		sessions, cfg.Search.DeepenConcurrency, logger,
	)
	annSvc := annotationuc.New(annRepo, featRepo, sessions)
	dsSvc := datasetuc.New(dsRepo)
	ingestSvc := ingestuc.New(featRepo, dsRepo, indexMgr, cfg.Ingest.DataDir, cfg.Ingest.Workers, logger)
	healthSvc := healthuc.New(store, extractor)

	// Warm-start: rebuild partitions for every registered scope
	go warmStart(ctx, dsRepo, indexMgr, logger)

	// Create chi server
	server := chiTransport.NewServer(annSvc, searchSvc, dsSvc, ingestSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Let running ingestion jobs finish their current batches
	ingestSvc.Wait()

	logger.Info("Server stopped gracefully")
}

// warmStart rebuilds the index partitions of every registered scope so
// searches work without a fresh ingest after restart.
func warmStart(ctx context.Context, dsRepo *datasetrepo.Repo, indexMgr *index.Manager, logger *zap.Logger) {
	records, err := dsRepo.List(ctx)
	if err != nil {
		logger.Error("warm start: list datasets", zap.Error(err))
		return
	}
	for _, ds := range records {
		for _, zoom := range ds.Zooms() {
			if err := indexMgr.RebuildPartition(ctx, ds.Scope(), zoom); err != nil {
				logger.Error("warm start: rebuild partition",
					zap.String("scope", ds.Scope().String()),
					zap.Int("zoom", zoom),
					zap.Error(err),
				)
			}
		}
	}
	if len(records) > 0 {
		logger.Info("warm start complete", zap.Int("scopes", len(records)))
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"detail": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
