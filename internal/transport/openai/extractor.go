// Package openai implements feature extraction over an OpenAI-compatible
// embeddings API. The annotation geometry is serialized as a compact
// GeoJSON document and embedded into the tile feature space.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/anveshak/tilesearch/internal/domain"
	"github.com/anveshak/tilesearch/internal/metrics"
)

// Extractor is a feature extraction provider using the OpenAI-compatible API.
type Extractor struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	provider   string
	logger     *zap.Logger
}

// Config holds the extraction provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	Logger     *zap.Logger
}

// NewExtractor creates an OpenAI-compatible extraction provider.
func NewExtractor(cfg *Config) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Extractor{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   cfg.Provider,
		logger:     cfg.Logger,
	}
}

// Extract implements domain.Extractor with transport-level metrics.
func (e *Extractor) Extract(ctx context.Context, in domain.ExtractInput) (domain.ExtractResult, error) {
	input, err := extractionInput(in)
	if err != nil {
		return domain.ExtractResult{}, err
	}

	req := openai.EmbeddingRequest{
		Input:          []string{input},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.ExtractionRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		return domain.ExtractResult{}, parseAPIError(err)
	}

	if len(resp.Data) == 0 {
		metrics.ExtractionRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		return domain.ExtractResult{}, fmt.Errorf("empty extraction response: %w", domain.ErrExtraction)
	}

	metrics.ExtractionRequestsTotal.WithLabelValues(e.provider, string(e.model), "success").Inc()
	metrics.ExtractionDuration.WithLabelValues(e.provider, string(e.model)).Observe(duration.Seconds())

	return domain.ExtractResult{Vector: resp.Data[0].Embedding}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Extractor) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// extractionInput renders the provider input: dataset scope plus the
// annotation geometry, compacted so equal geometries hash to equal inputs.
func extractionInput(in domain.ExtractInput) (string, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, in.GeoJSON); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidGeometry, err)
	}
	return fmt.Sprintf("scope=%s geometry=%s", in.Scope, compact.String()), nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrExtraction for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrExtraction

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("extraction API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("extraction API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("extraction API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("extraction request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
