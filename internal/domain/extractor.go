package domain

import "context"

// ExtractInput identifies what to extract a feature vector from: an
// annotation's geometry, carried as raw GeoJSON, inside a dataset scope.
type ExtractInput struct {
	AnnotationID string
	Scope        Scope
	GeoJSON      []byte
}

// ExtractResult carries the extracted feature vector.
type ExtractResult struct {
	Vector []float32
}

// Extractor is the shared feature extraction contract between layers.
// The vector space is opaque to the search core: embed(input) -> vector.
type Extractor interface {
	Extract(ctx context.Context, in ExtractInput) (ExtractResult, error)
}

// HealthChecker verifies extractor availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
