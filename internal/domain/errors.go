package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAnnotationNotFound signals a missing annotation.
	ErrAnnotationNotFound = errors.New("annotation not found")
	// ErrTileNotFound signals a missing tile feature vector.
	ErrTileNotFound = errors.New("tile not found")
	// ErrDatasetNotFound signals an unregistered dataset or footprint.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrPartitionNotFound signals a missing index partition for a dataset/zoom.
	ErrPartitionNotFound = errors.New("no index partition")
	// ErrIndexUnavailable signals a partition mid-rebuild with no prior snapshot.
	// Callers see it as not-found; operators see it logged distinctly.
	ErrIndexUnavailable = errors.New("index partition unavailable")
	// ErrAlreadyExists signals a duplicate annotation id.
	ErrAlreadyExists = errors.New("already exists")
	// ErrSearchNotStarted signals a deepen call without a prior initial search.
	ErrSearchNotStarted = errors.New("perform initial search first")
	// ErrExtraction signals a feature extraction failure.
	ErrExtraction = errors.New("feature extraction failed")
	// ErrInvalidGeometry signals an unparseable or unsupported geometry.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrIngestRunning signals an ingestion already in progress for a scope.
	ErrIngestRunning = errors.New("ingestion already running")
)

// PartitionError wraps ErrPartitionNotFound with the partition coordinates.
type PartitionError struct {
	Scope Scope
	Zoom  int
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("%s for %s at zoom %d", ErrPartitionNotFound.Error(), e.Scope, e.Zoom)
}

func (e *PartitionError) Unwrap() error { return ErrPartitionNotFound }

// NewPartitionNotFound creates a partition-not-found error naming the missing partition.
func NewPartitionNotFound(scope Scope, zoom int) error {
	return &PartitionError{Scope: scope, Zoom: zoom}
}
