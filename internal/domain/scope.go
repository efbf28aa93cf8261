package domain

import (
	"fmt"
	"strings"
)

// Scope identifies a dataset partition of the tile space, optionally
// narrowed to a single downloaded footprint within the dataset.
type Scope struct {
	dataset   string
	footprint string
}

// NewScope validates and builds a scope. Dataset is required.
func NewScope(dataset, footprint string) (Scope, error) {
	if dataset == "" {
		return Scope{}, fmt.Errorf("dataset is required")
	}
	if strings.ContainsAny(dataset, "/:") || strings.ContainsAny(footprint, "/:") {
		return Scope{}, fmt.Errorf("dataset and footprint must not contain '/' or ':'")
	}
	return Scope{dataset: dataset, footprint: footprint}, nil
}

// Dataset returns the dataset identifier.
func (s Scope) Dataset() string { return s.dataset }

// Footprint returns the footprint identifier, empty for whole-dataset scope.
func (s Scope) Footprint() string { return s.footprint }

// IsZero reports whether the scope is unset.
func (s Scope) IsZero() bool { return s.dataset == "" }

// String renders "dataset" or "dataset/footprint".
func (s Scope) String() string {
	if s.footprint == "" {
		return s.dataset
	}
	return s.dataset + "/" + s.footprint
}
