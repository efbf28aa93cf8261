// Package dataset holds metadata for an ingested tile pyramid scope.
package dataset

import (
	"fmt"
	"sort"

	"github.com/anveshak/tilesearch/internal/domain"
)

// Bounds is a geographic bounding box in degrees.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Dataset is the registration record for an ingested scope: which zoom
// levels carry feature vectors, their dimension and the covered bounds.
type Dataset struct {
	scope      domain.Scope
	bounds     Bounds
	zooms      []int
	dim        int
	tileCount  int
	ingestedAt int64
}

// New validates and builds a dataset record.
func New(scope domain.Scope, bounds Bounds, zooms []int, dim, tileCount int, ingestedAt int64) (Dataset, error) {
	if scope.IsZero() {
		return Dataset{}, fmt.Errorf("dataset scope is required")
	}
	if len(zooms) == 0 {
		return Dataset{}, fmt.Errorf("dataset %s has no zoom levels", scope)
	}
	if dim <= 0 {
		return Dataset{}, fmt.Errorf("dataset %s has invalid vector dimension %d", scope, dim)
	}
	sorted := append([]int(nil), zooms...)
	sort.Ints(sorted)
	return Dataset{
		scope:      scope,
		bounds:     bounds,
		zooms:      sorted,
		dim:        dim,
		tileCount:  tileCount,
		ingestedAt: ingestedAt,
	}, nil
}

// Reconstruct rebuilds a dataset record from storage without validation.
func Reconstruct(scope domain.Scope, bounds Bounds, zooms []int, dim, tileCount int, ingestedAt int64) Dataset {
	return Dataset{scope: scope, bounds: bounds, zooms: zooms, dim: dim, tileCount: tileCount, ingestedAt: ingestedAt}
}

// Scope returns the dataset scope.
func (d *Dataset) Scope() domain.Scope { return d.scope }

// Bounds returns the covered geographic bounds.
func (d *Dataset) Bounds() Bounds { return d.bounds }

// Zooms returns the ingested zoom levels in ascending order.
func (d *Dataset) Zooms() []int { return append([]int(nil), d.zooms...) }

// HasZoom reports whether the scope carries vectors at the given zoom.
func (d *Dataset) HasZoom(zoom int) bool {
	for _, z := range d.zooms {
		if z == zoom {
			return true
		}
	}
	return false
}

// Dim returns the feature vector dimension, fixed per dataset.
func (d *Dataset) Dim() int { return d.dim }

// TileCount returns the number of ingested tile vectors.
func (d *Dataset) TileCount() int { return d.tileCount }

// IngestedAt returns the ingestion time in unix milliseconds.
func (d *Dataset) IngestedAt() int64 { return d.ingestedAt }
