package dataset

import (
	"encoding/json"
	"fmt"

	"github.com/anveshak/tilesearch/internal/domain"
	domds "github.com/anveshak/tilesearch/internal/domain/dataset"
)

// record is the JSON-serializable representation of a dataset.
type record struct {
	Dataset    string       `json:"dataset"`
	Footprint  string       `json:"footprint,omitempty"`
	Bounds     domds.Bounds `json:"bounds"`
	Zooms      []int        `json:"zooms"`
	Dim        int          `json:"dim"`
	TileCount  int          `json:"tile_count"`
	IngestedAt int64        `json:"ingested_at"`
}

func datasetToRecord(ds domds.Dataset) record {
	return record{
		Dataset:    ds.Scope().Dataset(),
		Footprint:  ds.Scope().Footprint(),
		Bounds:     ds.Bounds(),
		Zooms:      ds.Zooms(),
		Dim:        ds.Dim(),
		TileCount:  ds.TileCount(),
		IngestedAt: ds.IngestedAt(),
	}
}

func datasetFromJSON(data []byte) (domds.Dataset, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domds.Dataset{}, fmt.Errorf("unmarshal dataset: %w", err)
	}
	scope, err := domain.NewScope(rec.Dataset, rec.Footprint)
	if err != nil {
		return domds.Dataset{}, fmt.Errorf("invalid scope: %w", err)
	}
	return domds.Reconstruct(scope, rec.Bounds, rec.Zooms, rec.Dim, rec.TileCount, rec.IngestedAt), nil
}
