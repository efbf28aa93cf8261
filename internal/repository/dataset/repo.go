// Package dataset persists registration records for ingested scopes.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/anveshak/tilesearch/internal/db"
	"github.com/anveshak/tilesearch/internal/domain"
	domds "github.com/anveshak/tilesearch/internal/domain/dataset"
)

// store is the consumer interface for dataset persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the dataset catalogs consumed by the search and ingest
// usecases. Records are small and stored as JSON values.
type Repo struct {
	store  store
	prefix string
}

// New creates a dataset repository. prefix namespaces all keys.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) key(scope domain.Scope) string {
	return fmt.Sprintf("%sdataset:%s", r.prefix, scope)
}

// Put stores or replaces a dataset record.
func (r *Repo) Put(ctx context.Context, ds domds.Dataset) error {
	data, err := json.Marshal(datasetToRecord(ds))
	if err != nil {
		return fmt.Errorf("marshal dataset %s: %w", ds.Scope(), err)
	}
	if err := r.store.Set(ctx, r.key(ds.Scope()), data); err != nil {
		return fmt.Errorf("set dataset %s: %w", ds.Scope(), err)
	}
	return nil
}

// Get retrieves a dataset record by scope.
func (r *Repo) Get(ctx context.Context, scope domain.Scope) (domds.Dataset, error) {
	data, err := r.store.Get(ctx, r.key(scope))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domds.Dataset{}, domain.ErrDatasetNotFound
		}
		return domds.Dataset{}, fmt.Errorf("get dataset %s: %w", scope, err)
	}
	return datasetFromJSON(data)
}

// Delete removes a dataset record. Deleting a missing record is a no-op.
func (r *Repo) Delete(ctx context.Context, scope domain.Scope) error {
	if err := r.store.Del(ctx, r.key(scope)); err != nil {
		return fmt.Errorf("del dataset %s: %w", scope, err)
	}
	return nil
}

// List returns every registered scope record, sorted by scope string.
func (r *Repo) List(ctx context.Context) ([]domds.Dataset, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"dataset:*")
	if err != nil {
		return nil, fmt.Errorf("scan datasets: %w", err)
	}

	records := make([]domds.Dataset, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get dataset %s: %w", key, err)
		}
		ds, err := datasetFromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse dataset %s: %w", key, err)
		}
		records = append(records, ds)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Scope().String() < records[j].Scope().String()
	})
	return records, nil
}

// Datasets returns the distinct dataset names across all registered scopes.
func (r *Repo) Datasets(ctx context.Context) ([]string, error) {
	records, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(records))
	names := make([]string, 0, len(records))
	for _, ds := range records {
		name := ds.Scope().Dataset()
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// Footprints returns the footprint records registered under a dataset.
// Whole-dataset records (no footprint) are excluded.
func (r *Repo) Footprints(ctx context.Context, dataset string) ([]domds.Dataset, error) {
	records, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	known := false
	out := make([]domds.Dataset, 0, len(records))
	for _, ds := range records {
		if ds.Scope().Dataset() != dataset {
			continue
		}
		known = true
		if ds.Scope().Footprint() == "" {
			continue
		}
		out = append(out, ds)
	}
	if !known {
		return nil, domain.ErrDatasetNotFound
	}
	return out, nil
}
