// Package annotation persists user-drawn annotations as hashes.
package annotation

import (
	"context"
	"fmt"
	"sort"

	"github.com/anveshak/tilesearch/internal/domain"
	domann "github.com/anveshak/tilesearch/internal/domain/annotation"
)

// store is the consumer interface for annotation persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/annotation.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates an annotation repository. prefix namespaces all keys.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) key(id string) string {
	return fmt.Sprintf("%sann:%s", r.prefix, id)
}

// Create stores a new annotation. Returns domain.ErrAlreadyExists when an
// annotation with the same id is present.
func (r *Repo) Create(ctx context.Context, ann domann.Annotation) error {
	key := r.key(ann.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	if err := r.store.HSet(ctx, key, annotationToHash(ann)); err != nil {
		return fmt.Errorf("hset annotation %s: %w", ann.ID(), err)
	}
	return nil
}

// Get retrieves an annotation by id.
func (r *Repo) Get(ctx context.Context, id string) (domann.Annotation, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return domann.Annotation{}, fmt.Errorf("hgetall annotation %s: %w", id, err)
	}
	if len(m) == 0 {
		return domann.Annotation{}, domain.ErrAnnotationNotFound
	}
	return annotationFromHash(m)
}

// Update overwrites the stored annotation. Returns
// domain.ErrAnnotationNotFound when it does not exist.
func (r *Repo) Update(ctx context.Context, ann domann.Annotation) error {
	key := r.key(ann.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return domain.ErrAnnotationNotFound
	}

	if err := r.store.HSet(ctx, key, annotationToHash(ann)); err != nil {
		return fmt.Errorf("hset annotation %s: %w", ann.ID(), err)
	}
	return nil
}

// Delete removes an annotation. Deleting a missing annotation is a no-op.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("del annotation %s: %w", id, err)
	}
	return nil
}

// List returns annotations within the scope, sorted by CreatedAt. An empty
// footprint matches every footprint of the dataset.
func (r *Repo) List(ctx context.Context, scope domain.Scope) ([]domann.Annotation, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan annotations: %w", err)
	}
	if len(keys) == 0 {
		return []domann.Annotation{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi annotations: %w", err)
	}

	annotations := make([]domann.Annotation, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		ann, err := annotationFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse annotation %s: %w", keys[i], err)
		}
		if ann.Scope().Dataset() != scope.Dataset() {
			continue
		}
		if scope.Footprint() != "" && ann.Scope().Footprint() != scope.Footprint() {
			continue
		}
		annotations = append(annotations, ann)
	}

	sort.Slice(annotations, func(i, j int) bool {
		return annotations[i].CreatedAt() < annotations[j].CreatedAt()
	})

	return annotations, nil
}
