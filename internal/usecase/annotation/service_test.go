package annotation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anveshak/tilesearch/internal/domain"
	domann "github.com/anveshak/tilesearch/internal/domain/annotation"
)

// --- Mocks ---

type mockRepo struct {
	created   []domann.Annotation
	updated   []domann.Annotation
	deleted   []string
	ann       domann.Annotation
	getErr    error
	createErr error
	deleteErr error
}

func (m *mockRepo) Create(_ context.Context, ann domann.Annotation) error {
	m.created = append(m.created, ann)
	return m.createErr
}

func (m *mockRepo) Get(_ context.Context, _ string) (domann.Annotation, error) {
	return m.ann, m.getErr
}

func (m *mockRepo) Update(_ context.Context, ann domann.Annotation) error {
	m.updated = append(m.updated, ann)
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.deleteErr
}

func (m *mockRepo) List(_ context.Context, _ domain.Scope) ([]domann.Annotation, error) {
	return []domann.Annotation{m.ann}, nil
}

type mockVectors struct {
	deleted []string
	err     error
}

func (m *mockVectors) DeleteAnnotationVector(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

type mockSessions struct {
	forgotten []string
}

func (m *mockSessions) Forget(id string) {
	m.forgotten = append(m.forgotten, id)
}

const pointJSON = `{"type":"Point","coordinates":[137.4,-4.6]}`

func testScope(t *testing.T) domain.Scope {
	t.Helper()
	s, err := domain.NewScope("mars", "gale")
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	return s
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockVectors, *mockSessions) {
	t.Helper()
	repo := &mockRepo{}
	vectors := &mockVectors{}
	sessions := &mockSessions{}
	svc := New(repo, vectors, sessions)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, repo, vectors, sessions
}

// --- Tests ---

func TestCreate(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	ann, err := svc.Create(context.Background(), CreateInput{
		ID:          "ann-1",
		Scope:       testScope(t),
		Label:       "crater",
		GeoJSON:     []byte(pointJSON),
		ZoomCreated: 7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ann.CreatedAt() != 1700000000000 {
		t.Errorf("expected server-side timestamp, got %d", ann.CreatedAt())
	}
	if len(repo.created) != 1 || repo.created[0].ID() != "ann-1" {
		t.Errorf("expected 1 create, got %v", repo.created)
	}
}

func TestCreate_InvalidGeometry(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		ID:      "ann-1",
		Scope:   testScope(t),
		GeoJSON: []byte(`{"type":"bogus"}`),
	})
	if !errors.Is(err, domain.ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Error("invalid annotation should not reach the repository")
	}
}

func TestCreate_Duplicate(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	repo.createErr = domain.ErrAlreadyExists

	_, err := svc.Create(context.Background(), CreateInput{
		ID:      "ann-1",
		Scope:   testScope(t),
		GeoJSON: []byte(pointJSON),
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateLabel(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	repo.ann = domann.Reconstruct("ann-1", testScope(t), "old", []byte(pointJSON), 7, 100)

	updated, err := svc.UpdateLabel(context.Background(), "ann-1", "new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Label() != "new" {
		t.Errorf("expected 'new', got %q", updated.Label())
	}
	if len(repo.updated) != 1 || repo.updated[0].Label() != "new" {
		t.Errorf("expected 1 update with new label, got %v", repo.updated)
	}
	if repo.updated[0].CreatedAt() != 100 {
		t.Error("relabel should preserve the original timestamp")
	}
}

func TestUpdateLabel_Missing(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	repo.getErr = domain.ErrAnnotationNotFound

	_, err := svc.UpdateLabel(context.Background(), "ghost", "x")
	if !errors.Is(err, domain.ErrAnnotationNotFound) {
		t.Errorf("expected ErrAnnotationNotFound, got %v", err)
	}
	if len(repo.updated) != 0 {
		t.Error("missing annotation should not be updated")
	}
}

func TestDelete_CleansUpEverything(t *testing.T) {
	svc, repo, vectors, sessions := newTestService(t)

	if err := svc.Delete(context.Background(), "ann-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "ann-1" {
		t.Errorf("expected record delete, got %v", repo.deleted)
	}
	if len(vectors.deleted) != 1 || vectors.deleted[0] != "ann-1" {
		t.Errorf("expected vector delete, got %v", vectors.deleted)
	}
	if len(sessions.forgotten) != 1 || sessions.forgotten[0] != "ann-1" {
		t.Errorf("expected session forget, got %v", sessions.forgotten)
	}
}

func TestDelete_VectorError(t *testing.T) {
	svc, _, vectors, sessions := newTestService(t)
	vectors.err = errors.New("store down")

	if err := svc.Delete(context.Background(), "ann-1"); err == nil {
		t.Fatal("expected error")
	}
	if len(sessions.forgotten) != 0 {
		t.Error("session should not be forgotten on a failed delete")
	}
}
