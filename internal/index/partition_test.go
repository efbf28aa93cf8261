package index

import (
	"context"
	"errors"
	"testing"

	"github.com/anveshak/tilesearch/internal/domain"
)

func testScope(t *testing.T) domain.Scope {
	t.Helper()
	s, err := domain.NewScope("mars", "gale")
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	return s
}

func testEntries() []Entry {
	return []Entry{
		{X: 0, Y: 0, Vector: []float32{1, 0}},
		{X: 1, Y: 0, Vector: []float32{0.8, 0.6}},
		{X: 2, Y: 0, Vector: []float32{0, 1}},
		{X: 3, Y: 0, Vector: []float32{0.6, 0.8}},
	}
}

func TestNewPartition_DimMismatch(t *testing.T) {
	entries := []Entry{{X: 0, Y: 0, Vector: []float32{1, 0, 0}}}
	_, err := NewPartition(testScope(t), 3, 2, entries)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_RankedByScore(t *testing.T) {
	p, err := NewPartition(testScope(t), 3, 2, testEntries())
	if err != nil {
		t.Fatalf("NewPartition: %v", err)
	}

	hits, err := p.Search(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 4 {
		t.Fatalf("expected 4 hits, got %d", len(hits))
	}
	if hits[0].X != 0 {
		t.Errorf("expected exact match first, got %+v", hits[0])
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted descending at %d", i)
		}
	}
	for _, h := range hits {
		if h.Z != 3 {
			t.Errorf("expected z=3, got %d", h.Z)
		}
		if h.Score < 0 || h.Score > 1 {
			t.Errorf("score out of [0,1]: %f", h.Score)
		}
	}
}

func TestSearch_TopKTruncates(t *testing.T) {
	p, _ := NewPartition(testScope(t), 3, 2, testEntries())
	hits, err := p.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}
}

func TestSearch_TieBreakDeterministic(t *testing.T) {
	entries := []Entry{
		{X: 7, Y: 1, Vector: []float32{1, 0}},
		{X: 2, Y: 5, Vector: []float32{1, 0}},
		{X: 2, Y: 3, Vector: []float32{1, 0}},
	}
	p, _ := NewPartition(testScope(t), 4, 2, entries)

	hits, err := p.Search(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].X != 2 || hits[0].Y != 3 {
		t.Errorf("expected (2,3) first, got (%d,%d)", hits[0].X, hits[0].Y)
	}
	if hits[1].X != 2 || hits[1].Y != 5 {
		t.Errorf("expected (2,5) second, got (%d,%d)", hits[1].X, hits[1].Y)
	}
	if hits[2].X != 7 || hits[2].Y != 1 {
		t.Errorf("expected (7,1) third, got (%d,%d)", hits[2].X, hits[2].Y)
	}
}

func TestSearch_QueryDimMismatch(t *testing.T) {
	p, _ := NewPartition(testScope(t), 3, 2, testEntries())
	_, err := p.Search(context.Background(), []float32{1, 0, 0}, 10)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_CancelledContext(t *testing.T) {
	p, _ := NewPartition(testScope(t), 3, 2, testEntries())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Search(ctx, []float32{1, 0}, 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSearch_ZeroTopK(t *testing.T) {
	p, _ := NewPartition(testScope(t), 3, 2, testEntries())
	hits, err := p.Search(context.Background(), []float32{1, 0}, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}
