package domain

import "testing"

func TestNewScope(t *testing.T) {
	s, err := NewScope("mars", "gale-crater")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Dataset() != "mars" {
		t.Errorf("expected dataset 'mars', got %q", s.Dataset())
	}
	if s.Footprint() != "gale-crater" {
		t.Errorf("expected footprint 'gale-crater', got %q", s.Footprint())
	}
	if s.IsZero() {
		t.Error("scope should not be zero")
	}
}

func TestNewScope_DatasetOnly(t *testing.T) {
	s, err := NewScope("mars", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Footprint() != "" {
		t.Errorf("expected empty footprint, got %q", s.Footprint())
	}
}

func TestNewScope_EmptyDataset(t *testing.T) {
	if _, err := NewScope("", "fp"); err == nil {
		t.Fatal("expected error for empty dataset")
	}
}

func TestNewScope_ReservedCharacters(t *testing.T) {
	cases := []struct {
		dataset, footprint string
	}{
		{"mars/1", ""},
		{"mars:1", ""},
		{"mars", "a/b"},
		{"mars", "a:b"},
	}
	for _, c := range cases {
		if _, err := NewScope(c.dataset, c.footprint); err == nil {
			t.Errorf("expected error for %q/%q", c.dataset, c.footprint)
		}
	}
}

func TestScope_String(t *testing.T) {
	s, _ := NewScope("mars", "")
	if s.String() != "mars" {
		t.Errorf("expected 'mars', got %q", s.String())
	}
	s, _ = NewScope("mars", "gale")
	if s.String() != "mars/gale" {
		t.Errorf("expected 'mars/gale', got %q", s.String())
	}
}

func TestScope_IsZero(t *testing.T) {
	var s Scope
	if !s.IsZero() {
		t.Error("zero-value scope should be zero")
	}
}
