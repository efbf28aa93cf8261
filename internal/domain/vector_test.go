package domain

import (
	"errors"
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("expected unit length, got squared norm %f", sum)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected normalized vector %v", v)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	for _, f := range v {
		if f != 0 {
			t.Fatalf("zero vector should stay zero, got %v", v)
		}
	}
}

func TestDot_DimMismatch(t *testing.T) {
	_, err := Dot([]float32{1, 0}, []float32{1, 0, 0})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestCosineScore_Identical(t *testing.T) {
	score, err := CosineScore([]float32{1, 0}, []float32{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-1) > 1e-6 {
		t.Errorf("expected score 1, got %f", score)
	}
}

func TestCosineScore_ClampsNegative(t *testing.T) {
	score, err := CosineScore([]float32{1, 0}, []float32{-1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0 {
		t.Errorf("opposite vectors should clamp to 0, got %f", score)
	}
}

func TestCosineScore_ClampsAboveOne(t *testing.T) {
	// Slightly over-unit vectors can push the dot product past 1.
	score, err := CosineScore([]float32{1.0001, 0}, []float32{1.0001, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 1 {
		t.Errorf("expected clamp to 1, got %f", score)
	}
}

func TestValidateDim(t *testing.T) {
	if err := ValidateDim([]float32{1, 2, 3}, 3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateDim([]float32{1, 2}, 3); !errors.Is(err, ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
	if err := ValidateDim(nil, 0); !errors.Is(err, ErrVectorDimMismatch) {
		t.Errorf("empty vector should fail, got %v", err)
	}
	// dim 0 means "any non-empty dimension".
	if err := ValidateDim([]float32{1}, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
