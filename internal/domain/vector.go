package domain

import (
	"fmt"
	"math"
)

// Normalize scales v to unit length in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Dot returns the dot product of two equal-length vectors.
// For unit vectors this is the cosine similarity.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrVectorDimMismatch, len(a), len(b))
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// CosineScore returns the cosine similarity of two unit vectors clamped
// to [0,1]. Negative cosines clamp to 0: the feature space is assumed
// non-negative and the wire contract promises scores in [0,1].
func CosineScore(a, b []float32) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	if dot < 0 {
		return 0, nil
	}
	if dot > 1 {
		return 1, nil
	}
	return dot, nil
}

// ValidateDim checks a vector against the expected dimension.
func ValidateDim(v []float32, dim int) error {
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrVectorDimMismatch, len(v), dim)
	}
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", ErrVectorDimMismatch)
	}
	return nil
}
