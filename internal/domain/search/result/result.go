// Package result holds the ranked hit types returned by similarity search.
package result

import "sort"

// SimilarTile is a single ranked tile hit.
type SimilarTile struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Z     int     `json:"z"`
	Score float64 `json:"score"`
}

// AnnotationMatch is a ranked hit of the legacy annotation-keyed variant.
type AnnotationMatch struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Less orders tiles by score descending, ties by (z, x, y) ascending.
// The tie-break makes rankings reproducible across runs.
func Less(a, b SimilarTile) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// SortTiles sorts tiles in ranking order.
func SortTiles(tiles []SimilarTile) {
	sort.Slice(tiles, func(i, j int) bool { return Less(tiles[i], tiles[j]) })
}

// SortMatches sorts annotation matches by score descending, ties by id ascending.
func SortMatches(matches []AnnotationMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
}
