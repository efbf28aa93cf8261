package search

import "github.com/anveshak/tilesearch/internal/domain/search/result"

// mergeTiles concatenates per-zoom result sets, re-sorts them by score
// (ties broken by z, x, y ascending) and truncates to topK.
func mergeTiles(sets [][]result.SimilarTile, topK int) []result.SimilarTile {
	total := 0
	for _, set := range sets {
		total += len(set)
	}
	merged := make([]result.SimilarTile, 0, total)
	for _, set := range sets {
		merged = append(merged, set...)
	}
	result.SortTiles(merged)
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}
