// Package rerank implements ReRanker (spec.md §4.7): linear re-scoring of
// the k-best Paths GraphResolver produced, using tunable weights distinct
// from the DP's own equal-weight scoring.
package rerank

import (
	"sort"

	"akaza-go/internal/resolve"
)

// Weights is ReRankingWeights (spec.md §4.7). UnigramWeight is fixed at
// 1.0 (the scale anchor) and is not configurable.
type Weights struct {
	BigramWeight        float32
	LengthWeight        float32
	UnknownBigramWeight float32
	SkipBigramWeight    float32
}

// DefaultWeights reproduce equal-weight DP behaviour exactly (spec.md
// §4.7: "This compatibility is a hard invariant."), so that re-ranking
// with the defaults is a strict no-op against the DP's own ordering.
func DefaultWeights() Weights {
	return Weights{
		BigramWeight:        1.0,
		LengthWeight:        0.0,
		UnknownBigramWeight: 1.0,
		SkipBigramWeight:    1.0,
	}
}

// Rerank computes RerankCost for every path and returns them re-sorted
// ascending by it, stable against the original (viterbi-rank) order on
// ties (spec.md §4.7).
func Rerank(paths []resolve.Path, w Weights) []resolve.Path {
	out := make([]resolve.Path, len(paths))
	copy(out, paths)
	for i := range out {
		out[i].RerankCost = out[i].UnigramCost +
			w.BigramWeight*out[i].BigramCost +
			w.UnknownBigramWeight*out[i].UnknownBigramCost +
			w.SkipBigramWeight*out[i].SkipBigramCost +
			w.LengthWeight*float32(out[i].TokenCount)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].RerankCost < out[b].RerankCost })
	return out
}
