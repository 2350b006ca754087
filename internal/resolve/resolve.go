// Package resolve implements GraphResolver (spec.md §4.6): the k-best
// forward Viterbi pass over a LatticeGraph, followed by backward
// enumeration into distinct Path candidates.
package resolve

import (
	"sort"

	"akaza-go/internal/lattice"
	"akaza-go/internal/langmodel"
)

// Path is one materialised BOS..EOS segmentation with its accumulated
// cost breakdown (spec.md §3).
type Path struct {
	Nodes []lattice.WordNode // full chain including the BOS/EOS sentinels

	UnigramCost        float32
	BigramCost         float32
	UnknownBigramCost  float32
	SkipBigramCost     float32
	UnknownBigramCount int
	TokenCount         int

	ViterbiCost float32 // DP-weight total; never overwritten after construction
	RerankCost  float32 // filled in by the ReRanker; equals ViterbiCost until then
}

// Tokens returns the non-sentinel nodes of the path, in order.
func (p Path) Tokens() []lattice.WordNode {
	if len(p.Nodes) <= 2 {
		return nil
	}
	return p.Nodes[1 : len(p.Nodes)-1]
}

// Surface concatenates the path's token surfaces, the key used to collapse
// duplicate segmentations at the surface level (spec.md §4.6).
func (p Path) Surface() string {
	s := ""
	for _, n := range p.Tokens() {
		s += n.Surface
	}
	return s
}

type nodeKey struct{ end, idx int }

// entry is one ranked extension reaching a specific node, keeping enough
// of its own chain (prevKey/prevRank/prevWordID) to both materialise a
// Path in the backward pass and compute a skip-bigram term for whatever
// extends past it.
type entry struct {
	node    lattice.WordNode
	surface string // concatenated surfaces of the chain up to and including node

	unigramTotal       float32
	bigramTotal        float32
	unknownBigramTotal float32
	skipBigramTotal    float32
	unknownBigramCount int
	tokenCount         int
	viterbiCost        float32

	prevWordID langmodel.WordID
	hasPrev    bool

	prevKey  nodeKey
	prevRank int
}

// Resolve runs the k-best forward DP over g and returns up to k distinct
// Paths ordered by ascending ViterbiCost.
func Resolve(g *lattice.Graph, model langmodel.CostSource, k int) []Path {
	if k < 1 {
		k = 1
	}

	ends := make([]int, 0, len(g.ByEnd))
	for e := range g.ByEnd {
		ends = append(ends, e)
	}
	sort.Ints(ends)

	table := make(map[nodeKey][]entry, len(g.ByEnd))

	for _, e := range ends {
		nodes := g.ByEnd[e]
		order := make([]int, len(nodes))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return nodes[order[a]].Start < nodes[order[b]].Start })

		for _, idx := range order {
			n := nodes[idx]
			key := nodeKey{e, idx}

			if n.Start == 0 && n.End == 0 {
				table[key] = []entry{{node: n}}
				continue
			}

			predNodes := g.ByEnd[n.Start]
			var candidates []entry
			for midx, m := range predNodes {
				for r, pe := range table[nodeKey{n.Start, midx}] {
					bc, known := model.BigramCost(m.WordID, n.WordID)
					var bigramDelta, unknownDelta float32
					unknownCount := 0
					if known {
						bigramDelta = bc
					} else {
						unknownDelta = bc
						unknownCount = 1
					}
					var skipDelta float32
					if pe.hasPrev {
						skipDelta = model.SkipBigramCost(pe.prevWordID, n.WordID)
					}
					tokenDelta := 1
					if n.Start == n.End {
						tokenDelta = 0 // the EOS sentinel is not a token
					}
					cand := entry{
						node:               n,
						surface:            pe.surface + n.Surface,
						unigramTotal:       pe.unigramTotal + n.UnigramLog,
						bigramTotal:        pe.bigramTotal + bigramDelta,
						unknownBigramTotal: pe.unknownBigramTotal + unknownDelta,
						skipBigramTotal:    pe.skipBigramTotal + skipDelta,
						unknownBigramCount: pe.unknownBigramCount + unknownCount,
						tokenCount:         pe.tokenCount + tokenDelta,
						prevWordID:         m.WordID,
						hasPrev:            true,
						prevKey:            nodeKey{n.Start, midx},
						prevRank:           r,
					}
					// Summed from the totals in the same order the ReRanker uses,
					// so default weights reproduce it bit for bit.
					cand.viterbiCost = cand.unigramTotal + cand.bigramTotal + cand.unknownBigramTotal + cand.skipBigramTotal
					candidates = append(candidates, cand)
				}
			}

			sort.SliceStable(candidates, func(a, b int) bool {
				ca, cb := candidates[a], candidates[b]
				if ca.viterbiCost != cb.viterbiCost {
					return ca.viterbiCost < cb.viterbiCost
				}
				if ca.tokenCount != cb.tokenCount {
					return ca.tokenCount < cb.tokenCount
				}
				return ca.surface < cb.surface
			})
			if len(candidates) > k {
				candidates = candidates[:k]
			}
			table[key] = candidates
		}
	}

	n := g.N
	eosEntries := bestEntriesAt(g, table, n, langmodel.EOS)

	paths := make([]Path, 0, len(eosEntries))
	seenSurface := make(map[string]bool)
	for _, fe := range eosEntries {
		chain := materialise(table, fe.key, fe.rank)
		p := pathFromEntry(chain)
		surf := p.Surface()
		if seenSurface[surf] {
			continue
		}
		seenSurface[surf] = true
		paths = append(paths, p)
		if len(paths) >= k {
			break
		}
	}
	return paths
}

type finalEntry struct {
	key  nodeKey
	rank int
}

// bestEntriesAt gathers the table entries for the node at position e whose
// word id matches want (EOS), across every node index sharing that end
// position, re-sorted together since LatticeGraph may in principle place
// more than one such node there.
func bestEntriesAt(g *lattice.Graph, table map[nodeKey][]entry, e int, want langmodel.WordID) []finalEntry {
	var out []finalEntry
	for idx, n := range g.ByEnd[e] {
		if n.WordID != want {
			continue
		}
		for r := range table[nodeKey{e, idx}] {
			out = append(out, finalEntry{key: nodeKey{e, idx}, rank: r})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		ea, eb := table[out[a].key][out[a].rank], table[out[b].key][out[b].rank]
		if ea.viterbiCost != eb.viterbiCost {
			return ea.viterbiCost < eb.viterbiCost
		}
		if ea.tokenCount != eb.tokenCount {
			return ea.tokenCount < eb.tokenCount
		}
		return ea.surface < eb.surface
	})
	return out
}

// materialise walks prevKey/prevRank pointers from a final entry back to
// BOS, returning the chain in forward order (spec.md §4.6 backward pass).
func materialise(table map[nodeKey][]entry, key nodeKey, rank int) []entry {
	var chain []entry
	for {
		e := table[key][rank]
		chain = append(chain, e)
		if !e.hasPrev && e.node.Start == 0 && e.node.End == 0 {
			break
		}
		key, rank = e.prevKey, e.prevRank
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func pathFromEntry(chain []entry) Path {
	last := chain[len(chain)-1]
	p := Path{
		UnigramCost:        last.unigramTotal,
		BigramCost:         last.bigramTotal,
		UnknownBigramCost:  last.unknownBigramTotal,
		SkipBigramCost:     last.skipBigramTotal,
		UnknownBigramCount: last.unknownBigramCount,
		TokenCount:         last.tokenCount,
		ViterbiCost:        last.viterbiCost,
		RerankCost:         last.viterbiCost,
	}
	p.Nodes = make([]lattice.WordNode, len(chain))
	for i, e := range chain {
		p.Nodes[i] = e.node
	}
	return p
}
