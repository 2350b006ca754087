// Package segment implements the Segmenter (spec.md §4.4): partitioning a
// hiragana string into valid reading spans using the available
// dictionaries plus the digit and unknown-run fallback rules, guaranteeing
// at least one BOS→EOS path through the resulting lattice (spec.md §3's
// Reading invariant, and the ConversionDegenerate handling of spec.md §7).
package segment

import (
	"regexp"
	"unicode/utf8"

	"akaza-go/internal/dict"
)

// Kind records why a Reading exists, for diagnostics and for LatticeGraph
// to decide whether a dynamic-marker node is eligible.
type Kind int

const (
	KindDict Kind = iota
	KindDigit
	KindUnknown
	KindSentinel
)

// Reading is a non-empty hiragana (or digit-tagged) substring of the
// input, identified by byte [Start,End) and its literal Text (spec.md §3).
// BOS/EOS sentinels are represented as zero-length readings at positions 0
// and N respectively.
type Reading struct {
	Start, End int
	Text       string
	Kind       Kind
}

var digitPattern = regexp.MustCompile(`^(?:0|[1-9][0-9]*)(?:\.[0-9]*)?`)

// Ends maps an end byte position to every reading that ends there,
// spec.md §4.4's contract for Segment's return value.
type Ends map[int][]Reading

// Segment partitions s using the union of dicts for common-prefix hits,
// the digit rule, and the unknown-run fallback so the lattice is always
// connected end to end.
//
// Positions are discovered through a worklist rather than a single
// left-to-right pass: an unknown run must still yield one reachable
// position at a time so that a dictionary entry starting partway through
// it (e.g. "ぞぞきょう", where きょう only becomes visible once position 6
// is reached) is not skipped just because nothing reached it yet when the
// scan began.
func Segment(s string, dicts ...*dict.Dictionary) Ends {
	n := len(s)
	ends := make(Ends)
	reachable := map[int]bool{0: true}
	processed := make(map[int]bool, n+1)
	noHit := make(map[int]bool, n+1)
	queue := []int{0}

	ends[0] = append(ends[0], Reading{Start: 0, End: 0, Kind: KindSentinel})

	enqueue := func(p int) {
		if !reachable[p] {
			reachable[p] = true
			queue = append(queue, p)
		}
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if processed[p] || p >= n {
			continue
		}
		processed[p] = true

		produced := false
		for _, d := range dicts {
			if d == nil {
				continue
			}
			for _, hit := range d.CommonPrefixSearch(s[p:]) {
				end := p + len(hit.Reading)
				ends[end] = append(ends[end], Reading{Start: p, End: end, Text: hit.Reading, Kind: KindDict})
				enqueue(end)
				produced = true
			}
		}
		if m := digitPattern.FindString(s[p:]); m != "" {
			end := p + len(m)
			ends[end] = append(ends[end], Reading{Start: p, End: end, Text: m, Kind: KindDigit})
			enqueue(end)
			produced = true
		}
		if !produced {
			noHit[p] = true
			next := p + runeLenAt(s, p)
			ends[next] = append(ends[next], Reading{Start: p, End: next, Text: s[p:next], Kind: KindUnknown})
			enqueue(next)
		}
	}

	// Bonus alternatives: for positions that had no dictionary or digit
	// hit, also offer successively longer unknown spans up to the point
	// where the single-character chain first rejoined the reachable
	// network, so the resolver has richer unknown-word groupings to
	// choose from (spec.md §4.4 step 4) without weakening connectivity,
	// which the single-character chain above already guarantees.
	for p := range noHit {
		q := p + runeLenAt(s, p)
		for q < n {
			next := q + runeLenAt(s, q)
			if processed[q] && !noHit[q] {
				break
			}
			ends[next] = append(ends[next], Reading{Start: p, End: next, Text: s[p:next], Kind: KindUnknown})
			q = next
		}
	}

	if n > 0 {
		ends[n] = append(ends[n], Reading{Start: n, End: n, Kind: KindSentinel})
	}
	return ends
}

func runeLenAt(s string, p int) int {
	_, size := utf8.DecodeRuneInString(s[p:])
	return size
}

// HasPath reports whether ends describes at least one BOS(0)→EOS(N) chain,
// the invariant spec.md §8 requires of every conversion. It is used by the
// engine to detect a ConversionDegenerate condition that should never
// actually occur given the unknown-run fallback, but is checked anyway
// since runtime errors must never propagate (spec.md §7).
func HasPath(ends Ends, n int) bool {
	reachable := map[int]bool{0: true}
	for e := 1; e <= n; e++ {
		for _, r := range ends[e] {
			if reachable[r.Start] {
				reachable[e] = true
				break
			}
		}
	}
	return reachable[n]
}
