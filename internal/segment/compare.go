package segment

import (
	"fmt"
	"sync"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome-dict/uni"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// kagome morphological analysis is whole-word, not lattice-of-readings, so
// it cannot supply the Segmenter's reading spans directly (SPEC_FULL.md
// §4.4). It is instead wired in here as two independent cross-checks —
// IPADIC and UniDic disagree often enough on boundary placement that
// agreement between both is a stronger signal than either alone — surfaced
// through CompareWithKagome for CLI/test tooling, grounded on the teacher's
// tokenize.go kg-singleton pattern.
var (
	kgIPA     *tokenizer.Tokenizer
	kgIPAOnce sync.Once
	kgIPAErr  error

	kgUni     *tokenizer.Tokenizer
	kgUniOnce sync.Once
	kgUniErr  error
)

func ipaTokenizer() (*tokenizer.Tokenizer, error) {
	kgIPAOnce.Do(func() {
		kgIPA, kgIPAErr = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	return kgIPA, kgIPAErr
}

func uniTokenizer() (*tokenizer.Tokenizer, error) {
	kgUniOnce.Do(func() {
		kgUni, kgUniErr = tokenizer.New(uni.Dict(), tokenizer.OmitBosEos())
	})
	return kgUni, kgUniErr
}

func boundariesOf(t *tokenizer.Tokenizer, s string) []int {
	bounds := make([]int, 0)
	pos := 0
	for _, tok := range t.Tokenize(s) {
		if tok.Surface == "" {
			continue
		}
		pos += len(tok.Surface)
		bounds = append(bounds, pos)
	}
	return bounds
}

// BoundaryReport compares the Segmenter's reachable reading-span boundaries
// against two independent kagome tokenizations (IPADIC and UniDic) of the
// same input.
type BoundaryReport struct {
	SegmenterBoundaries []int
	KagomeBoundaries    []int // IPADIC
	UniDicBoundaries    []int
	Agree               bool // true iff both kagome tokenizations are boundary-subsets of the Segmenter's
}

// CompareWithKagome runs all three boundary detectors over s and reports
// where they agree. It never affects the conversion result; it exists
// purely as a diagnostic cross-check (SPEC_FULL.md §4.5).
func CompareWithKagome(s string, ends Ends) (BoundaryReport, error) {
	ipaT, err := ipaTokenizer()
	if err != nil {
		return BoundaryReport{}, fmt.Errorf("segment: ipadic tokenizer unavailable: %w", err)
	}
	uniT, err := uniTokenizer()
	if err != nil {
		return BoundaryReport{}, fmt.Errorf("segment: unidic tokenizer unavailable: %w", err)
	}

	segBounds := make([]int, 0, len(ends))
	for e := range ends {
		segBounds = append(segBounds, e)
	}
	segBounds = sortInts(segBounds)

	ipaBounds := boundariesOf(ipaT, s)
	uniBounds := boundariesOf(uniT, s)

	return BoundaryReport{
		SegmenterBoundaries: segBounds,
		KagomeBoundaries:    ipaBounds,
		UniDicBoundaries:    uniBounds,
		Agree:               kagomeSubsetOf(ipaBounds, segBounds) && kagomeSubsetOf(uniBounds, segBounds),
	}, nil
}

func sortInts(xs []int) []int {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
	return xs
}

// kagomeSubsetOf reports whether every kagome boundary is also reachable
// in the Segmenter's lattice; the Segmenter always has at least as many
// candidate boundaries since it keeps every dictionary-length alternative
// rather than picking one.
func kagomeSubsetOf(kagomeBounds, segBounds []int) bool {
	set := make(map[int]bool, len(segBounds))
	for _, v := range segBounds {
		set[v] = true
	}
	for _, v := range kagomeBounds {
		if !set[v] {
			return false
		}
	}
	return true
}
