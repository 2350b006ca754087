// Package lattice builds the LatticeGraph (spec.md §4.5): one WordNode per
// plausible surface at every reading span the Segmenter found, plus the
// hiragana/katakana fallback nodes every span gets regardless of whether
// dictionaries produced a hit.
package lattice

import (
	"strings"

	"akaza-go/internal/dict"
	"akaza-go/internal/langmodel"
	"akaza-go/internal/segment"
)

// WordNode is one candidate word occupying a reading span in the lattice.
type WordNode struct {
	Start, End int
	Reading    string
	Surface    string
	WordID     langmodel.WordID
	UnigramLog float32
	Dynamic    bool // true if Surface is a marker a DynamicRewriter must materialise before display
}

// Dynamic markers (spec.md §3: `surface` of the form `"(*(*("<class>"`
// signals that the real surface is produced by a rewriter at display
// time). The marker is wrapped in NUL-delimited sentinels rather than the
// spec's literal punctuation form, since that form is not distinguishable
// from a legitimate dictionary surface; NUL never appears in real input.
const (
	markerPrefix = "\x00DYN:"
	markerSuffix = "\x00"

	ClassNumberKansuji = "NUMBER-KANSUJI"
	ClassDateYear      = "DATE-YEAR"
	ClassDateMonth     = "DATE-MONTH"
	ClassDateDay       = "DATE-DAY"
	ClassTimeHour      = "TIME-HOUR"
	ClassTimeMinute    = "TIME-MINUTE"
)

// Marker builds the opaque surface for a dynamic-marker node of the given
// class.
func Marker(class string) string { return markerPrefix + class + markerSuffix }

// IsMarker reports whether s is a dynamic-marker surface.
func IsMarker(s string) bool {
	return strings.HasPrefix(s, markerPrefix) && strings.HasSuffix(s, markerSuffix)
}

// MarkerClass extracts the class name from a marker surface. The result
// is unspecified if IsMarker(s) is false.
func MarkerClass(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, markerPrefix), markerSuffix)
}

// dateSuffixClass maps the hiragana counter word immediately following a
// digit span to the DynamicRewriters date/time class it signals.
var dateSuffixClass = map[string]string{
	"ねん": ClassDateYear,
	"がつ": ClassDateMonth,
	"にち": ClassDateDay,
	"じ":  ClassTimeHour,
	"ふん": ClassTimeMinute,
	"ぷん": ClassTimeMinute,
}

// Graph is the full set of WordNodes, organized by end position the same
// way Segmenter's Ends are, so GraphResolver's forward DP can scan a
// single end position at a time.
type Graph struct {
	ByEnd map[int][]WordNode
	N     int
}

// katakanaOf maps every hiragana rune in s to its katakana counterpart;
// used for the always-on katakana fallback node (spec.md §4.5).
func katakanaOf(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0x3041 && r <= 0x3096 {
			r += 0x60
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Build constructs the lattice for ends (the Segmenter's output) by
// attaching dictionary candidate surfaces, the numeric token, and the
// always-available hiragana/katakana fallbacks to each reading span. src
// is the original input, used to look ahead past a digit span for a
// date/time counter suffix (spec.md §4.5's "dynamic marker if reading
// matches a numeric/date/time pattern").
func Build(ends segment.Ends, n int, model langmodel.CostSource, dictionary *dict.Dictionary, src string) *Graph {
	g := &Graph{ByEnd: make(map[int][]WordNode, len(ends)), N: n}

	for end, readings := range ends {
		seenSurface := make(map[string]bool)
		for _, r := range readings {
			switch r.Kind {
			case segment.KindSentinel:
				var id langmodel.WordID
				if r.Start == 0 && r.End == 0 {
					id = langmodel.BOS
				} else {
					id = langmodel.EOS
				}
				g.ByEnd[end] = append(g.ByEnd[end], WordNode{Start: r.Start, End: r.End, WordID: id})
				continue
			case segment.KindDigit:
				id, cost := model.WordCost(r.Text, r.Text)
				class := ClassNumberKansuji
				for suffix, c := range dateSuffixClass {
					if strings.HasPrefix(src[r.End:], suffix) {
						class = c
						break
					}
				}
				g.ByEnd[end] = append(g.ByEnd[end], WordNode{
					Start: r.Start, End: r.End, Reading: r.Text, Surface: Marker(class),
					WordID: id, UnigramLog: cost, Dynamic: true,
				})
				continue
			}

			if dictionary != nil {
				if surfaces, ok := dictionary.Lookup(r.Text); ok {
					for _, surface := range surfaces {
						if seenSurface[surface] {
							continue
						}
						seenSurface[surface] = true
						id, cost := model.WordCost(surface, r.Text)
						g.ByEnd[end] = append(g.ByEnd[end], WordNode{
							Start: r.Start, End: r.End, Reading: r.Text, Surface: surface,
							WordID: id, UnigramLog: cost,
						})
					}
				}
			}

			if !seenSurface[r.Text] {
				seenSurface[r.Text] = true
				id, cost := model.WordCost(r.Text, r.Text)
				g.ByEnd[end] = append(g.ByEnd[end], WordNode{
					Start: r.Start, End: r.End, Reading: r.Text, Surface: r.Text,
					WordID: id, UnigramLog: cost,
				})
			}

			kata := katakanaOf(r.Text)
			if kata != r.Text && !seenSurface[kata] {
				seenSurface[kata] = true
				id, cost := model.WordCost(kata, r.Text)
				g.ByEnd[end] = append(g.ByEnd[end], WordNode{
					Start: r.Start, End: r.End, Reading: r.Text, Surface: kata,
					WordID: id, UnigramLog: cost,
				})
			}
		}
	}

	return g
}
