package lattice

import (
	"testing"

	"akaza-go/internal/dict"
	"akaza-go/internal/langmodel"
	"akaza-go/internal/score"
	"akaza-go/internal/segment"
)

func testModel(t *testing.T) *langmodel.Model {
	t.Helper()
	uni, err := score.Build([]score.Entry{
		langmodel.EncodeUnigramEntry("BOS", "", langmodel.BOS, 0),
		langmodel.EncodeUnigramEntry("EOS", "", langmodel.EOS, 0),
		langmodel.EncodeUnigramEntry("今日", "きょう", 10, 1.5),
	})
	if err != nil {
		t.Fatal(err)
	}
	bi, err := score.Build([]score.Entry{
		langmodel.EncodeBigramEntry(langmodel.BOS, 10, 0.3),
	})
	if err != nil {
		t.Fatal(err)
	}
	return langmodel.New(uni, bi, nil)
}

func TestBuildAttachesDictHitsAndFallbacks(t *testing.T) {
	m := testModel(t)
	d := dict.Build("test", []dict.Entry{{Reading: "きょう", Surfaces: []string{"今日"}}})
	s := "きょう"
	ends := segment.Segment(s, d)
	g := Build(ends, len(s), m, d, s)

	end := len(s)
	var gotDict, gotHiragana bool
	for _, n := range g.ByEnd[end] {
		if n.Surface == "今日" && n.Start == 0 {
			gotDict = true
		}
		if n.Surface == "きょう" && n.Start == 0 {
			gotHiragana = true
		}
	}
	if !gotDict {
		t.Errorf("expected a 今日 WordNode ending at %d, got %+v", end, g.ByEnd[end])
	}
	if !gotHiragana {
		t.Errorf("expected the hiragana fallback WordNode ending at %d, got %+v", end, g.ByEnd[end])
	}
}

func TestBuildAddsKatakanaFallback(t *testing.T) {
	m := testModel(t)
	s := "きょう"
	ends := segment.Segment(s, nil)
	g := Build(ends, len(s), m, nil, s)

	end := len(s)
	var gotKatakana bool
	for _, n := range g.ByEnd[end] {
		if n.Surface == "キョウ" {
			gotKatakana = true
		}
	}
	if !gotKatakana {
		t.Errorf("expected katakana fallback WordNode ending at %d, got %+v", end, g.ByEnd[end])
	}
}

func TestBuildSentinelNodes(t *testing.T) {
	m := testModel(t)
	s := "きょう"
	ends := segment.Segment(s, nil)
	g := Build(ends, len(s), m, nil, s)

	var gotBOS bool
	for _, n := range g.ByEnd[0] {
		if n.WordID == langmodel.BOS {
			gotBOS = true
		}
	}
	if !gotBOS {
		t.Errorf("expected BOS sentinel node at end=0, got %+v", g.ByEnd[0])
	}

	n := len(s)
	var gotEOS bool
	for _, node := range g.ByEnd[n] {
		if node.WordID == langmodel.EOS {
			gotEOS = true
		}
	}
	if !gotEOS {
		t.Errorf("expected EOS sentinel node at end=%d, got %+v", n, g.ByEnd[n])
	}
}

func TestBuildNoDuplicateSurfacesPerSpan(t *testing.T) {
	m := testModel(t)
	d := dict.Build("test", []dict.Entry{{Reading: "きょう", Surfaces: []string{"今日", "今日"}}})
	s := "きょう"
	ends := segment.Segment(s, d)
	g := Build(ends, len(s), m, d, s)

	end := len(s)
	count := 0
	for _, n := range g.ByEnd[end] {
		if n.Surface == "今日" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("got %d 今日 nodes, want 1 (deduped)", count)
	}
}

func TestBuildDigitSpanProducesDynamicMarker(t *testing.T) {
	m := testModel(t)
	d := dict.Build("test", []dict.Entry{{Reading: "にち", Surfaces: []string{"日"}}})
	s := "365にち"
	ends := segment.Segment(s, d)
	g := Build(ends, len(s), m, d, s)

	digitEnd := len("365")
	var got *WordNode
	for i, n := range g.ByEnd[digitEnd] {
		if n.Start == 0 {
			got = &g.ByEnd[digitEnd][i]
		}
	}
	if got == nil {
		t.Fatalf("no node ending at %d for the digit span", digitEnd)
	}
	if !got.Dynamic || !IsMarker(got.Surface) {
		t.Fatalf("digit node is not a dynamic marker: %+v", got)
	}
	if MarkerClass(got.Surface) != ClassDateDay {
		t.Errorf("MarkerClass = %q, want %q (365 is followed by にち)", MarkerClass(got.Surface), ClassDateDay)
	}
	if got.WordID != langmodel.NUM {
		t.Errorf("digit node WordID = %d, want NUM", got.WordID)
	}
}
