package segment

import (
	"testing"

	"akaza-go/internal/dict"
)

func testDict() *dict.Dictionary {
	return dict.Build("test", []dict.Entry{
		{Reading: "きょう", Surfaces: []string{"今日"}},
		{Reading: "きょうは", Surfaces: []string{"今日は"}},
		{Reading: "は", Surfaces: []string{"は"}},
		{Reading: "いい", Surfaces: []string{"いい"}},
		{Reading: "てんき", Surfaces: []string{"天気"}},
		{Reading: "です", Surfaces: []string{"です"}},
		{Reading: "ね", Surfaces: []string{"ね"}},
	})
}

func TestSegmentProducesSentinels(t *testing.T) {
	ends := Segment("きょう", testDict())
	if len(ends[0]) != 1 || ends[0][0].Kind != KindSentinel {
		t.Fatalf("ends[0] = %+v, want single BOS sentinel", ends[0])
	}
	n := len("きょう")
	if _, ok := ends[n]; !ok {
		t.Fatalf("missing EOS sentinel entry at %d", n)
	}
	found := false
	for _, r := range ends[n] {
		if r.Kind == KindSentinel {
			found = true
		}
	}
	if !found {
		t.Errorf("ends[%d] has no EOS sentinel: %+v", n, ends[n])
	}
}

func TestSegmentFindsDictHits(t *testing.T) {
	s := "きょうはいいてんきですね"
	ends := Segment(s, testDict())
	if !HasPath(ends, len(s)) {
		t.Fatalf("no BOS->EOS path through lattice for %q", s)
	}

	kyouEnd := len("きょう")
	var gotKyou, gotKyouha bool
	for _, r := range ends[kyouEnd] {
		if r.Start == 0 && r.Text == "きょう" {
			gotKyou = true
		}
	}
	kyouhaEnd := len("きょうは")
	for _, r := range ends[kyouhaEnd] {
		if r.Start == 0 && r.Text == "きょうは" {
			gotKyouha = true
		}
	}
	if !gotKyou {
		t.Errorf("expected a きょう reading ending at %d", kyouEnd)
	}
	if !gotKyouha {
		t.Errorf("expected a きょうは reading ending at %d", kyouhaEnd)
	}
}

func TestSegmentDigitRule(t *testing.T) {
	s := "365にち"
	ends := Segment(s, testDict())
	if !HasPath(ends, len(s)) {
		t.Fatalf("no path for %q", s)
	}
	digitLen := len("365")
	var gotDigit bool
	for _, r := range ends[digitLen] {
		if r.Start == 0 && r.Kind == KindDigit && r.Text == "365" {
			gotDigit = true
		}
	}
	if !gotDigit {
		t.Errorf("expected digit reading \"365\" ending at %d, got %+v", digitLen, ends[digitLen])
	}
}

func TestSegmentUnknownFallbackSingleChar(t *testing.T) {
	s := "あ"
	ends := Segment(s, testDict())
	n := len(s)
	if !HasPath(ends, n) {
		t.Fatalf("no path for unknown single-character input %q", s)
	}
	var gotUnknown bool
	for _, r := range ends[n] {
		if r.Kind == KindUnknown && r.Start == 0 && r.Text == "あ" {
			gotUnknown = true
		}
	}
	if !gotUnknown {
		t.Errorf("expected unknown-run fallback reading covering whole input, got %+v", ends[n])
	}
}

func TestSegmentUnknownRunChainsToReachablePoint(t *testing.T) {
	// "ぞぞきょう": ぞぞ is unknown to the dict, きょう is known. The unknown
	// run must chain forward until it reaches the point where きょう's
	// dictionary hit already makes position reachable.
	s := "ぞぞきょう"
	ends := Segment(s, testDict())
	if !HasPath(ends, len(s)) {
		t.Fatalf("no path for %q", s)
	}
}

func TestHasPathDisconnected(t *testing.T) {
	ends := Ends{
		0: {{Start: 0, End: 0, Kind: KindSentinel}},
		3: {{Start: 3, End: 3, Kind: KindSentinel}},
	}
	if HasPath(ends, 3) {
		t.Errorf("HasPath should be false when there is no connecting reading")
	}
}
