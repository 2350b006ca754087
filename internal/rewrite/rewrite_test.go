package rewrite

import (
	"testing"

	"akaza-go/internal/lattice"
)

func TestInt2Kanji(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0", "〇"},
		{"1", "一"},
		{"5", "五"},
		{"10", "十"},
		{"11", "十一"},
		{"20", "二十"},
		{"100", "百"},
		{"365", "三百六十五"},
		{"1000", "千"},
		{"1999", "千九百九十九"},
		{"10000", "一万"},
		{"123456", "十二万三千四百五十六"},
	}
	for _, c := range cases {
		if got := Int2Kanji(c.in); got != c.want {
			t.Errorf("Int2Kanji(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMaterialiseNonMarkerPassesThrough(t *testing.T) {
	n := lattice.WordNode{Surface: "今日", Reading: "きょう"}
	got := Materialise(n)
	if got.Surface != "今日" {
		t.Errorf("Materialise changed a non-marker surface: %q", got.Surface)
	}
}

func TestMaterialiseNumberKansuji(t *testing.T) {
	n := lattice.WordNode{
		Surface: lattice.Marker(lattice.ClassNumberKansuji),
		Reading: "365",
		Dynamic: true,
	}
	got := Materialise(n)
	if got.Surface != "三百六十五" {
		t.Errorf("Materialise(NUMBER-KANSUJI 365) = %q, want 三百六十五", got.Surface)
	}
}

func TestMaterialisePathLeavesAdjacentNodeIntact(t *testing.T) {
	// The 365にち scenario: the digit node materialises to 三百六十五, and
	// the adjacent にち->日 dictionary node is untouched (spec.md §8
	// example 4).
	nodes := []lattice.WordNode{
		{Surface: lattice.Marker(lattice.ClassDateDay), Reading: "365", Dynamic: true},
		{Surface: "日", Reading: "にち"},
	}
	out := MaterialisePath(nodes)
	if out[0].Surface != "三百六十五" {
		t.Errorf("out[0].Surface = %q, want 三百六十五", out[0].Surface)
	}
	if out[1].Surface != "日" {
		t.Errorf("out[1].Surface = %q, want unchanged 日", out[1].Surface)
	}
}
