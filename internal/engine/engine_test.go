package engine

import (
	"testing"

	"akaza-go/internal/dict"
	"akaza-go/internal/langmodel"
	"akaza-go/internal/learn"
	"akaza-go/internal/rerank"
	"akaza-go/internal/score"
)

// testDict and testModel build just enough vocabulary to exercise the
// scenarios spec.md §8 describes end to end through the full pipeline.
func testDict(t *testing.T) *dict.Dictionary {
	t.Helper()
	return dict.Build("test", []dict.Entry{
		{Reading: "きょう", Surfaces: []string{"今日"}},
		{Reading: "は", Surfaces: []string{"は"}},
		{Reading: "いい", Surfaces: []string{"いい"}},
		{Reading: "てんき", Surfaces: []string{"天気"}},
		{Reading: "です", Surfaces: []string{"です"}},
		{Reading: "ね", Surfaces: []string{"ね"}},
		{Reading: "にち", Surfaces: []string{"日"}},
		{Reading: "ぴき", Surfaces: []string{"匹"}},
	})
}

func testModel(t *testing.T) *langmodel.Model {
	t.Helper()
	uni, err := score.Build([]score.Entry{
		langmodel.EncodeUnigramEntry("今日", "きょう", 10, 0.5),
		langmodel.EncodeUnigramEntry("は", "は", 11, 0.1),
		langmodel.EncodeUnigramEntry("いい", "いい", 12, 0.5),
		langmodel.EncodeUnigramEntry("天気", "てんき", 13, 0.5),
		langmodel.EncodeUnigramEntry("です", "です", 14, 0.1),
		langmodel.EncodeUnigramEntry("ね", "ね", 15, 0.1),
		langmodel.EncodeUnigramEntry("日", "にち", 16, 0.3),
		langmodel.EncodeUnigramEntry("匹", "ぴき", 17, 0.3),
		langmodel.EncodeUnigramEntry("<NUM>", "<NUM>", langmodel.NUM, 0.2),
	})
	if err != nil {
		t.Fatal(err)
	}
	bi, err := score.Build([]score.Entry{
		langmodel.EncodeBigramEntry(langmodel.BOS, 10, 0.1),
		langmodel.EncodeBigramEntry(10, 11, 0.1),
		langmodel.EncodeBigramEntry(11, 12, 0.1),
		langmodel.EncodeBigramEntry(12, 13, 0.1),
		langmodel.EncodeBigramEntry(13, 14, 0.1),
		langmodel.EncodeBigramEntry(14, 15, 0.1),
		langmodel.EncodeBigramEntry(15, langmodel.EOS, 0.1),
		langmodel.EncodeBigramEntry(langmodel.NUM, 16, 0.1),
		langmodel.EncodeBigramEntry(16, langmodel.EOS, 0.1),
		langmodel.EncodeBigramEntry(langmodel.NUM, 17, 0.1),
		langmodel.EncodeBigramEntry(17, langmodel.EOS, 0.1),
		langmodel.EncodeBigramEntry(langmodel.BOS, langmodel.NUM, 0.1),
	})
	if err != nil {
		t.Fatal(err)
	}
	return langmodel.New(uni, bi, nil)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(testModel(t), testDict(t), nil, rerank.DefaultWeights())
}

func TestConvertReproducesSpecWorkedExample(t *testing.T) {
	e := newTestEngine(t)
	segs := e.Convert("きょうはいいてんきですね", 1)
	if len(segs) == 0 {
		t.Fatal("Convert returned no segmentations")
	}
	want := []string{"今日", "は", "いい", "天気", "です", "ね"}
	got := make([]string, len(segs[0].Clauses))
	for i, c := range segs[0].Clauses {
		got[i] = c.Candidates[0]
	}
	if len(got) != len(want) {
		t.Fatalf("clause count = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("clause %d = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestConvertDynamicRewriteForDateSpan(t *testing.T) {
	e := newTestEngine(t)
	segs := e.Convert("365にち", 1)
	if len(segs) == 0 {
		t.Fatal("Convert returned no segmentations")
	}
	clauses := segs[0].Clauses
	if len(clauses) != 2 {
		t.Fatalf("clause count = %d, want 2: %+v", len(clauses), clauses)
	}
	if clauses[0].Candidates[0] != "三百六十五" {
		t.Errorf("clause 0 = %q, want 三百六十五", clauses[0].Candidates[0])
	}
	if clauses[1].Candidates[0] != "日" {
		t.Errorf("clause 1 = %q, want 日 (unchanged, not double-materialised)", clauses[1].Candidates[0])
	}
}

func TestConvertSingleCharacterUnknownFallback(t *testing.T) {
	e := newTestEngine(t)
	segs := e.Convert("あ", 1)
	if len(segs) == 0 {
		t.Fatal("Convert returned no segmentations")
	}
	if segs[0].Clauses[0].Candidates[0] != "あ" {
		t.Errorf("single unknown kana should fall back to itself, got %q", segs[0].Clauses[0].Candidates[0])
	}
}

func TestConvertAlwaysReturnsAtLeastOnePath(t *testing.T) {
	// spec.md §7/§8: convert() always returns >= 1 path whose concatenated
	// readings equal the input, even for input with no dictionary hits at
	// all.
	e := newTestEngine(t)
	segs := e.Convert("ぞぞ", 3)
	if len(segs) == 0 {
		t.Fatal("Convert returned zero segmentations for an all-unknown input")
	}
}

func TestCommitLowersCostOfChosenPath(t *testing.T) {
	// spec.md §4.8: committing a segmentation feeds UserLearning, whose
	// costs the Engine's cost source then prefers over the system model on
	// the next convert() for the same word pair.
	e := New(testModel(t), testDict(t), learn.New(), rerank.DefaultWeights())

	before := e.Convert("きょう", 1)
	beforeCost := before[0].Cost

	if err := e.Commit("きょう", before[0]); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	// Commit repeatedly to push the learned unigram/bigram costs well below
	// the system defaults via additive smoothing.
	for i := 0; i < 20; i++ {
		if err := e.Commit("きょう", before[0]); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	after := e.Convert("きょう", 1)
	if after[0].Cost >= beforeCost {
		t.Errorf("cost after repeated commits = %v, want < %v (learning should lower it)", after[0].Cost, beforeCost)
	}
}

func TestCommitHonorsChosenSegmentation(t *testing.T) {
	// Regression test: Commit must record the word ids carried by the
	// Segmentation the caller actually passes, not recompute the engine's
	// own top-1 convert() result and commit that instead (spec.md §4.8
	// commit(segmentation)).
	e := New(testModel(t), testDict(t), learn.New(), rerank.DefaultWeights())

	before := e.Convert("きょう", 2)
	if len(before) < 2 {
		t.Fatalf("need at least 2 distinct segmentations for this test, got %d", len(before))
	}
	top := before[0].Clauses[0].Candidates[0]
	chosen := before[1]
	chosenSurface := chosen.Clauses[0].Candidates[0]
	if chosenSurface == top {
		t.Fatalf("before[0] and before[1] share surface %q; test setup assumption broken", top)
	}

	for i := 0; i < 30; i++ {
		if err := e.Commit("きょう", chosen); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	after := e.Convert("きょう", 1)
	if got := after[0].Clauses[0].Candidates[0]; got != chosenSurface {
		t.Errorf("after repeatedly committing the non-default segmentation, top candidate = %q, want %q", got, chosenSurface)
	}
}

func TestSelectClauseBoundsChecking(t *testing.T) {
	e := newTestEngine(t)
	segs := e.Convert("きょう", 2)

	if _, ok := e.SelectClause(segs, 0, 0, 0); !ok {
		t.Error("SelectClause(0,0,0) should be in range")
	}
	if _, ok := e.SelectClause(segs, len(segs), 0, 0); ok {
		t.Error("SelectClause with out-of-range segmentation index should fail")
	}
	if _, ok := e.SelectClause(segs, 0, 99, 0); ok {
		t.Error("SelectClause with out-of-range clause index should fail")
	}
	if _, ok := e.SelectClause(segs, 0, 0, 99); ok {
		t.Error("SelectClause with out-of-range candidate index should fail")
	}
}

func TestLoadMissingModelDirReturnsModelLoadError(t *testing.T) {
	_, err := Load("/nonexistent/path/for/test", "", rerank.Weights{})
	if err == nil {
		t.Fatal("Load with a missing model dir should fail")
	}
	var mle *ModelLoadError
	if !errorsAs(err, &mle) {
		t.Errorf("error = %v (%T), want *ModelLoadError", err, err)
	}
}

func errorsAs(err error, target **ModelLoadError) bool {
	if e, ok := err.(*ModelLoadError); ok {
		*target = e
		return true
	}
	return false
}
