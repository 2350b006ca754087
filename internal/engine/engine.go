// Package engine wires Segmenter, LatticeGraph, GraphResolver, ReRanker,
// UserLearning and DynamicRewriters into the Engine spec.md §2 describes:
// a single in-process entry point answering convert/commit/
// available_segmentations/select_clause over a loaded LanguageModel,
// Dictionary set and UserLearning store.
package engine

import (
	"fmt"
	"path/filepath"

	"akaza-go/internal/dict"
	"akaza-go/internal/langmodel"
	"akaza-go/internal/lattice"
	"akaza-go/internal/learn"
	"akaza-go/internal/rerank"
	"akaza-go/internal/resolve"
	"akaza-go/internal/rewrite"
	"akaza-go/internal/segment"
	"akaza-go/internal/xlog"
)

// ModelLoadError reports a missing or malformed required model file
// (spec.md §7 kind 1). It is fatal at construction time.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("engine: loading %s: %v", e.Path, e.Err)
}
func (e *ModelLoadError) Unwrap() error { return e.Err }

// UserLearningIOError reports a UserLearning persistence failure
// (spec.md §7 kind 4). It is never fatal: the in-memory state is kept and
// the next Commit retries the write.
type UserLearningIOError struct {
	Path string
	Err  error
}

func (e *UserLearningIOError) Error() string {
	return fmt.Sprintf("engine: persisting user learning to %s: %v", e.Path, e.Err)
}
func (e *UserLearningIOError) Unwrap() error { return e.Err }

// ClauseCandidates is the ordered candidate surface list for one clause of
// a segmentation (spec.md §6). WordIDs runs parallel to Candidates so
// Commit can record the word actually chosen for this clause without
// re-deriving it from the lattice; Candidates[0]/WordIDs[0] is always the
// clause's current default (the one SelectClause swaps).
type ClauseCandidates struct {
	Candidates []string
	WordIDs    []langmodel.WordID
}

// Segmentation is one k-best conversion result: its clauses and total
// rerank cost (spec.md §6: "{ clauses, cost }").
type Segmentation struct {
	Clauses []ClauseCandidates
	Cost    float32
}

// Engine is the conversion entry point (spec.md §2). A single instance is
// safe for concurrent convert() calls (spec.md §5); Commit mutates shared
// UserLearning state and is safe for concurrent use via its own lock.
type Engine struct {
	model     *langmodel.Model
	dict      *dict.Dictionary
	learning  *learn.Store
	weights   rerank.Weights
	learnPath string
}

// New builds an Engine from already-loaded components. learning and
// weights may be nil/zero; a nil learning store disables UserLearning
// overrides and rerank.DefaultWeights() is used for a zero Weights value.
func New(model *langmodel.Model, dictionary *dict.Dictionary, learning *learn.Store, weights rerank.Weights) *Engine {
	if weights == (rerank.Weights{}) {
		weights = rerank.DefaultWeights()
	}
	if learning == nil {
		learning = learn.New()
	}
	return &Engine{model: model, dict: dictionary, learning: learning, weights: weights}
}

// Load builds an Engine from a model directory and a user data directory,
// per the file layout in spec.md §6.
func Load(modelDir, userDataDir string, weights rerank.Weights) (*Engine, error) {
	model, err := langmodel.Load(modelDir)
	if err != nil {
		return nil, &ModelLoadError{Path: modelDir, Err: err}
	}

	systemEntries, err := dict.LoadSKKFile(filepath.Join(modelDir, "SKK-JISYO.akaza"))
	if err != nil {
		return nil, &ModelLoadError{Path: filepath.Join(modelDir, "SKK-JISYO.akaza"), Err: err}
	}

	var userEntries []dict.Entry
	if userDataDir != "" {
		if entries, err := dict.LoadSKKFile(filepath.Join(userDataDir, "SKK-JISYO.user")); err == nil {
			userEntries = entries
		}
	}
	d := dict.Build("akaza", userEntries, systemEntries)

	learnPath := ""
	learning := learn.New()
	if userDataDir != "" {
		learnPath = filepath.Join(userDataDir, "bigram.v1.txt")
		if l, err := learn.Load(learnPath); err == nil {
			learning = l
		}
	}

	e := New(model, d, learning, weights)
	e.learnPath = learnPath
	return e, nil
}

// costSource layers UserLearning costs ahead of the system LanguageModel,
// per spec.md §4.8: "the Engine takes the user cost if the key exists
// there, otherwise the system cost."
type costSource struct {
	model    *langmodel.Model
	learning *learn.Store
}

func (c costSource) WordCost(surface, reading string) (langmodel.WordID, float32) {
	id, cost := c.model.WordCost(surface, reading)
	if uc, ok := c.learning.UnigramCost(id); ok {
		return id, uc
	}
	return id, cost
}

func (c costSource) BigramCost(a, b langmodel.WordID) (float32, bool) {
	if uc, ok := c.learning.BigramCost(a, b); ok {
		return uc, true
	}
	return c.model.BigramCost(a, b)
}

func (c costSource) SkipBigramCost(a, b langmodel.WordID) float32 {
	return c.model.SkipBigramCost(a, b)
}

func (c costSource) HasSkipBigram() bool { return c.model.HasSkipBigram() }

// Convert implements spec.md §6's convert(hiragana, k): hiragana ->
// Segmenter -> LatticeGraph -> GraphResolver -> ReRanker -> clause split.
// For non-empty input it always returns at least one Segmentation (spec.md
// §7/§8: "returns >= 1 path whose concatenated readings equal s"); empty
// input yields no Segmentation.
func (e *Engine) Convert(hiragana string, k int) []Segmentation {
	cs := costSource{model: e.model, learning: e.learning}
	ends := segment.Segment(hiragana, e.dict)
	if !segment.HasPath(ends, len(hiragana)) {
		xlog.Warn("engine: segmentation has no BOS->EOS path (ConversionDegenerate)", "input", hiragana)
	}
	g := lattice.Build(ends, len(hiragana), cs, e.dict, hiragana)

	paths := resolve.Resolve(g, cs, k)
	paths = rerank.Rerank(paths, e.weights)

	out := make([]Segmentation, 0, len(paths))
	for _, p := range paths {
		out = append(out, segmentationFromPath(g, p))
	}
	return out
}

func segmentationFromPath(g *lattice.Graph, p resolve.Path) Segmentation {
	tokens := rewrite.MaterialisePath(p.Tokens())
	clauses := make([]ClauseCandidates, len(tokens))
	for i, tok := range tokens {
		candidates, ids := alternativesAt(g, tok)
		clauses[i] = ClauseCandidates{Candidates: candidates, WordIDs: ids}
	}
	return Segmentation{Clauses: clauses, Cost: p.RerankCost}
}

// alternativesAt collects every WordNode surface (and its word id) sharing
// tok's exact [Start,End) span, materialised, with tok's own surface
// listed first so the 0th candidate always matches the committed default
// (spec.md §6).
func alternativesAt(g *lattice.Graph, tok lattice.WordNode) ([]string, []langmodel.WordID) {
	candidates := []string{tok.Surface}
	ids := []langmodel.WordID{tok.WordID}
	seen := map[string]bool{tok.Surface: true}
	for _, n := range g.ByEnd[tok.End] {
		if n.Start != tok.Start {
			continue
		}
		surface := rewrite.Materialise(n).Surface
		if seen[surface] {
			continue
		}
		seen[surface] = true
		candidates = append(candidates, surface)
		ids = append(ids, n.WordID)
	}
	return candidates, ids
}

// Commit implements spec.md §4.8/§6 commit(segmentation): records seg's own
// word-id sequence (including any clause the caller swapped via
// SelectClause) in UserLearning and persists it. Unlike Convert, Commit
// never re-resolves the lattice: seg.Clauses[i].WordIDs[0] already pins
// down exactly which word the caller is accepting for that clause, and
// recomputing the engine's own top-1 instead would silently discard a
// non-default clause or segmentation choice. A persistence failure is a
// UserLearningIOError (spec.md §7 kind 4): the in-memory counts are kept
// regardless, so the next Commit's write simply retries.
func (e *Engine) Commit(hiragana string, seg Segmentation) error {
	ids := make([]langmodel.WordID, 0, len(seg.Clauses)+2)
	ids = append(ids, langmodel.BOS)
	for _, c := range seg.Clauses {
		if len(c.WordIDs) == 0 {
			continue
		}
		ids = append(ids, c.WordIDs[0])
	}
	ids = append(ids, langmodel.EOS)
	e.learning.Commit(ids)

	if e.learnPath == "" {
		return nil
	}
	if err := e.learning.Save(e.learnPath); err != nil {
		return &UserLearningIOError{Path: e.learnPath, Err: err}
	}
	return nil
}

// Dictionary returns the Engine's merged reading trie, for callers (such
// as the CLI's kagome cross-check diagnostic) that need to reproduce the
// Engine's own segmentation independently of Convert.
func (e *Engine) Dictionary() *dict.Dictionary { return e.dict }

// AvailableSegmentations re-runs Convert for IME callers that want to
// browse the full k-best list rather than just the top segmentation.
func (e *Engine) AvailableSegmentations(hiragana string, k int) []Segmentation {
	return e.Convert(hiragana, k)
}

// SelectClause moves the candidate at index j of segmentation i's clause
// clauseIdx to index 0, for IME candidate-window navigation (spec.md §6):
// the swapped-in candidate becomes this clause's committed default, so a
// later Commit(hiragana, segmentations[i]) records the word the caller
// actually picked rather than the engine's original top choice. ok is
// false if any index is out of range, in which case segmentations is left
// unmodified.
func (e *Engine) SelectClause(segmentations []Segmentation, i, clauseIdx, j int) (string, bool) {
	if i < 0 || i >= len(segmentations) {
		return "", false
	}
	clauses := segmentations[i].Clauses
	if clauseIdx < 0 || clauseIdx >= len(clauses) {
		return "", false
	}
	candidates := clauses[clauseIdx].Candidates
	ids := clauses[clauseIdx].WordIDs
	if j < 0 || j >= len(candidates) {
		return "", false
	}
	if j != 0 {
		candidates[0], candidates[j] = candidates[j], candidates[0]
		if len(ids) == len(candidates) {
			ids[0], ids[j] = ids[j], ids[0]
		}
	}
	return candidates[0], true
}
