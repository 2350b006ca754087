// Package langmodel implements LanguageModel (spec.md §4.2): word_cost,
// bigram_cost and skip_bigram_cost over the TrieScoreStore tables, with the
// numeric normalisation and unknown-event smoothing spec.md §3/§9 require.
package langmodel

import (
	"encoding/binary"
	"fmt"
	"math"
	"regexp"

	"akaza-go/internal/score"
)

// WordID is the 24-bit word identifier spec.md §3 describes. Only the low
// 24 bits are ever populated; the type is uint32 for arithmetic convenience.
type WordID uint32

// Reserved word ids (spec.md §3: "reserved ids for BOS/EOS and <NUM>
// placeholder").
const (
	BOS WordID = 0
	EOS WordID = 1
	NUM WordID = 2
	// UNK is the class id shared by every word the model never saw. It is
	// not in the spec's reserved list by name, but spec.md §3 requires that
	// every WordNode have a word_id for bigram lookups, and real akaza-style
	// engines fold all out-of-vocabulary surface forms into one class so
	// bigram_cost has something deterministic to miss against.
	UNK WordID = 3

	firstAssignable WordID = 4
)

const (
	unigramRecordWidth = 3 + 4 // id:24, score:f32
	bigramKeyWidth     = 3 + 3 // id1:24, id2:24
	bigramRecordWidth  = 2     // score:f16
)

// numericPattern implements the Open Question in spec.md §9 ("exact
// numeric-normalisation rule set"): a surface qualifies for <NUM> folding
// iff it is a run of ASCII digits optionally followed by a non-digit
// suffix that itself contains no further digits. This one regex resolves
// all three edge cases spec.md flags:
//   - "1/1" does not match (the tail "/1" contains a digit) → not normalised.
//   - "1匹" / "100匹" / "365" all match → normalised to <NUM>.
//   - "1.5匹" does not match (the tail ".5匹" contains a digit) → not
//     normalised, staying distinct from the integer-counter case.
//   - "第1回" does not match (does not start with a digit) → not normalised.
var numericPattern = regexp.MustCompile(`^[0-9]+[^0-9]*$`)

// IsNumeric reports whether surface qualifies for <NUM> folding.
func IsNumeric(surface string) bool {
	return surface != "" && numericPattern.MatchString(surface)
}

// Smoothing is the additive constant used for unseen-event costs
// (spec.md §3: "additive smoothing (α ≈ 1e-5)").
const Smoothing = 1e-5

// CostSource is the capability set LatticeGraph and GraphResolver need
// from a cost provider (spec.md §9's "polymorphism... word_cost /
// bigram_cost for cost sources"). *Model satisfies it directly; the
// engine package layers UserLearning overrides behind the same interface
// so the rest of the pipeline never needs to know learning exists.
type CostSource interface {
	WordCost(surface, reading string) (WordID, float32)
	BigramCost(id1, id2 WordID) (cost float32, known bool)
	SkipBigramCost(id1, id2 WordID) float32
	HasSkipBigram() bool
}

// Model holds the loaded unigram/bigram/skip-bigram stores.
type Model struct {
	unigram            *score.Store
	bigram             *score.Store
	skipBigram         *score.Store // nil if not loaded (optional per spec.md §4.2)
	unknownUnigramCost float32
	defaultEdgeCost    float32
}

// Option configures a Model at construction.
type Option func(*Model)

// WithUnknownUnigramCost overrides the fallback cost for unigram misses.
// Default is -log10(Smoothing), i.e. the cost of a probability-ε event.
func WithUnknownUnigramCost(c float32) Option { return func(m *Model) { m.unknownUnigramCost = c } }

// WithDefaultEdgeCost overrides the fallback cost for bigram misses.
func WithDefaultEdgeCost(c float32) Option { return func(m *Model) { m.defaultEdgeCost = c } }

// New builds a Model directly from already-loaded stores. skipBigram may be
// nil.
func New(unigram, bigram, skipBigram *score.Store, opts ...Option) *Model {
	m := &Model{
		unigram:            unigram,
		bigram:             bigram,
		skipBigram:         skipBigram,
		unknownUnigramCost: float32(-math.Log10(Smoothing)),
		defaultEdgeCost:    float32(-math.Log10(Smoothing)),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load reads unigram.model, bigram.model and (if present) skip_bigram.model
// from dir, per the file layout in spec.md §6.
func Load(dir string, opts ...Option) (*Model, error) {
	uni, err := score.Load(dir + "/unigram.model")
	if err != nil {
		return nil, fmt.Errorf("langmodel: loading unigram.model: %w", err)
	}
	bi, err := score.Load(dir + "/bigram.model")
	if err != nil {
		return nil, fmt.Errorf("langmodel: loading bigram.model: %w", err)
	}
	var skip *score.Store
	if s, err := score.Load(dir + "/skip_bigram.model"); err == nil {
		skip = s
	}
	return New(uni, bi, skip, opts...), nil
}

func unigramKey(surface, reading string) []byte {
	return []byte(surface + "/" + reading)
}

func decodeUnigram(v []byte) (WordID, float32) {
	id := WordID(v[0]) | WordID(v[1])<<8 | WordID(v[2])<<16
	s := math.Float32frombits(binary.LittleEndian.Uint32(v[3:7]))
	return id, s
}

func encodeUnigram(id WordID, s float32) []byte {
	buf := make([]byte, unigramRecordWidth)
	buf[0] = byte(id)
	buf[1] = byte(id >> 8)
	buf[2] = byte(id >> 16)
	binary.LittleEndian.PutUint32(buf[3:7], math.Float32bits(s))
	return buf
}

// EncodeUnigramEntry builds a score.Entry for an (surface, reading, id,
// cost) unigram record, for use by model builders/tests.
func EncodeUnigramEntry(surface, reading string, id WordID, cost float32) score.Entry {
	return score.Entry{Key: unigramKey(surface, reading), Value: encodeUnigram(id, cost)}
}

func bigramKey(id1, id2 WordID) []byte {
	buf := make([]byte, bigramKeyWidth)
	buf[0] = byte(id1)
	buf[1] = byte(id1 >> 8)
	buf[2] = byte(id1 >> 16)
	buf[3] = byte(id2)
	buf[4] = byte(id2 >> 8)
	buf[5] = byte(id2 >> 16)
	return buf
}

// EncodeBigramEntry builds a score.Entry for a bigram or skip-bigram
// record.
func EncodeBigramEntry(id1, id2 WordID, cost float32) score.Entry {
	buf := make([]byte, bigramRecordWidth)
	score.PutFloat16(buf, score.EncodeFloat16(cost))
	return score.Entry{Key: bigramKey(id1, id2), Value: buf}
}

// WordCost implements spec.md §4.2 word_cost: numeric normalisation, then
// unigram lookup, falling back to the configured unknown-unigram cost.
func (m *Model) WordCost(surface, reading string) (id WordID, cost float32) {
	if IsNumeric(surface) {
		if v, ok := m.unigram.Get(unigramKey("<NUM>", "<NUM>")); ok {
			_, c := decodeUnigram(v)
			return NUM, c
		}
		return NUM, m.unknownUnigramCost
	}
	if v, ok := m.unigram.Get(unigramKey(surface, reading)); ok {
		return decodeUnigram(v)
	}
	return UNK, m.unknownUnigramCost
}

// BigramCost implements spec.md §4.2 bigram_cost. known reports whether the
// pair was present in the model, which the resolver must preserve on the
// Path for the ReRanker.
func (m *Model) BigramCost(id1, id2 WordID) (cost float32, known bool) {
	if v, ok := m.bigram.Get(bigramKey(id1, id2)); ok {
		return score.DecodeFloat16(score.GetFloat16(v)), true
	}
	return m.defaultEdgeCost, false
}

// SkipBigramCost implements spec.md §4.2 skip_bigram_cost. Returns 0 if no
// skip-bigram model is loaded or either id is a sentinel (BOS/EOS), per
// spec.md §4.2.
func (m *Model) SkipBigramCost(id1, id2 WordID) float32 {
	if m.skipBigram == nil || id1 == BOS || id1 == EOS || id2 == BOS || id2 == EOS {
		return 0
	}
	if v, ok := m.skipBigram.Get(bigramKey(id1, id2)); ok {
		return score.DecodeFloat16(score.GetFloat16(v))
	}
	return 0
}

// HasSkipBigram reports whether a skip-bigram model was loaded.
func (m *Model) HasSkipBigram() bool { return m.skipBigram != nil }

// FirstAssignableID is the first word id a model builder may hand out to a
// real dictionary entry; ids below it are reserved (BOS, EOS, NUM, UNK).
func FirstAssignableID() WordID { return firstAssignable }
