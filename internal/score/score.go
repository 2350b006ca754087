// Package score implements TrieScoreStore (spec.md §4.1): a compact,
// read-optimised associative container keyed by arbitrary byte strings and
// valued by fixed-width records, backing the unigram, bigram and
// skip-bigram language model tables.
//
// The on-disk format is grounded on the sorted/binary-search model store in
// the kho-fslm reference material (magic header, length-prefixed metadata
// block, then a flat sequence of entries) rather than a literal marisa
// trie: spec.md §4.1 only constrains the operation contract (build, get,
// prefix_hits, common_prefix_search), not the byte layout, so a sorted key
// array searched with sort.Search gives the same asymptotic behaviour
// (O(log n) exact lookup, O(|key| log n) prefix scan) with far less code.
package score

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

var magic = [8]byte{'A', 'K', 'A', 'Z', 'A', 'T', 'R', '1'}

// ErrBadMagic is returned by Load when the file does not start with the
// store's magic header — a malformed or truncated model file (spec.md §7,
// ModelLoadError).
var ErrBadMagic = errors.New("score: bad magic header")

// Entry is one (key, value) pair supplied to Build. Value must be exactly
// RecordWidth bytes once the store is built with a given width.
type Entry struct {
	Key   []byte
	Value []byte
}

// Match is one hit from CommonPrefixSearch or PrefixHits.
type Match struct {
	Key        []byte
	Value      []byte
	MatchedLen int
}

// Store is an immutable, sorted-key TrieScoreStore. The zero value is not
// usable; construct with Build or Load.
type Store struct {
	recordWidth int
	keys        [][]byte
	values      [][]byte // values[i] is RecordWidth bytes, parallel to keys[i]
}

// Build constructs a Store from pairs. Keys must be unique; if a duplicate
// key is supplied the later pair wins, matching a "last write wins" build
// policy. All values must share the same length, which becomes the
// store's RecordWidth.
func Build(pairs []Entry) (*Store, error) {
	if len(pairs) == 0 {
		return &Store{recordWidth: 0}, nil
	}
	width := len(pairs[0].Value)
	for _, p := range pairs {
		if len(p.Value) != width {
			return nil, fmt.Errorf("score: inconsistent record width: got %d want %d", len(p.Value), width)
		}
	}
	dedup := make(map[string][]byte, len(pairs))
	order := make([]string, 0, len(pairs))
	for _, p := range pairs {
		k := string(p.Key)
		if _, seen := dedup[k]; !seen {
			order = append(order, k)
		}
		dedup[k] = p.Value
	}
	sort.Strings(order)
	s := &Store{
		recordWidth: width,
		keys:        make([][]byte, len(order)),
		values:      make([][]byte, len(order)),
	}
	for i, k := range order {
		s.keys[i] = []byte(k)
		s.values[i] = dedup[k]
	}
	return s, nil
}

// RecordWidth returns the fixed value width in bytes.
func (s *Store) RecordWidth() int { return s.recordWidth }

// Len returns the number of stored keys.
func (s *Store) Len() int { return len(s.keys) }

func (s *Store) search(key []byte) (int, bool) {
	i := sort.Search(len(s.keys), func(i int) bool {
		return bytes.Compare(s.keys[i], key) >= 0
	})
	if i < len(s.keys) && bytes.Equal(s.keys[i], key) {
		return i, true
	}
	return i, false
}

// Get performs an exact lookup.
func (s *Store) Get(key []byte) ([]byte, bool) {
	i, ok := s.search(key)
	if !ok {
		return nil, false
	}
	return s.values[i], true
}

// PrefixHits returns every stored key that is a prefix of key, each paired
// with how many leading bytes of key it matched. O(|key| log n).
func (s *Store) PrefixHits(key []byte) []Match {
	var hits []Match
	for l := 1; l <= len(key); l++ {
		if i, ok := s.search(key[:l]); ok {
			hits = append(hits, Match{Key: s.keys[i], Value: s.values[i], MatchedLen: l})
		}
	}
	return hits
}

// CommonPrefixSearch is the Dictionary-facing counterpart of PrefixHits: it
// yields every stored key that is a prefix of key, in increasing length
// order. Segmenter relies on this to find every reading span starting at a
// given position (spec.md §4.4).
func (s *Store) CommonPrefixSearch(key []byte) []Match {
	return s.PrefixHits(key)
}

type header struct {
	RecordWidth int
	Count       int
}

// Save writes the store to path via a temp-file-then-rename sequence,
// mirroring the teacher's logger.LogJSON atomic-write idiom so a reader
// never observes a half-written model file.
func (s *Store) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := s.writeTo(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) writeTo(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	var hbuf bytes.Buffer
	if err := gob.NewEncoder(&hbuf).Encode(header{RecordWidth: s.recordWidth, Count: len(s.keys)}); err != nil {
		return err
	}
	lenBuf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(lenBuf, uint64(hbuf.Len()))
	if _, err := w.Write(lenBuf[:n]); err != nil {
		return err
	}
	if _, err := w.Write(hbuf.Bytes()); err != nil {
		return err
	}
	klenBuf := make([]byte, binary.MaxVarintLen64)
	for i, k := range s.keys {
		n := binary.PutUvarint(klenBuf, uint64(len(k)))
		if _, err := w.Write(klenBuf[:n]); err != nil {
			return err
		}
		if _, err := w.Write(k); err != nil {
			return err
		}
		if _, err := w.Write(s.values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a Store previously written by Save.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadFrom(bufio.NewReader(f))
}

func loadFrom(r *bufio.Reader) (*Store, error) {
	var got [8]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return nil, fmt.Errorf("score: reading magic: %w", err)
	}
	if got != magic {
		return nil, ErrBadMagic
	}
	headerLen, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("score: reading header length: %w", err)
	}
	hbuf := make([]byte, headerLen)
	if _, err := io.ReadFull(r, hbuf); err != nil {
		return nil, fmt.Errorf("score: reading header: %w", err)
	}
	var h header
	if err := gob.NewDecoder(bytes.NewReader(hbuf)).Decode(&h); err != nil {
		return nil, fmt.Errorf("score: decoding header: %w", err)
	}
	s := &Store{
		recordWidth: h.RecordWidth,
		keys:        make([][]byte, h.Count),
		values:      make([][]byte, h.Count),
	}
	for i := 0; i < h.Count; i++ {
		klen, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("score: reading key length %d: %w", i, err)
		}
		key := make([]byte, klen)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("score: reading key %d: %w", i, err)
		}
		val := make([]byte, h.RecordWidth)
		if _, err := io.ReadFull(r, val); err != nil {
			return nil, fmt.Errorf("score: reading value %d: %w", i, err)
		}
		s.keys[i] = key
		s.values[i] = val
	}
	return s, nil
}
