// Package dict implements Dictionary (spec.md §4.3): a forward trie from
// hiragana readings to ordered candidate surfaces, loaded from SKK-JISYO
// text dictionaries, with optional JMdict/ENAMDICT gloss enrichment.
//
// The SKK parsing and JMdict indexing are grounded directly on the teacher
// repo's dictionary.go: LoadJMdict's sync.Once-guarded load, its
// reading/kanji index maps, and its "skip a bad line, keep going" error
// policy for DictionaryError (spec.md §7 kind 2) all carry over, adapted
// from a single fixed JMdict file pair to an arbitrary list of SKK
// dictionaries merged in load order.
package dict

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	jmdict "github.com/yomidevs/jmdict-go"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"akaza-go/internal/xlog"
)

// Entry is one reading's worth of candidate surfaces.
type Entry struct {
	Reading  string
	Surfaces []string
}

// Dictionary is an immutable forward trie: reading -> ordered surfaces.
type Dictionary struct {
	byReading map[string][]string
	source    string
}

// candidateSplit splits an SKK candidate field off its optional
// /annotation;comment trailing payload (SKK allows "surface;gloss" within
// a slash-delimited field); only the surface matters to the conversion
// engine.
func candidateSplit(field string) string {
	if i := strings.IndexByte(field, ';'); i >= 0 {
		return field[:i]
	}
	return field
}

// ParseSKK parses SKK-JISYO text (spec.md §6: "line format `reading
// /cand1/cand2/.../`, lines starting with `;;` are comments, blank lines
// ignored"). Malformed lines are skipped with a warning (DictionaryError,
// spec.md §7 kind 2); parsing continues.
func ParseSKK(r io.Reader, source string) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ";;") {
			continue
		}
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			xlog.Warn("dict: skipping malformed SKK line (no space)", "source", source, "line", lineNo)
			continue
		}
		reading := line[:sp]
		rest := strings.TrimSpace(line[sp+1:])
		if !strings.HasPrefix(rest, "/") {
			xlog.Warn("dict: skipping malformed SKK line (candidates not slash-delimited)", "source", source, "line", lineNo)
			continue
		}
		fields := strings.Split(strings.Trim(rest, "/"), "/")
		var surfaces []string
		for _, f := range fields {
			if f == "" {
				continue
			}
			surfaces = append(surfaces, candidateSplit(f))
		}
		if len(surfaces) == 0 {
			xlog.Warn("dict: skipping SKK line with no usable candidates", "source", source, "line", lineNo)
			continue
		}
		entries = append(entries, Entry{Reading: reading, Surfaces: surfaces})
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("dict: scanning %s: %w", source, err)
	}
	return entries, nil
}

// detectAndDecode sniffs EUC-JP vs UTF-8 the way SKK-JISYO files in the
// wild are distributed (spec.md §6 allows either). A valid UTF-8 byte
// stream is used as-is; otherwise it is transcoded from EUC-JP.
func detectAndDecode(raw []byte) ([]byte, error) {
	if bytes.Equal(raw, []byte("")) {
		return raw, nil
	}
	if utf8Valid(raw) {
		return raw, nil
	}
	decoded, _, err := transform.Bytes(japanese.EUCJP.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("dict: decoding EUC-JP: %w", err)
	}
	return decoded, nil
}

func utf8Valid(b []byte) bool {
	return utf8.Valid(b)
}

// LoadSKKFile reads and parses a single SKK-JISYO file from path.
func LoadSKKFile(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dict: opening %s: %w", path, err)
	}
	decoded, err := detectAndDecode(raw)
	if err != nil {
		return nil, err
	}
	return ParseSKK(bytes.NewReader(decoded), path)
}

// Build merges one or more dictionaries' entries into a single forward
// trie. Merging order: the first argument wins ties, matching spec.md
// §4.3 ("user dictionary first, then system dictionaries in load order");
// callers pass the user dictionary's entries first. Duplicate surfaces for
// the same reading are removed, preserving first occurrence (spec.md §3).
func Build(source string, sources ...[]Entry) *Dictionary {
	d := &Dictionary{byReading: make(map[string][]string), source: source}
	for _, entries := range sources {
		for _, e := range entries {
			existing := d.byReading[e.Reading]
			seen := make(map[string]bool, len(existing))
			for _, s := range existing {
				seen[s] = true
			}
			for _, s := range e.Surfaces {
				if !seen[s] {
					existing = append(existing, s)
					seen[s] = true
				}
			}
			d.byReading[e.Reading] = existing
		}
	}
	return d
}

// Lookup returns the ordered candidate surfaces for an exact reading.
func (d *Dictionary) Lookup(reading string) ([]string, bool) {
	s, ok := d.byReading[reading]
	return s, ok
}

// PrefixMatch is a single common-prefix search hit.
type PrefixMatch struct {
	Reading  string
	Surfaces []string
}

// CommonPrefixSearch returns every stored reading that is a prefix of s,
// in increasing length order, so the Segmenter can find every valid
// reading span starting at position 0 of s with one scan (spec.md §4.4).
func (d *Dictionary) CommonPrefixSearch(s string) []PrefixMatch {
	runes := []rune(s)
	var hits []PrefixMatch
	for l := 1; l <= len(runes); l++ {
		cand := string(runes[:l])
		if surfaces, ok := d.byReading[cand]; ok {
			hits = append(hits, PrefixMatch{Reading: cand, Surfaces: surfaces})
		}
	}
	return hits
}

// Len returns the number of distinct readings.
func (d *Dictionary) Len() int { return len(d.byReading) }

// Gloss is JMdict/ENAMDICT enrichment for a surface (additive, not
// load-bearing for conversion — see SPEC_FULL.md §4.3).
type Gloss struct {
	Kanji    []string
	Readings []string
	Glosses  []string
	POS      []string
	Source   string
}

// Enricher indexes a JMdict-format file for gloss lookup by surface or
// reading, generalizing the teacher's LoadJMdict/jmIndex pattern.
type Enricher struct {
	index  map[string][]*jmdict.JmdictEntry
	source string
}

// LoadEnricher parses a JMdict/ENAMDICT XML file and indexes it by every
// kanji and reading form it contains.
func LoadEnricher(path, source string) (*Enricher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dict: opening %s: %w", path, err)
	}
	defer f.Close()
	parsed, _, err := jmdict.LoadJmdict(f)
	if err != nil {
		return nil, fmt.Errorf("dict: loading %s: %w", path, err)
	}
	idx := make(map[string][]*jmdict.JmdictEntry)
	for i := range parsed.Entries {
		e := &parsed.Entries[i]
		for _, k := range e.Kanji {
			idx[k.Expression] = append(idx[k.Expression], e)
		}
		for _, r := range e.Readings {
			idx[r.Reading] = append(idx[r.Reading], e)
		}
	}
	return &Enricher{index: idx, source: source}, nil
}

// Lookup returns gloss enrichment for key (a surface or reading), if any.
func (e *Enricher) Lookup(key string) (Gloss, bool) {
	entries, ok := e.index[key]
	if !ok || len(entries) == 0 {
		return Gloss{}, false
	}
	entry := entries[0]
	g := Gloss{Source: e.source}
	for _, k := range entry.Kanji {
		g.Kanji = append(g.Kanji, k.Expression)
	}
	for _, r := range entry.Readings {
		g.Readings = append(g.Readings, r.Reading)
	}
	for _, s := range entry.Sense {
		for _, gl := range s.Glossary {
			g.Glosses = append(g.Glosses, gl.Content)
		}
		g.POS = append(g.POS, s.PartsOfSpeech...)
	}
	return g, true
}
