// Command akaza is the batch CLI wrapping the conversion core (spec.md §6):
// "check" converts a single hiragana string, "evaluate" scores a corpus of
// hiragana/expected-surface pairs against the engine's top candidate.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"akaza-go/internal/config"
	"akaza-go/internal/dict"
	"akaza-go/internal/engine"
	"akaza-go/internal/segment"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "usage: akaza <check|evaluate> [flags] <args>")
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "check":
		return runCheck(rest, stdout, stderr)
	case "evaluate":
		return runEvaluate(rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "akaza: unknown command %q\n", cmd)
		return 2
	}
}

// bindFlags registers the CLI surface spec.md §6 names on fs and returns
// the config.Flags they write into.
func bindFlags(fs *flag.FlagSet) *config.Flags {
	f := config.Default()
	fs.StringVar(&f.ModelDir, "model-dir", f.ModelDir, "directory containing unigram.model/bigram.model/SKK-JISYO.akaza")
	fs.StringVar(&f.UserDataDir, "user-data", f.UserDataDir, "directory containing per-user learning state and SKK-JISYO.user")
	fs.Float64Var(&f.BigramWeight, "bigram-weight", f.BigramWeight, "ReRanker bigram_cost weight")
	fs.Float64Var(&f.LengthWeight, "length-weight", f.LengthWeight, "ReRanker token-count weight")
	fs.Float64Var(&f.UnknownBigramWeight, "unknown-bigram-weight", f.UnknownBigramWeight, "ReRanker unknown_bigram_cost weight")
	fs.Float64Var(&f.SkipBigramWeight, "skip-bigram-weight", f.SkipBigramWeight, "ReRanker skip_bigram_cost weight")
	fs.IntVar(&f.KBest, "k-best", f.KBest, "number of segmentations to return")
	fs.StringVar(&f.Format, "format", f.Format, "output format: text or json")
	fs.IntVar(&f.Candidates, "candidates", f.Candidates, "candidates to print per clause")
	fs.StringVar(&f.GlossDict, "gloss-dict", f.GlossDict, "optional JMdict/ENAMDICT XML file to annotate candidates with glosses")
	fs.BoolVar(&f.CompareKagome, "compare-kagome", f.CompareKagome, "cross-check segmentation boundaries against kagome's IPADIC/UniDic tokenizers")
	return &f
}

func runCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: akaza check [flags] <hiragana>")
		return 2
	}
	if f.Format != "text" && f.Format != "json" {
		fmt.Fprintf(stderr, "akaza: --format must be text or json, got %q\n", f.Format)
		return 2
	}

	e, err := engine.Load(f.ModelDir, f.UserDataDir, f.Weights())
	if err != nil {
		fmt.Fprintf(stderr, "akaza: %v\n", err)
		return 1
	}

	hiragana := fs.Arg(0)
	segs := e.Convert(hiragana, f.KBest)

	var enricher *dict.Enricher
	if f.GlossDict != "" {
		enricher, err = dict.LoadEnricher(f.GlossDict, f.GlossDict)
		if err != nil {
			fmt.Fprintf(stderr, "akaza: %v\n", err)
			return 1
		}
	}

	var kagome *segment.BoundaryReport
	if f.CompareKagome {
		ends := segment.Segment(hiragana, e.Dictionary())
		report, err := segment.CompareWithKagome(hiragana, ends)
		if err != nil {
			fmt.Fprintf(stderr, "akaza: %v\n", err)
			return 1
		}
		kagome = &report
	}

	printSegmentations(stdout, segs, *f, enricher, kagome)
	return 0
}

func runEvaluate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: akaza evaluate [flags] <corpus-file>")
		return 2
	}

	e, err := engine.Load(f.ModelDir, f.UserDataDir, f.Weights())
	if err != nil {
		fmt.Fprintf(stderr, "akaza: %v\n", err)
		return 1
	}

	corpus, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "akaza: opening corpus: %v\n", err)
		return 1
	}
	defer corpus.Close()

	total, correct := 0, 0
	scanner := bufio.NewScanner(corpus)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		hiragana, expected, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		total++
		segs := e.Convert(hiragana, 1)
		if len(segs) > 0 && topSurface(segs[0]) == expected {
			correct++
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "akaza: reading corpus: %v\n", err)
		return 1
	}

	accuracy := 0.0
	if total > 0 {
		accuracy = float64(correct) / float64(total)
	}
	if f.Format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.Encode(map[string]any{"total": total, "correct": correct, "accuracy": accuracy})
	} else {
		fmt.Fprintf(stdout, "%d/%d correct (%.2f%%)\n", correct, total, accuracy*100)
	}
	return 0
}

func topSurface(s engine.Segmentation) string {
	var b strings.Builder
	for _, c := range s.Clauses {
		if len(c.Candidates) > 0 {
			b.WriteString(c.Candidates[0])
		}
	}
	return b.String()
}

type jsonClause struct {
	Candidates []string `json:"candidates"`
	Glosses    []string `json:"glosses,omitempty"`
}

type jsonSegmentation struct {
	Clauses []jsonClause `json:"clauses"`
	Cost    float32      `json:"cost"`
}

// glossesFor looks up enricher's JMdict/ENAMDICT gloss for a committed
// candidate surface, returning nil if no gloss dictionary was loaded or the
// surface has no entry (spec.md §4.3's additive enrichment: absence never
// blocks conversion output).
func glossesFor(enricher *dict.Enricher, surface string) []string {
	if enricher == nil || surface == "" {
		return nil
	}
	g, ok := enricher.Lookup(surface)
	if !ok {
		return nil
	}
	return g.Glosses
}

// printSegmentations renders segs per spec.md §6's output contract: text
// mode prints one line per segmentation (top candidates joined), json mode
// emits the exact `{ "segmentations": [...] }` shape. enricher and kagome
// are optional diagnostics enabled by --gloss-dict/--compare-kagome.
func printSegmentations(w io.Writer, segs []engine.Segmentation, f config.Flags, enricher *dict.Enricher, kagome *segment.BoundaryReport) {
	if f.Format == "json" {
		out := make([]jsonSegmentation, len(segs))
		for i, s := range segs {
			clauses := make([]jsonClause, len(s.Clauses))
			for j, c := range s.Clauses {
				n := f.Candidates
				if n > len(c.Candidates) || n <= 0 {
					n = len(c.Candidates)
				}
				jc := jsonClause{Candidates: append([]string(nil), c.Candidates[:n]...)}
				if len(c.Candidates) > 0 {
					jc.Glosses = glossesFor(enricher, c.Candidates[0])
				}
				clauses[j] = jc
			}
			out[i] = jsonSegmentation{Clauses: clauses, Cost: s.Cost}
		}
		result := map[string]any{"segmentations": out}
		if kagome != nil {
			result["kagome_compare"] = kagome
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(result)
		return
	}

	for _, s := range segs {
		fmt.Fprintf(w, "%s\t%g\n", topSurface(s), s.Cost)
		for _, c := range s.Clauses {
			if len(c.Candidates) == 0 {
				continue
			}
			if gl := glossesFor(enricher, c.Candidates[0]); len(gl) > 0 {
				fmt.Fprintf(w, "  %s: %s\n", c.Candidates[0], strings.Join(gl, "; "))
			}
		}
	}
	if kagome != nil {
		fmt.Fprintf(w, "kagome: agree=%v segmenter=%v ipadic=%v unidic=%v\n",
			kagome.Agree, kagome.SegmenterBoundaries, kagome.KagomeBoundaries, kagome.UniDicBoundaries)
	}
}
