// Package config resolves the on-disk locations and tunable weights the
// CLI and any future front-end need to construct an engine.Engine,
// grounded on the teacher's XDG cache-dir resolution in cmd/agsh/main.go
// (os.UserHomeDir + filepath.Join(".cache", appName)), generalized from a
// single cache dir to the model-dir/user-data-dir pair spec.md §6 names.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"akaza-go/internal/rerank"
)

// appName namespaces the XDG directories this package resolves.
const appName = "akaza"

// UserDataDir returns the XDG data-home directory for per-user learning
// state and the user SKK dictionary (spec.md §6: "User data directory
// (under XDG data home)"). $XDG_DATA_HOME is honored first; otherwise it
// falls back to ~/.local/share, matching the XDG base-directory spec the
// teacher's own cache-dir resolution follows for $XDG_CACHE_HOME's
// sibling variable.
func UserDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// ModelDir returns the default system model directory: $XDG_DATA_DIRS'
// first entry if set, otherwise /usr/share/akaza, matching how most
// Linux-packaged IME engines ship their read-only model data.
func ModelDir() string {
	if dirs := os.Getenv("XDG_DATA_DIRS"); dirs != "" {
		first := strings.Split(dirs, string(filepath.ListSeparator))[0]
		return filepath.Join(first, appName)
	}
	return filepath.Join(string(filepath.Separator), "usr", "share", appName)
}

// EnsureUserDataDir creates the user data directory (and any missing
// parents) if it does not already exist.
func EnsureUserDataDir() (string, error) {
	dir := UserDataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Flags mirrors the CLI surface spec.md §6 defines: model/user-data
// locations, the four configurable ReRankingWeights, k-best width,
// output format and candidate-list length.
type Flags struct {
	ModelDir            string
	UserDataDir         string
	BigramWeight        float64
	LengthWeight        float64
	UnknownBigramWeight float64
	SkipBigramWeight    float64
	KBest               int
	Format              string
	Candidates          int
	GlossDict           string
	CompareKagome       bool
}

// Weights converts the CLI-supplied float64 flag values into a
// rerank.Weights (spec.md uses f32 internally throughout §3/§4.7).
func (f Flags) Weights() rerank.Weights {
	return rerank.Weights{
		BigramWeight:        float32(f.BigramWeight),
		LengthWeight:        float32(f.LengthWeight),
		UnknownBigramWeight: float32(f.UnknownBigramWeight),
		SkipBigramWeight:    float32(f.SkipBigramWeight),
	}
}

// Default returns the Flags the CLI starts from before flag.Parse applies
// any overrides: default weights (spec.md §4.7), k=1, text format, and 1
// candidate per clause.
func Default() Flags {
	w := rerank.DefaultWeights()
	return Flags{
		ModelDir:            ModelDir(),
		UserDataDir:         UserDataDir(),
		BigramWeight:        float64(w.BigramWeight),
		LengthWeight:        float64(w.LengthWeight),
		UnknownBigramWeight: float64(w.UnknownBigramWeight),
		SkipBigramWeight:    float64(w.SkipBigramWeight),
		KBest:               1,
		Format:              "text",
		Candidates:          1,
	}
}
