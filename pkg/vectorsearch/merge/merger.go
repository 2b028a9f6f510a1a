// Package merge fuses per-language artifacts into a single cross-language
// index with disambiguated document identifiers and capped posting
// lists.
//
// Grounded directly on original_source/backend/merge_indexes.py for the
// per-artifact merge order (metadata, inverted index, norms, IDF, then
// sort-and-cap), the "{lang}_{id}" prefixing scheme, and
// backup-before-overwrite idempotency. Unlike the original, which
// overwrites one of its input language directories in place (reusing
// the Spanish slot as the merge target and backing that up), this
// merger writes to a dedicated "merged" directory under the index root
// so a merge can never destroy an unmerged per-language index; see
// DESIGN.md for the reasoning. The backup-before-overwrite invariant is
// preserved for that merged directory itself.
package merge

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/index"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/internalerr"
)

// mergedLang is the pseudo-language name under which the fused artifact
// set is stored, via the same index.LangPaths layout every per-language
// directory uses.
const mergedLang = "merged"

// Options configures one merge run.
type Options struct {
	IndexRoot string

	// Languages lists the input languages to merge. When empty, every
	// subdirectory of IndexRoot holding a complete artifact set is
	// merged (excluding the merged directory itself and any backup_*
	// directory).
	Languages []string

	// MaxPostingsPerTerm overrides how many postings a merged term may
	// retain after fusion. 0 uses index.MaxPostingsPerTerm.
	MaxPostingsPerTerm int

	Journal *index.Journal
	Out     io.Writer
}

// Merger runs a merge for a fixed Options value.
type Merger struct {
	opts  Options
	runID string
	out   io.Writer
}

// New constructs a Merger.
func New(opts Options) *Merger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	entropy := ulid.Monotonic(rand.Reader, 0)
	runID := ulid.MustNew(ulid.Now(), entropy).String()
	return &Merger{opts: opts, runID: runID, out: out}
}

// Merge fuses every input language's artifacts into the merged set.
// Languages are visited in lexicographic order, so output is
// deterministic regardless of input order.
func (m *Merger) Merge(ctx context.Context) (index.Stats, error) {
	start := time.Now()

	langs := m.opts.Languages
	if len(langs) == 0 {
		var err error
		langs, err = discoverLanguages(m.opts.IndexRoot)
		if err != nil {
			return index.Stats{}, err
		}
	}
	langs = append([]string(nil), langs...)
	sort.Strings(langs)

	if len(langs) == 0 {
		return index.Stats{}, fmt.Errorf("%w: no language artifact directories found under %s", internalerr.ErrMissingArtifact, m.opts.IndexRoot)
	}

	outPaths := index.LangPaths(m.opts.IndexRoot, mergedLang)
	if err := m.backupExistingMerged(outPaths); err != nil {
		return index.Stats{}, err
	}

	m.journalStart(ctx, "merge_metadata")
	metadata, err := m.mergeMetadata(langs)
	if err != nil {
		m.journalFinish(ctx, "merge_metadata", 0, err)
		return index.Stats{}, err
	}
	m.journalFinish(ctx, "merge_metadata", len(metadata), nil)

	m.journalStart(ctx, "merge_inverted")
	rawPostings, err := m.mergeInverted(langs)
	if err != nil {
		m.journalFinish(ctx, "merge_inverted", 0, err)
		return index.Stats{}, err
	}
	m.journalFinish(ctx, "merge_inverted", len(rawPostings), nil)

	m.journalStart(ctx, "merge_norms")
	norms, err := m.mergeNorms(langs)
	if err != nil {
		m.journalFinish(ctx, "merge_norms", 0, err)
		return index.Stats{}, err
	}
	m.journalFinish(ctx, "merge_norms", len(norms), nil)

	m.journalStart(ctx, "merge_idf")
	idf, err := m.mergeIDF(langs)
	if err != nil {
		m.journalFinish(ctx, "merge_idf", 0, err)
		return index.Stats{}, err
	}
	m.journalFinish(ctx, "merge_idf", len(idf), nil)

	postingCap := m.maxPostingsPerTerm()
	inverted := sortAndCap(rawPostings, postingCap)

	stats := index.Stats{
		TotalDocuments:     len(metadata),
		VocabularySize:     len(inverted),
		BuildTimeSeconds:   time.Since(start).Seconds(),
		Languages:          langs,
		MaxPostingsPerTerm: postingCap,
	}

	if err := index.WriteArtifacts(outPaths, &index.Artifacts{
		Inverted: inverted,
		IDF:      idf,
		Norms:    norms,
		Metadata: metadata,
		Stats:    stats,
	}); err != nil {
		return index.Stats{}, err
	}

	m.logf("merge complete: languages=%v docs=%d terms=%d", langs, stats.TotalDocuments, stats.VocabularySize)
	return stats, nil
}

func (m *Merger) mergeMetadata(langs []string) (index.DocMetadata, error) {
	merged := make(index.DocMetadata)
	for _, lang := range langs {
		paths := index.LangPaths(m.opts.IndexRoot, lang)
		var meta index.DocMetadata
		if err := index.ReadJSON(paths.DocMetadata, &meta); err != nil {
			if errors.Is(err, internalerr.ErrMissingArtifact) {
				m.logf("warning: no doc_metadata for lang=%s, skipping", lang)
				continue
			}
			return nil, err
		}
		for id, md := range meta {
			merged[prefixed(lang, id)] = md
		}
	}
	return merged, nil
}

// mergeInverted returns the union of postings per term, prefixed by
// language but not yet sorted or capped.
func (m *Merger) mergeInverted(langs []string) (map[string][]index.Posting, error) {
	merged := make(map[string][]index.Posting)
	for _, lang := range langs {
		paths := index.LangPaths(m.opts.IndexRoot, lang)
		inv, err := index.ReadInvertedIndex(paths.InvertedIndex)
		if err != nil {
			if errors.Is(err, internalerr.ErrMissingArtifact) {
				m.logf("warning: no inverted_index for lang=%s, skipping", lang)
				continue
			}
			return nil, err
		}
		for term, postings := range inv {
			for _, p := range postings {
				merged[term] = append(merged[term], index.Posting{DocID: prefixed(lang, p.DocID), Weight: p.Weight})
			}
		}
	}
	return merged, nil
}

func (m *Merger) mergeNorms(langs []string) (index.DocNorms, error) {
	merged := make(index.DocNorms)
	for _, lang := range langs {
		paths := index.LangPaths(m.opts.IndexRoot, lang)
		var norms index.DocNorms
		if err := index.ReadJSON(paths.DocNorms, &norms); err != nil {
			if errors.Is(err, internalerr.ErrMissingArtifact) {
				m.logf("warning: no doc_norms for lang=%s, skipping", lang)
				continue
			}
			return nil, err
		}
		for id, n := range norms {
			merged[prefixed(lang, id)] = n
		}
	}
	return merged, nil
}

// mergeIDF takes the per-term maximum across languages — a documented
// lossy approximation; a stricter union-DF recompute is an open
// alternative, not implemented here.
func (m *Merger) mergeIDF(langs []string) (index.IDF, error) {
	merged := make(index.IDF)
	for _, lang := range langs {
		paths := index.LangPaths(m.opts.IndexRoot, lang)
		var idf index.IDF
		if err := index.ReadJSON(paths.IDF, &idf); err != nil {
			if errors.Is(err, internalerr.ErrMissingArtifact) {
				m.logf("warning: no idf for lang=%s, skipping", lang)
				continue
			}
			return nil, err
		}
		for term, value := range idf {
			if existing, ok := merged[term]; !ok || value > existing {
				merged[term] = value
			}
		}
	}
	return merged, nil
}

// sortAndCap sorts each term's postings descending by weight and caps
// the list at maxPostings.
func sortAndCap(raw map[string][]index.Posting, maxPostings int) index.InvertedIndex {
	out := make(index.InvertedIndex, len(raw))
	for term, postings := range raw {
		index.SortPostingsDescending(postings)
		out[term] = index.CapPostings(postings, maxPostings)
	}
	return out
}

// maxPostingsPerTerm resolves the configured cap, falling back to
// index.MaxPostingsPerTerm when Options left it unset.
func (m *Merger) maxPostingsPerTerm() int {
	if m.opts.MaxPostingsPerTerm > 0 {
		return m.opts.MaxPostingsPerTerm
	}
	return index.MaxPostingsPerTerm
}

func prefixed(lang, id string) string {
	return lang + "_" + id
}

// discoverLanguages lists every IndexRoot subdirectory holding a
// complete per-language artifact set, excluding the merged output
// directory and any backup directory.
func discoverLanguages(indexRoot string) ([]string, error) {
	entries, err := os.ReadDir(indexRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", internalerr.ErrIO, indexRoot, err)
	}
	var langs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if name == mergedLang || len(name) >= 7 && name[:7] == "backup_" {
			continue
		}
		if index.LangPaths(indexRoot, name).Exists() {
			langs = append(langs, name)
		}
	}
	return langs, nil
}

// backupExistingMerged copies a prior merged artifact set into
// backup_merged/ before it is overwritten. Idempotent: it skips if a
// backup already exists, rather than overwriting it.
func (m *Merger) backupExistingMerged(outPaths index.Paths) error {
	if !outPaths.Exists() {
		return nil
	}
	backupDir := filepath.Join(m.opts.IndexRoot, "backup_"+mergedLang)
	if _, err := os.Stat(backupDir); err == nil {
		return nil
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", internalerr.ErrIO, backupDir, err)
	}

	files := map[string]string{
		outPaths.InvertedIndex: "inverted_index",
		outPaths.IDF:           "idf",
		outPaths.DocNorms:      "doc_norms",
		outPaths.DocMetadata:   "doc_metadata",
		outPaths.Stats:         "stats",
	}
	for src, name := range files {
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyFile(src, filepath.Join(backupDir, name)); err != nil {
			return err
		}
	}
	m.logf("backed up existing merged index to %s", backupDir)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", internalerr.ErrIO, src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", internalerr.ErrIO, dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("%w: copy %s -> %s: %v", internalerr.ErrIO, src, dst, err)
	}
	return out.Sync()
}

func (m *Merger) journalStart(ctx context.Context, phase string) {
	if m.opts.Journal == nil {
		return
	}
	_ = m.opts.Journal.PhaseStarted(ctx, m.runID, mergedLang, phase, time.Now())
}

func (m *Merger) journalFinish(ctx context.Context, phase string, count int, err error) {
	if m.opts.Journal == nil {
		return
	}
	_ = m.opts.Journal.PhaseFinished(ctx, m.runID, phase, time.Now(), count, err)
}

func (m *Merger) logf(format string, args ...any) {
	fmt.Fprintf(m.out, format+"\n", args...)
}
