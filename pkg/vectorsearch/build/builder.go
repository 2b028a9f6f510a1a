// Package build implements a streaming, two-pass construction of one
// language's inverted index, IDF table, document norms, and metadata
// under bounded memory.
//
// Grounded on original_source/backend/build_index.py and
// original_source/backend/resume_phase3.py for the phase structure and
// restartability contract, and on an ingest pipeline's
// streaming-over-an-iter.Seq shape and progress-logging conventions.
package build

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/corpus"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/index"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/internalerr"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/lingua"
)

// Options configures one build run.
type Options struct {
	CorpusRoot string
	IndexRoot  string
	Lang       string

	// MaxDocs bounds how many articles are read from the corpus; 0 means
	// unbounded.
	MaxDocs int

	// MaxPostingsPerTerm overrides how many postings an inverted-index
	// term may retain. 0 uses index.MaxPostingsPerTerm.
	MaxPostingsPerTerm int

	// Profiles is the explicitly owned language-profile cache — never a
	// hidden package singleton. A nil value gets a fresh one.
	Profiles *lingua.Profiles

	// Journal, when non-nil, records phase start/finish rows for this
	// run. Purely observational; a nil Journal disables it.
	Journal *index.Journal

	// Out receives progress and log output. Defaults to os.Stderr.
	Out io.Writer
}

// Builder runs the index-build phases for one language.
type Builder struct {
	opts  Options
	runID string
	out   io.Writer
	live  bool
}

// maxPostingsPerTerm resolves the configured cap, falling back to
// index.MaxPostingsPerTerm when the Options left it unset.
func (b *Builder) maxPostingsPerTerm() int {
	if b.opts.MaxPostingsPerTerm > 0 {
		return b.opts.MaxPostingsPerTerm
	}
	return index.MaxPostingsPerTerm
}

// New constructs a Builder, filling in defaults for an unset Profiles or
// Out.
func New(opts Options) *Builder {
	if opts.Profiles == nil {
		opts.Profiles = lingua.NewProfiles()
	}
	out := opts.Out
	live := false
	if out == nil {
		out = os.Stderr
		if f, ok := out.(*os.File); ok {
			live = isatty.IsTerminal(f.Fd())
		}
	}
	entropy := ulid.Monotonic(rand.Reader, 0)
	runID := ulid.MustNew(ulid.Now(), entropy).String()
	return &Builder{opts: opts, runID: runID, out: out, live: live}
}

// Build runs the full builder pipeline for opts.Lang: phase 1 (document
// frequency and metadata), phase 2 (IDF), phase 3 (inverted index and
// document norms, via a bounded posting heap per term), phase 4 (sort),
// phase 5 (persist). When doc_metadata and idf already exist on disk it
// skips straight to phase 3, matching the original builder's
// restartability contract.
func (b *Builder) Build(ctx context.Context) (index.Stats, error) {
	if _, err := b.opts.Profiles.Get(b.opts.Lang, true); err != nil {
		return index.Stats{}, err
	}

	start := time.Now()
	paths := index.LangPaths(b.opts.IndexRoot, b.opts.Lang)

	if paths.MetadataAndIDFExist() {
		b.logf("doc_metadata and idf already present for lang=%s, resuming at phase 3", b.opts.Lang)
		return b.resumeAt(ctx, paths, start)
	}

	docIDs, docCount, df, err := b.runPhase1(ctx, paths)
	if err != nil {
		return index.Stats{}, err
	}

	idf, err := b.runPhase2(ctx, df, docCount)
	if err != nil {
		return index.Stats{}, err
	}
	if err := index.WriteJSON(paths.IDF, idf); err != nil {
		return index.Stats{}, err
	}

	return b.continueFromPhase3(ctx, paths, docIDs, docCount, idf, start)
}

// ResumePhase3 restarts a build at phase 3 using the doc_metadata and idf
// artifacts already on disk, skipping phases 1 and 2 entirely.
func ResumePhase3(ctx context.Context, opts Options) (index.Stats, error) {
	b := New(opts)
	paths := index.LangPaths(opts.IndexRoot, opts.Lang)
	if !paths.MetadataAndIDFExist() {
		return index.Stats{}, fmt.Errorf("%w: doc_metadata and idf required to resume at phase 3", internalerr.ErrMissingArtifact)
	}
	return b.resumeAt(ctx, paths, time.Now())
}

func (b *Builder) resumeAt(ctx context.Context, paths index.Paths, start time.Time) (index.Stats, error) {
	meta := index.DocMetadata{}
	if err := index.ReadJSON(paths.DocMetadata, &meta); err != nil {
		return index.Stats{}, err
	}
	idf := index.IDF{}
	if err := index.ReadJSON(paths.IDF, &idf); err != nil {
		return index.Stats{}, err
	}

	docIDs := make(map[string]struct{}, len(meta))
	for id := range meta {
		docIDs[id] = struct{}{}
	}
	return b.continueFromPhase3(ctx, paths, docIDs, len(meta), idf, start)
}

func (b *Builder) continueFromPhase3(ctx context.Context, paths index.Paths, docIDs map[string]struct{}, docCount int, idf index.IDF, start time.Time) (index.Stats, error) {
	heaps, norms, processed, err := b.runPhase3(ctx, docIDs, idf)
	if err != nil {
		return index.Stats{}, err
	}

	inverted := b.runPhase4(ctx, heaps)

	stats := index.Stats{
		TotalDocuments:     docCount,
		VocabularySize:     len(inverted),
		BuildTimeSeconds:   time.Since(start).Seconds(),
		Languages:          []string{b.opts.Lang},
		MaxPostingsPerTerm: b.maxPostingsPerTerm(),
	}
	if b.opts.MaxDocs > 0 {
		limit := b.opts.MaxDocs
		stats.MaxDocsLimit = &limit
	}

	if err := b.runPhase5(ctx, paths, &index.Artifacts{
		Inverted: inverted,
		IDF:      idf,
		Norms:    norms,
		Metadata: nil, // already persisted in phase 1 or on a prior run
		Stats:    stats,
	}); err != nil {
		return index.Stats{}, err
	}

	b.logf("build complete: lang=%s docs=%s terms=%s elapsed=%.1fs",
		b.opts.Lang, humanize.Comma(int64(processed)), humanize.Comma(int64(len(inverted))), stats.BuildTimeSeconds)
	return stats, nil
}

// runPhase1 streams the corpus once, computing document frequency per
// term and collecting metadata, then writes metadata to disk once the
// pass completes. Only the doc-id set, the document count, and the DF
// counts are returned; the metadata map drops from memory before phase
// 2 starts.
func (b *Builder) runPhase1(ctx context.Context, paths index.Paths) (map[string]struct{}, int, map[string]int32, error) {
	started := time.Now()
	b.journalStart(ctx, "phase1", started)

	seq, err := corpus.IterArticles(b.opts.CorpusRoot, b.opts.MaxDocs)
	if err != nil {
		b.journalFinish(ctx, "phase1", 0, err)
		return nil, 0, nil, err
	}

	df := make(map[string]int32)
	metadata := make(index.DocMetadata)
	count := 0

	for article := range seq {
		terms, err := b.opts.Profiles.Preprocess(article.Text, b.opts.Lang, true)
		if err != nil {
			b.journalFinish(ctx, "phase1", count, err)
			return nil, 0, nil, err
		}
		if len(terms) == 0 {
			continue // no surviving terms after stopword removal, skip silently
		}

		for _, t := range uniqueStrings(terms) {
			df[t]++
		}
		metadata[article.ID] = index.Metadata{
			Title:   article.Title,
			URL:     article.URL,
			Snippet: snippet(article.Text),
			Lang:    b.opts.Lang,
		}
		count++

		if count%10_000 == 0 {
			b.progress("phase1", count, 0)
		}
	}

	if err := index.WriteJSON(paths.DocMetadata, metadata); err != nil {
		b.journalFinish(ctx, "phase1", count, err)
		return nil, 0, nil, err
	}

	docIDs := make(map[string]struct{}, len(metadata))
	for id := range metadata {
		docIDs[id] = struct{}{}
	}

	b.journalFinish(ctx, "phase1", count, nil)
	return docIDs, count, df, nil
}

// runPhase2 computes the IDF table from the document-frequency counts
// gathered in phase 1, using the smoothed formula ln((N+1)/(df+1)) + 1.
func (b *Builder) runPhase2(ctx context.Context, df map[string]int32, docCount int) (index.IDF, error) {
	started := time.Now()
	b.journalStart(ctx, "phase2", started)

	idf := make(index.IDF, len(df))
	for term, dfT := range df {
		idf[term] = math.Log(float64(docCount+1)/float64(dfT+1)) + 1.0
	}

	b.journalFinish(ctx, "phase2", len(idf), nil)
	return idf, nil
}

// runPhase3 streams the corpus a second time, computing each document's
// TF-IDF vector and folding its terms into per-term posting heaps capped
// at maxPostingsPerTerm(), and each document's vector norm.
func (b *Builder) runPhase3(ctx context.Context, docIDs map[string]struct{}, idf index.IDF) (map[string]*postingHeap, index.DocNorms, int, error) {
	started := time.Now()
	b.journalStart(ctx, "phase3", started)

	seq, err := corpus.IterArticles(b.opts.CorpusRoot, b.opts.MaxDocs)
	if err != nil {
		b.journalFinish(ctx, "phase3", 0, err)
		return nil, nil, 0, err
	}

	heaps := make(map[string]*postingHeap)
	norms := make(index.DocNorms)
	processed := 0

	for article := range seq {
		if _, known := docIDs[article.ID]; !known {
			continue
		}

		terms, err := b.opts.Profiles.Preprocess(article.Text, b.opts.Lang, true)
		if err != nil {
			b.journalFinish(ctx, "phase3", processed, err)
			return nil, nil, 0, err
		}
		if len(terms) == 0 {
			continue
		}

		counts := make(map[string]int, len(terms))
		for _, t := range terms {
			counts[t]++
		}
		nTokens := len(terms)

		normSq := 0.0
		for term, c := range counts {
			termIDF, ok := idf[term]
			if !ok {
				continue // term never observed in phase 1 on this run
			}
			weight := (float64(c) / float64(nTokens)) * termIDF
			normSq += weight * weight

			h, ok := heaps[term]
			if !ok {
				nh := make(postingHeap, 0, 1)
				h = &nh
				heaps[term] = h
			}
			pushCapped(h, index.Posting{DocID: article.ID, Weight: weight}, b.maxPostingsPerTerm())
		}
		norms[article.ID] = math.Sqrt(normSq)
		processed++

		if processed%50_000 == 0 {
			b.progress("phase3", processed, len(docIDs))
		}
	}

	b.journalFinish(ctx, "phase3", processed, nil)
	return heaps, norms, processed, nil
}

// runPhase4 sorts each term's capped posting heap into the final
// descending-by-weight InvertedIndex.
func (b *Builder) runPhase4(ctx context.Context, heaps map[string]*postingHeap) index.InvertedIndex {
	started := time.Now()
	b.journalStart(ctx, "phase4", started)

	inverted := make(index.InvertedIndex, len(heaps))
	for term, h := range heaps {
		inverted[term] = drainSorted(h)
	}

	b.journalFinish(ctx, "phase4", len(inverted), nil)
	return inverted
}

// runPhase5 persists the inverted index, IDF, norms, and stats as whole-
// file atomic replacements. Metadata is not rewritten here: it was
// already committed to disk in phase 1, or on a prior resumed run.
func (b *Builder) runPhase5(ctx context.Context, paths index.Paths, a *index.Artifacts) error {
	started := time.Now()
	b.journalStart(ctx, "phase5", started)

	if err := index.WriteInvertedIndex(paths.InvertedIndex, a.Inverted); err != nil {
		b.journalFinish(ctx, "phase5", 0, err)
		return err
	}
	if err := index.WriteJSON(paths.IDF, a.IDF); err != nil {
		b.journalFinish(ctx, "phase5", 0, err)
		return err
	}
	if err := index.WriteJSON(paths.DocNorms, a.Norms); err != nil {
		b.journalFinish(ctx, "phase5", 0, err)
		return err
	}
	if err := index.WriteJSON(paths.Stats, a.Stats); err != nil {
		b.journalFinish(ctx, "phase5", 0, err)
		return err
	}

	b.journalFinish(ctx, "phase5", a.Stats.TotalDocuments, nil)
	return nil
}

func (b *Builder) journalStart(ctx context.Context, phase string, at time.Time) {
	if b.opts.Journal == nil {
		return
	}
	_ = b.opts.Journal.PhaseStarted(ctx, b.runID, b.opts.Lang, phase, at)
}

func (b *Builder) journalFinish(ctx context.Context, phase string, docCount int, err error) {
	if b.opts.Journal == nil {
		return
	}
	_ = b.opts.Journal.PhaseFinished(ctx, b.runID, phase, time.Now(), docCount, err)
}

func (b *Builder) logf(format string, args ...any) {
	ts, err := strftime.Format("%H:%M:%S", time.Now())
	if err != nil {
		ts = time.Now().UTC().Format("15:04:05")
	}
	fmt.Fprintf(b.out, "[%s] "+format+"\n", append([]any{ts}, args...)...)
}

func (b *Builder) progress(phase string, count, total int) {
	ts, err := strftime.Format("%H:%M:%S", time.Now())
	if err != nil {
		ts = time.Now().UTC().Format("15:04:05")
	}
	countStr := humanize.Comma(int64(count))

	var line string
	if total > 0 {
		line = fmt.Sprintf("[%s] %s: %s/%s documents", ts, phase, countStr, humanize.Comma(int64(total)))
	} else {
		line = fmt.Sprintf("[%s] %s: %s documents", ts, phase, countStr)
	}

	if b.live {
		fmt.Fprint(b.out, "\r"+line)
	} else {
		fmt.Fprintln(b.out, line)
	}
}

func uniqueStrings(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// snippet mirrors the original builder's text[:300].replace("\n", " "):
// truncate to SnippetLength runes first, then fold newlines to spaces.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) > index.SnippetLength {
		runes = runes[:index.SnippetLength]
	}
	return strings.ReplaceAll(string(runes), "\n", " ")
}
