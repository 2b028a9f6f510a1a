// Package query loads one language's index on demand and ranks documents
// against a query by cosine similarity over TF-IDF vectors.
//
// Grounded on original_source/backend/persistent_index.py for the
// load/unload/current_lang state shape and
// original_source/backend/indexing.py's rank_documents for the scoring
// algorithm. The whole per-language index fits resident in memory, so
// there is no external store round-trip per query.
package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/index"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/internalerr"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/lingua"
)

// state is the evaluator's load state machine:
// unloaded -> loading -> loaded(lang) -> unloaded.
type state int

const (
	stateUnloaded state = iota
	stateLoading
	stateLoaded
)

// Result is one ranked hit, joined with its document metadata.
type Result struct {
	DocID   string  `json:"doc_id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// cacheKey identifies one (language, query, top_k) search for the
// result cache.
type cacheKey struct {
	lang  string
	query string
	topK  int
}

// Evaluator holds at most one language's index resident in memory.
type Evaluator struct {
	indexRoot string
	profiles  *lingua.Profiles

	mu    sync.RWMutex
	cond  *sync.Cond
	st    state
	lang  string
	arts  *index.Artifacts

	cache *lru.Cache[cacheKey, []Result]
}

// Options configures a new Evaluator.
type Options struct {
	IndexRoot string
	Profiles  *lingua.Profiles

	// CacheSize bounds the number of recent (lang, query, top_k) result
	// sets retained. 0 disables the cache.
	CacheSize int
}

// New constructs an Evaluator in the Unloaded state.
func New(opts Options) (*Evaluator, error) {
	profiles := opts.Profiles
	if profiles == nil {
		profiles = lingua.NewProfiles()
	}

	e := &Evaluator{indexRoot: opts.IndexRoot, profiles: profiles, st: stateUnloaded}
	e.cond = sync.NewCond(&e.mu)

	if opts.CacheSize > 0 {
		c, err := lru.New[cacheKey, []Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("query: building result cache: %w", err)
		}
		e.cache = c
	}
	return e, nil
}

// AvailableLanguages lists each of the candidate languages that has a
// complete artifact set under the index root. Directories not named in
// candidates are not considered.
func (e *Evaluator) AvailableLanguages(candidates []string) []string {
	var out []string
	for _, lang := range candidates {
		if index.LangPaths(e.indexRoot, lang).Exists() {
			out = append(out, lang)
		}
	}
	return out
}

// CurrentLang returns the currently loaded language, or "" if unloaded.
func (e *Evaluator) CurrentLang() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lang
}

// Load reads all five artifacts for lang into memory. Idempotent if
// lang is already loaded. Concurrent callers requesting the same
// transition block on the loading call in progress rather than racing
// ahead on partially loaded state.
func (e *Evaluator) Load(lang string) error {
	e.mu.Lock()
	for e.st == stateLoading {
		e.cond.Wait()
	}
	if e.st == stateLoaded && e.lang == lang {
		e.mu.Unlock()
		return nil
	}
	e.st = stateLoading
	e.mu.Unlock()

	paths := index.LangPaths(e.indexRoot, lang)
	arts, err := index.LoadArtifacts(paths)

	e.mu.Lock()
	defer func() {
		e.st = stateLoaded
		if err != nil {
			e.st = stateUnloaded
		}
		e.cond.Broadcast()
		e.mu.Unlock()
	}()

	if err != nil {
		return err
	}
	e.arts = arts
	e.lang = lang
	e.purgeCache()
	return nil
}

// Unload releases resident state without touching disk.
func (e *Evaluator) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.st == stateLoading {
		e.cond.Wait()
	}
	e.arts = nil
	e.lang = ""
	e.st = stateUnloaded
	e.purgeCache()
}

func (e *Evaluator) purgeCache() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

// Search ranks documents in lang's index against queryText, switching
// the resident language first if needed.
//
// lang is checked in two distinct steps, each with its own error kind: a
// language this evaluator has no stemmer/stopword profile for at all is
// ErrUnsupportedLanguage (a caller input error), while a supported
// language with no index built for it yet is ErrMissingArtifact (a
// server-side state error). Once both checks pass, preprocessing the
// query text itself uses the lenient (non-strict) fallback, since by
// this point lang is known-supported and the lenient path only matters
// for defense in depth.
func (e *Evaluator) Search(ctx context.Context, queryText, lang string, topK int) ([]Result, error) {
	if _, err := e.profiles.Get(lang, true); err != nil {
		return nil, err
	}
	if !index.LangPaths(e.indexRoot, lang).Exists() {
		return nil, fmt.Errorf("%w: no index for language %q", internalerr.ErrMissingArtifact, lang)
	}

	if e.CurrentLang() != lang {
		e.Unload()
		if err := e.Load(lang); err != nil {
			return nil, err
		}
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey{lang: lang, query: queryText, topK: topK}); ok {
			return cached, nil
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.st != stateLoaded || e.lang != lang {
		return nil, fmt.Errorf("%w: index for %q not resident", internalerr.ErrMissingArtifact, lang)
	}

	terms, err := e.profiles.Preprocess(queryText, lang, false)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return []Result{}, nil
	}

	queryVec := computeQueryVector(terms, e.arts.IDF)
	if len(queryVec) == 0 {
		return []Result{}, nil
	}

	queryNorm := vectorNorm(queryVec)
	if queryNorm == 0.0 {
		return []Result{}, nil
	}

	scores := make(map[string]float64)
	for term, qWeight := range queryVec {
		for _, p := range e.arts.Inverted[term] {
			scores[p.DocID] += qWeight * p.Weight
		}
	}

	type scored struct {
		docID string
		score float64
	}
	ranked := make([]scored, 0, len(scores))
	for docID, dot := range scores {
		norm, ok := e.arts.Norms[docID]
		if !ok || norm <= 0.0 {
			continue
		}
		ranked = append(ranked, scored{docID: docID, score: dot / (norm * queryNorm)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].docID < ranked[j].docID
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		meta := e.arts.Metadata[r.docID]
		results = append(results, Result{
			DocID:   r.docID,
			Title:   meta.Title,
			URL:     meta.URL,
			Snippet: meta.Snippet,
			Score:   roundTo4(r.score),
		})
	}

	if e.cache != nil {
		e.cache.Add(cacheKey{lang: lang, query: queryText, topK: topK}, results)
	}
	return results, nil
}

// computeQueryVector builds the TF-IDF query vector, dropping terms
// absent from idf: a term the index has never seen carries no signal.
func computeQueryVector(terms []string, idf index.IDF) map[string]float64 {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	n := len(terms)

	vec := make(map[string]float64, len(counts))
	for term, c := range counts {
		weight, ok := idf[term]
		if !ok {
			continue
		}
		vec[term] = (float64(c) / float64(n)) * weight
	}
	return vec
}

func vectorNorm(vec map[string]float64) float64 {
	sum := 0.0
	for _, w := range vec {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// roundTo4 rounds a score to four fractional digits for display. Ranking
// always happens on the unrounded value.
func roundTo4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
