// Package lingua turns text + language into an ordered sequence of
// normalized, stemmed terms.
//
// Stop-word sets and stemmers are expensive to keep recomputing, so they
// are cached — but that cache is an explicit value (Profiles) owned by
// whoever needs it (the builder, the evaluator, a test), never a
// package-level hidden singleton. A small package-level convenience
// wraps a private default Profiles for callers that just want the pure
// preprocess(text, language) function.
package lingua

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/kljensen/snowball"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/internalerr"
)

// tokenPattern matches maximal runs of Unicode letters, digits, and
// underscore — the Go equivalent of Python's re.findall(r"\w+", s,
// re.UNICODE), which is what the original preprocessor used.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Profile bundles the stopword set and stemmer for one canonical language.
type Profile struct {
	Canonical string
	Stopwords map[string]struct{}
	Stem      func(word string) string
}

// Profiles is a process-wide-safe, explicitly owned cache of language
// Profiles, built lazily and keyed by canonical language name.
type Profiles struct {
	mu    sync.Mutex
	cache map[string]*Profile
}

// NewProfiles creates an empty, ready-to-use Profiles cache. Safe to call
// from multiple call sites — each Builder/Evaluator should own its own
// instance rather than reaching for a shared global.
func NewProfiles() *Profiles {
	return &Profiles{cache: make(map[string]*Profile)}
}

// Get resolves a requested language code to a cached Profile.
//
// When strict is true (build time) an unsupported language is a hard
// error — builds must fail loudly rather than silently stem with the
// wrong language. When strict is false
// (query time) an unsupported language falls back to English with a
// logged warning, preserving the original system's latent behavior for
// read paths where failing a query outright would be worse than a
// degraded stem.
func (p *Profiles) Get(language string, strict bool) (*Profile, error) {
	canonical := normalizeLanguage(language)
	if canonical == "" {
		if strict {
			return nil, fmt.Errorf("%w: %q", internalerr.ErrUnsupportedLanguage, language)
		}
		log.Printf("lingua: unrecognized language %q, falling back to english stemming", language)
		canonical = "english"
	}
	return p.getOrBuild(canonical), nil
}

func (p *Profiles) getOrBuild(canonical string) *Profile {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prof, ok := p.cache[canonical]; ok {
		return prof
	}
	prof := &Profile{
		Canonical: canonical,
		Stopwords: stopwordsFor(canonical),
		Stem:      stemFunc(canonical),
	}
	p.cache[canonical] = prof
	return prof
}

// Preprocess runs the full pipeline for one document or query: lowercase,
// tokenize, drop stopwords, stem. strict controls unsupported-language
// handling as documented on Get.
func (p *Profiles) Preprocess(text, language string, strict bool) ([]string, error) {
	profile, err := p.Get(language, strict)
	if err != nil {
		return nil, err
	}
	return preprocessWith(profile, text), nil
}

func preprocessWith(profile *Profile, text string) []string {
	lower := strings.ToLower(text)
	raw := tokenPattern.FindAllString(lower, -1)

	terms := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, isStop := profile.Stopwords[tok]; isStop {
			continue
		}
		stemmed := profile.Stem(tok)
		if stemmed == "" {
			continue
		}
		terms = append(terms, stemmed)
	}
	return terms
}

// ExtendStopwords adds extra stopwords to a language's profile, copying
// the profile's stopword set on first use rather than mutating the
// shared built-in table in place (which is keyed by canonical language
// name and reused by every Profiles instance process-wide).
func (p *Profiles) ExtendStopwords(language string, words []string, strict bool) error {
	profile, err := p.Get(language, strict)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	extended := make(map[string]struct{}, len(profile.Stopwords)+len(words))
	for w := range profile.Stopwords {
		extended[w] = struct{}{}
	}
	for _, w := range words {
		extended[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	p.cache[profile.Canonical] = &Profile{
		Canonical: profile.Canonical,
		Stopwords: extended,
		Stem:      profile.Stem,
	}
	return nil
}

var defaultProfiles = NewProfiles()

// Preprocess is the package-level pure-function form, for callers that
// don't need build-time strictness.
func Preprocess(text, language string) []string {
	terms, _ := defaultProfiles.Preprocess(text, language, false)
	return terms
}

// normalizeLanguage maps a language code or alias to a canonical name
// used by the stopword/stemmer tables. Catalan intentionally maps to
// Spanish — no bundled Catalan stemmer; documented quirk, not a bug.
// Returns "" when the code is not recognized at all.
func normalizeLanguage(language string) string {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "es", "spanish", "español", "castellano":
		return "spanish"
	case "ca", "catalan", "català":
		return "spanish"
	case "pt", "portuguese", "português", "pt-br", "pt-pt":
		return "portuguese"
	case "en", "english", "inglés":
		return "english"
	case "fr", "french", "français", "francés":
		return "french"
	default:
		return ""
	}
}

func stopwordsFor(canonical string) map[string]struct{} {
	switch canonical {
	case "spanish":
		return spanishStopwords
	case "portuguese":
		return portugueseStopwords
	case "french":
		return frenchStopwords
	default:
		return englishStopwords
	}
}

// stemFunc returns a stemmer closure for the canonical language, backed
// by the generic snowball.Stem dispatcher rather than the library's
// per-language subpackages (snowball/english, snowball/spanish, ...) —
// this module needs to pick a stemmer by a runtime language code, which
// is exactly what the generic entry point is for. A word the underlying
// algorithm rejects (empty input, stemmer error) is passed through
// unchanged rather than dropped, matching the original's behavior of
// always emitting one stem per input token.
func stemFunc(canonical string) func(string) string {
	return func(word string) string {
		if word == "" {
			return ""
		}
		stemmed, err := snowball.Stem(word, canonical, true)
		if err != nil {
			return word
		}
		return stemmed
	}
}
