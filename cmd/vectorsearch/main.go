// Command vectorsearch builds, merges, and searches per-language TF-IDF
// indexes over a line-delimited JSON corpus. It is a direct, in-process
// exercise of the builder/merger/evaluator packages for operators.
//
// Grounded on cmd/rss-indexer/main.go's flag-parsing and fatal-on-
// missing-required-flag texture, split into one subcommand per
// pkg/vectorsearch component.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/build"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/config"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/index"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/internalerr"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/lingua"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/merge"
	"github.com/cognicore/vectorsearch/pkg/vectorsearch/query"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: vectorsearch <build-index|resume-phase3|merge-indexes|search|languages> [flags]")
	}

	ctx := context.Background()
	var err error

	switch os.Args[1] {
	case "build-index":
		err = runBuildIndex(ctx, os.Args[2:])
	case "resume-phase3":
		err = runResumePhase3(ctx, os.Args[2:])
	case "merge-indexes":
		err = runMergeIndexes(ctx, os.Args[2:])
	case "search":
		err = runSearch(ctx, os.Args[2:])
	case "languages":
		err = runLanguages(os.Args[2:])
	default:
		log.Fatalf("unknown subcommand %q", os.Args[1])
	}

	if err == nil {
		return
	}
	switch {
	case isMissingCorpus(err):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	case isUnrecoverableIO(err):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		log.Fatal(err)
	}
}

func isMissingCorpus(err error) bool {
	return errors.Is(err, internalerr.ErrMissingCorpus)
}

func isUnrecoverableIO(err error) bool {
	return errors.Is(err, internalerr.ErrIO)
}

// loadConfig reads --config when set, returning (nil, nil) when the flag
// is empty so callers can fall back entirely to their own flag defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, nil
	}
	return config.Load(path)
}

// profilesFromConfig builds a Profiles cache seeded with every profile
// override a config declares, so a build or search run that passes
// --config picks up the same extra stopwords regardless of which
// subcommand loaded the file. A nil cfg returns a plain cache.
func profilesFromConfig(cfg *config.Config) (*lingua.Profiles, error) {
	profiles := lingua.NewProfiles()
	if cfg == nil {
		return profiles, nil
	}
	for _, override := range cfg.Profiles {
		if err := profiles.ExtendStopwords(override.Language, override.ExtraStopwords, true); err != nil {
			return nil, fmt.Errorf("config: applying profile override for %q: %w", override.Language, err)
		}
	}
	return profiles, nil
}

func runBuildIndex(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build-index", flag.ExitOnError)
	configPath := fs.String("config", "", "settings YAML seeding defaults and profile overrides (optional)")
	corpus := fs.String("corpus", "", "corpus root directory (required unless set in --config)")
	indexRoot := fs.String("index-root", "", "index output directory (required unless set in --config)")
	lang := fs.String("lang", "", "language code: es, ca, pt, en, or fr (required unless --config sets default_lang)")
	maxDocs := fs.Int("max-docs", 0, "maximum documents to index (0 = unbounded)")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg != nil {
		if *corpus == "" {
			*corpus = cfg.CorpusRoot
		}
		if *indexRoot == "" {
			*indexRoot = cfg.IndexRoot
		}
		if *lang == "" {
			*lang = cfg.DefaultLang
		}
		if *maxDocs == 0 {
			*maxDocs = cfg.MaxDocs
		}
	}

	if *corpus == "" {
		log.Fatal("--corpus required")
	}
	if *indexRoot == "" {
		log.Fatal("--index-root required")
	}
	if *lang == "" {
		log.Fatal("--lang required")
	}

	profiles, err := profilesFromConfig(cfg)
	if err != nil {
		return err
	}

	journal, err := index.OpenJournal(ctx, *indexRoot)
	if err != nil {
		return err
	}
	defer journal.Close()

	opts := build.Options{
		CorpusRoot: *corpus,
		IndexRoot:  *indexRoot,
		Lang:       *lang,
		MaxDocs:    *maxDocs,
		Profiles:   profiles,
		Journal:    journal,
	}
	if cfg != nil {
		opts.MaxPostingsPerTerm = cfg.MaxPostingsPerTerm
	}
	b := build.New(opts)
	stats, err := b.Build(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("build complete: %d documents, %d terms, %.1fs\n", stats.TotalDocuments, stats.VocabularySize, stats.BuildTimeSeconds)
	return nil
}

func runResumePhase3(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resume-phase3", flag.ExitOnError)
	corpus := fs.String("corpus", "", "corpus root directory (required)")
	indexRoot := fs.String("index-root", "", "index directory with doc_metadata and idf present (required)")
	lang := fs.String("lang", "", "language code (required)")
	fs.Parse(args)

	if *corpus == "" {
		log.Fatal("--corpus required")
	}
	if *indexRoot == "" {
		log.Fatal("--index-root required")
	}
	if *lang == "" {
		log.Fatal("--lang required")
	}

	journal, err := index.OpenJournal(ctx, *indexRoot)
	if err != nil {
		return err
	}
	defer journal.Close()

	stats, err := build.ResumePhase3(ctx, build.Options{
		CorpusRoot: *corpus,
		IndexRoot:  *indexRoot,
		Lang:       *lang,
		Journal:    journal,
	})
	if err != nil {
		return err
	}
	fmt.Printf("resume complete: %d documents, %d terms, %.1fs\n", stats.TotalDocuments, stats.VocabularySize, stats.BuildTimeSeconds)
	return nil
}

func runMergeIndexes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("merge-indexes", flag.ExitOnError)
	configPath := fs.String("config", "", "settings YAML seeding defaults (optional)")
	indexRoot := fs.String("index-root", "", "index root directory containing per-language subdirectories (required unless set in --config)")
	langs := fs.String("langs", "", "comma-separated language codes to merge (default: --config's languages, or auto-discover)")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	var languages []string
	if *langs != "" {
		languages = strings.Split(*langs, ",")
	} else if cfg != nil {
		languages = cfg.Languages
	}
	if cfg != nil && *indexRoot == "" {
		*indexRoot = cfg.IndexRoot
	}

	if *indexRoot == "" {
		log.Fatal("--index-root required")
	}

	journal, err := index.OpenJournal(ctx, *indexRoot)
	if err != nil {
		return err
	}
	defer journal.Close()

	mergeOpts := merge.Options{IndexRoot: *indexRoot, Languages: languages, Journal: journal}
	if cfg != nil {
		mergeOpts.MaxPostingsPerTerm = cfg.MaxPostingsPerTerm
	}
	m := merge.New(mergeOpts)
	stats, err := m.Merge(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("merge complete: %d documents, %d terms, languages=%v\n", stats.TotalDocuments, stats.VocabularySize, stats.Languages)
	return nil
}

// knownLanguageCodes is the candidate set runLanguages probes for a
// resident index; it mirrors the codes lingua.normalizeLanguage accepts.
var knownLanguageCodes = []string{"es", "ca", "pt", "en", "fr"}

func runLanguages(args []string) error {
	fs := flag.NewFlagSet("languages", flag.ExitOnError)
	indexRoot := fs.String("index-root", "", "index root directory (required)")
	fs.Parse(args)

	if *indexRoot == "" {
		log.Fatal("--index-root required")
	}

	evaluator, err := query.New(query.Options{IndexRoot: *indexRoot})
	if err != nil {
		return err
	}
	available := evaluator.AvailableLanguages(knownLanguageCodes)
	if len(available) == 0 {
		fmt.Println("no language indexes found")
		return nil
	}
	for _, lang := range available {
		fmt.Println(lang)
	}
	return nil
}

func runSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "", "settings YAML seeding defaults and profile overrides (optional)")
	indexRoot := fs.String("index-root", "", "index root directory (required unless set in --config)")
	lang := fs.String("lang", "", "language code (required unless --config sets default_lang)")
	q := fs.String("q", "", "query text (required)")
	topK := fs.Int("top-k", 10, "maximum results to return")
	cacheSize := fs.Int("cache-size", 64, "recent-query result cache size (0 disables it)")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg != nil {
		if *indexRoot == "" {
			*indexRoot = cfg.IndexRoot
		}
		if *lang == "" {
			*lang = cfg.DefaultLang
		}
		if cfg.CacheSize != 0 {
			*cacheSize = cfg.CacheSize
		}
	}

	if *indexRoot == "" {
		log.Fatal("--index-root required")
	}
	if *lang == "" {
		log.Fatal("--lang required")
	}
	if *q == "" {
		log.Fatal("--q required")
	}

	profiles, err := profilesFromConfig(cfg)
	if err != nil {
		return err
	}

	evaluator, err := query.New(query.Options{IndexRoot: *indexRoot, Profiles: profiles, CacheSize: *cacheSize})
	if err != nil {
		return err
	}
	results, err := evaluator.Search(ctx, *q, *lang, *topK)
	if err != nil {
		return err
	}

	for i, r := range results {
		fmt.Printf("%d. [%s] %s (%s)\n   %s\n", i+1, strconv.FormatFloat(r.Score, 'f', 4, 64), r.Title, r.URL, r.Snippet)
	}
	if len(results) == 0 {
		fmt.Println("no results")
	}
	return nil
}
