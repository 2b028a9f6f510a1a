package build

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/index"
)

func writeCorpusFile(t *testing.T, root, subdir, file string, lines []string) {
	t.Helper()
	dir := filepath.Join(root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func article(id, title, text string) string {
	return fmt.Sprintf(`{"id":%q,"title":%q,"url":"u/%s","text":%q}`, id, title, id, text)
}

// pad extends short scenario text past the corpus reader's minimum
// article length so these fixtures are not silently dropped.
func pad(text string) string {
	filler := " relleno de prueba para superar el umbral minimo de caracteres del articulo de prueba"
	for len([]rune(text)) < 120 {
		text += filler
	}
	return text
}

func TestBuildTinyCorpusTermIDF(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "a", "docs.jsonl", []string{
		article("1", "uno", pad("el gato come pescado")),
		article("2", "dos", pad("el perro come carne")),
		article("3", "tres", pad("gato y perro son mascotas")),
	})

	indexRoot := t.TempDir()
	b := New(Options{CorpusRoot: root, IndexRoot: indexRoot, Lang: "es"})
	stats, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalDocuments != 3 {
		t.Fatalf("expected 3 documents, got %d", stats.TotalDocuments)
	}

	paths := index.LangPaths(indexRoot, "es")
	idf := index.IDF{}
	if err := index.ReadJSON(paths.IDF, &idf); err != nil {
		t.Fatal(err)
	}

	got, ok := idf["gat"]
	if !ok {
		t.Fatalf("expected stemmed term %q in idf table, got keys %v", "gat", keys(idf))
	}
	want := math.Log(4.0/3.0) + 1.0
	if math.Abs(got-want) > 1e-4 {
		t.Fatalf("idf[gat] = %v, want ~%v (1.2877)", got, want)
	}

	inv, err := index.ReadInvertedIndex(paths.InvertedIndex)
	if err != nil {
		t.Fatal(err)
	}
	postings, ok := inv["gat"]
	if !ok {
		t.Fatalf("expected posting list for %q", "gat")
	}
	docs := map[string]bool{}
	for _, p := range postings {
		docs[p.DocID] = true
	}
	if !docs["1"] || !docs["3"] || docs["2"] {
		t.Fatalf("expected postings for docs 1 and 3 only, got %+v", postings)
	}
}

func TestBuildPostingCapRetainsHighestWeights(t *testing.T) {
	root := t.TempDir()
	const n = 15_000
	var lines []string
	for i := 0; i < n; i++ {
		// Term "x" appears in every document. Every third document
		// carries it twice, so its TF-IDF weight for "x" is higher
		// than the others'; those heavier postings are spread over the
		// whole stream, so an arrival-order cap would drop some of them.
		prefix := "x"
		if i%3 == 0 {
			prefix = "x x"
		}
		text := pad(fmt.Sprintf("%s unique%d filler content words here for length", prefix, i))
		lines = append(lines, article(fmt.Sprintf("%d", i), "t", text))
	}
	writeCorpusFile(t, root, "a", "docs.jsonl", lines)

	indexRoot := t.TempDir()
	b := New(Options{CorpusRoot: root, IndexRoot: indexRoot, Lang: "en"})
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	paths := index.LangPaths(indexRoot, "en")
	inv, err := index.ReadInvertedIndex(paths.InvertedIndex)
	if err != nil {
		t.Fatal(err)
	}
	postings := inv["x"]
	if len(postings) != index.MaxPostingsPerTerm {
		t.Fatalf("expected exactly %d postings for capped term, got %d", index.MaxPostingsPerTerm, len(postings))
	}

	min := postings[0].Weight
	for _, p := range postings {
		if p.Weight < min {
			min = p.Weight
		}
	}
	for _, p := range postings {
		if p.Weight < min-1e-9 {
			t.Fatalf("found retained posting %v below minimum %v", p, min)
		}
	}

	retained := map[string]bool{}
	for _, p := range postings {
		retained[p.DocID] = true
	}
	for i := 0; i < n; i += 3 {
		if !retained[fmt.Sprintf("%d", i)] {
			t.Fatalf("heavier posting for doc %d was dropped while lighter postings were kept", i)
		}
	}
}

func TestBuildResumeAtPhase3IsByteEquivalent(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "a", "docs.jsonl", []string{
		article("1", "uno", pad("el gato come pescado")),
		article("2", "dos", pad("el perro come carne")),
		article("3", "tres", pad("gato y perro son mascotas")),
	})

	fullRoot := t.TempDir()
	if _, err := New(Options{CorpusRoot: root, IndexRoot: fullRoot, Lang: "es"}).Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	resumedRoot := t.TempDir()
	b := New(Options{CorpusRoot: root, IndexRoot: resumedRoot, Lang: "es"})
	// Build once, then delete inverted_index and doc_norms and resume,
	// simulating an interruption after Phase 2.
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	paths := index.LangPaths(resumedRoot, "es")
	os.Remove(paths.InvertedIndex)
	os.Remove(paths.DocNorms)

	if _, err := ResumePhase3(context.Background(), Options{CorpusRoot: root, IndexRoot: resumedRoot, Lang: "es"}); err != nil {
		t.Fatal(err)
	}

	fullPaths := index.LangPaths(fullRoot, "es")
	fullInv, err := index.ReadInvertedIndex(fullPaths.InvertedIndex)
	if err != nil {
		t.Fatal(err)
	}
	resumedInv, err := index.ReadInvertedIndex(paths.InvertedIndex)
	if err != nil {
		t.Fatal(err)
	}
	if len(fullInv) != len(resumedInv) {
		t.Fatalf("term count mismatch: %d vs %d", len(fullInv), len(resumedInv))
	}
	for term, postings := range fullInv {
		other, ok := resumedInv[term]
		if !ok || len(other) != len(postings) {
			t.Fatalf("term %q mismatch between full and resumed build", term)
		}
		for i := range postings {
			if postings[i] != other[i] {
				t.Fatalf("term %q posting %d differs: %v vs %v", term, i, postings[i], other[i])
			}
		}
	}
}

func TestBuildUnsupportedLanguageFailsLoud(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "a", "docs.jsonl", []string{article("1", "t", pad("hello world"))})

	b := New(Options{CorpusRoot: root, IndexRoot: t.TempDir(), Lang: "klingon"})
	if _, err := b.Build(context.Background()); err == nil {
		t.Fatal("expected an error for an unsupported language at build time")
	}
}

func TestBuildMissingCorpusRoot(t *testing.T) {
	b := New(Options{CorpusRoot: filepath.Join(t.TempDir(), "missing"), IndexRoot: t.TempDir(), Lang: "en"})
	if _, err := b.Build(context.Background()); err == nil {
		t.Fatal("expected an error for a missing corpus root")
	}
}

func keys(m index.IDF) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
