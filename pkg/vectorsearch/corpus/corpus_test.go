package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/internalerr"
)

func writeCorpus(t *testing.T, lines map[string][]string) string {
	t.Helper()
	root := t.TempDir()
	for subdir, fileLines := range lines {
		dir := filepath.Join(root, subdir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "wiki_00"), []byte(joinLines(fileLines)), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

var longText = `{"id":"1","url":"http://x/1","title":"T1","text":"` + repeat("lorem ipsum dolor sit amet ", 10) + `"}`

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

func TestIterArticlesMissingRoot(t *testing.T) {
	_, err := IterArticles(filepath.Join(t.TempDir(), "does-not-exist"), 0)
	if err == nil {
		t.Fatal("expected error for missing corpus root")
	}
	if !errorsIs(err, internalerr.ErrMissingCorpus) {
		t.Fatalf("expected ErrMissingCorpus, got %v", err)
	}
}

func errorsIs(err, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func TestIterArticlesSortedDeterministicOrder(t *testing.T) {
	root := writeCorpus(t, map[string][]string{
		"AB": {longText},
		"AA": {`{"id":"2","url":"http://x/2","title":"T2","text":"` + repeat("alpha beta gamma delta ", 10) + `"}`},
	})

	seq, err := IterArticles(root, 0)
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for a := range seq {
		ids = append(ids, a.ID)
	}
	if len(ids) != 2 || ids[0] != "2" || ids[1] != "1" {
		t.Fatalf("expected AA (id 2) before AB (id 1), got %v", ids)
	}
}

func TestIterArticlesSkipsMalformedAndShort(t *testing.T) {
	root := writeCorpus(t, map[string][]string{
		"AA": {
			`not json at all`,
			`{"id":"3","url":"u","title":"short","text":"too short"}`,
			longText,
		},
	})

	seq, err := IterArticles(root, 0)
	if err != nil {
		t.Fatal(err)
	}

	var got []Article
	for a := range seq {
		got = append(got, a)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected exactly article id 1 to survive, got %v", got)
	}
}

func TestIterArticlesMaxDocs(t *testing.T) {
	lines := []string{}
	for i := 0; i < 5; i++ {
		lines = append(lines, `{"id":"`+string(rune('a'+i))+`","url":"u","title":"t","text":"`+repeat("word ", 30)+`"}`)
	}
	root := writeCorpus(t, map[string][]string{"AA": lines})

	seq, err := IterArticles(root, 2)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for range seq {
		count++
	}
	if count != 2 {
		t.Fatalf("expected max-docs to cap at 2, got %d", count)
	}
}

func TestIterArticlesReentrant(t *testing.T) {
	root := writeCorpus(t, map[string][]string{"AA": {longText}})
	seq, err := IterArticles(root, 0)
	if err != nil {
		t.Fatal(err)
	}

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != second || first != 1 {
		t.Fatalf("expected re-entrant iteration to yield same count twice, got %d and %d", first, second)
	}
}
