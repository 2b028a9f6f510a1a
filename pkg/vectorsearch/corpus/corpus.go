// Package corpus implements a lazy, re-entrant stream of Articles over a
// directory tree of line-delimited JSON, in deterministic sorted order.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"iter"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/internalerr"
)

// minArticleChars is the minimum non-whitespace text length for an
// article to be retained. The rationale for this exact threshold is
// unstated upstream; the value is preserved as-is and listed as an
// open question in SPEC_FULL.md rather than re-derived here.
const minArticleChars = 100

// Article is one corpus document as produced by the upstream extractor.
type Article struct {
	ID    string
	Title string
	URL   string
	Text  string
}

type rawArticle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

// IterArticles returns a lazy, re-entrant iterator over every article
// under root, in sorted-subdirectory-then-sorted-filename order. Calling
// the returned sequence restarts iteration from the beginning every time
// (it holds no state of its own beyond what os.ReadDir reconstructs
// per call): two independent calls yield the same sequence.
//
// maxDocs <= 0 means unbounded. The only error this returns is a missing
// root; everything else (a bad file, a malformed line) is logged and
// skipped so the stream keeps flowing.
func IterArticles(root string, maxDocs int) (iter.Seq[Article], error) {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", internalerr.ErrMissingCorpus, root)
	}

	seq := func(yield func(Article) bool) {
		count := 0
		for _, subdir := range sortedDirs(root) {
			subPath := filepath.Join(root, subdir)
			for _, file := range sortedFiles(subPath) {
				filePath := filepath.Join(subPath, file)
				cont := streamFile(filePath, maxDocs, &count, yield)
				if !cont {
					return
				}
			}
		}
	}
	return seq, nil
}

func sortedDirs(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		log.Printf("corpus: reading %s: %v", root, err)
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs
}

func sortedFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("corpus: reading %s: %v", dir, err)
		return nil
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files
}

// streamFile reads one file line by line, yielding a well-formed Article
// per valid, non-empty line. Returns false once the caller's yield says
// stop, or maxDocs has been reached.
func streamFile(path string, maxDocs int, count *int, yield func(Article) bool) bool {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("corpus: warning: skipping unreadable file %s: %v", path, err)
		return true
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw rawArticle
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			// Malformed line: logged at debug level, skipped, iteration
			// continues.
			log.Printf("corpus: debug: skipping malformed line in %s: %v", path, err)
			continue
		}

		text := strings.TrimSpace(raw.Text)
		if countNonWhitespace(text) < minArticleChars {
			continue
		}

		article := Article{ID: raw.ID, Title: raw.Title, URL: raw.URL, Text: text}
		if !yield(article) {
			return false
		}

		*count++
		if maxDocs > 0 && *count >= maxDocs {
			return false
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("corpus: warning: error reading %s: %v", path, err)
	}
	return true
}

func countNonWhitespace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
