package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/internalerr"
)

// Paths resolves the five artifact file paths for one language directory,
// following the persistent_index.py layout this module's on-disk format
// is grounded on.
type Paths struct {
	Dir           string
	InvertedIndex string
	IDF           string
	DocNorms      string
	DocMetadata   string
	Stats         string
}

// LangPaths builds the Paths for a language under an index root.
func LangPaths(indexRoot, lang string) Paths {
	dir := filepath.Join(indexRoot, lang)
	return Paths{
		Dir:           dir,
		InvertedIndex: filepath.Join(dir, "inverted_index"),
		IDF:           filepath.Join(dir, "idf"),
		DocNorms:      filepath.Join(dir, "doc_norms"),
		DocMetadata:   filepath.Join(dir, "doc_metadata"),
		Stats:         filepath.Join(dir, "stats"),
	}
}

// Exists reports whether the four required artifacts are present. Stats
// is optional, matching the original PersistentIndex.exists() contract.
func (p Paths) Exists() bool {
	for _, f := range []string{p.InvertedIndex, p.IDF, p.DocNorms, p.DocMetadata} {
		if _, err := os.Stat(f); err != nil {
			return false
		}
	}
	return true
}

// MetadataAndIDFExist reports whether the two artifacts the builder's
// resume path depends on are present.
func (p Paths) MetadataAndIDFExist() bool {
	if _, err := os.Stat(p.DocMetadata); err != nil {
		return false
	}
	if _, err := os.Stat(p.IDF); err != nil {
		return false
	}
	return true
}

// WriteAtomic writes via a temp file in the same directory followed by an
// fsync and rename, so a reader never observes a partially written
// artifact at the canonical path: every write is a whole-file
// replacement.
func WriteAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", internalerr.ErrIO, dir, err)
	}

	tmp := path + ".tmp-" + uuid.NewString()
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", internalerr.ErrIO, tmp, err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: write %s: %v", internalerr.ErrIO, tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: sync %s: %v", internalerr.ErrIO, tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: close %s: %v", internalerr.ErrIO, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename %s -> %s: %v", internalerr.ErrIO, tmp, path, err)
	}
	return nil
}

// WriteJSON atomically writes v as JSON, preserving literal Unicode
// (mirrors the original's ensure_ascii=False).
func WriteJSON(path string, v any) error {
	return WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	})
}

// ReadJSON reads and decodes a JSON artifact, reporting ErrMissingArtifact
// if it cannot be opened.
func ReadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", internalerr.ErrMissingArtifact, path, err)
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}

// WriteInvertedIndex writes a length-prefixed binary framing: u64 term
// count; per term, u32 term-byte length + UTF-8 term + u32 posting count
// + per-posting (u32 id-length + UTF-8 id + float64 weight), all
// little-endian. Terms are written in sorted order so the artifact is
// byte-reproducible across runs with identical input.
func WriteInvertedIndex(path string, idx InvertedIndex) error {
	return WriteAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)

		terms := make([]string, 0, len(idx))
		for t := range idx {
			terms = append(terms, t)
		}
		sort.Strings(terms)

		if err := binary.Write(bw, binary.LittleEndian, uint64(len(terms))); err != nil {
			return err
		}
		for _, term := range terms {
			postings := idx[term]
			termBytes := []byte(term)
			if err := binary.Write(bw, binary.LittleEndian, uint32(len(termBytes))); err != nil {
				return err
			}
			if _, err := bw.Write(termBytes); err != nil {
				return err
			}
			if err := binary.Write(bw, binary.LittleEndian, uint32(len(postings))); err != nil {
				return err
			}
			for _, p := range postings {
				idBytes := []byte(p.DocID)
				if err := binary.Write(bw, binary.LittleEndian, uint32(len(idBytes))); err != nil {
					return err
				}
				if _, err := bw.Write(idBytes); err != nil {
					return err
				}
				if err := binary.Write(bw, binary.LittleEndian, p.Weight); err != nil {
					return err
				}
			}
		}
		return bw.Flush()
	})
}

// ReadInvertedIndex reads the framing WriteInvertedIndex produces.
func ReadInvertedIndex(path string) (InvertedIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrMissingArtifact, path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var termCount uint64
	if err := binary.Read(br, binary.LittleEndian, &termCount); err != nil {
		return nil, fmt.Errorf("%w: reading term count: %v", internalerr.ErrIO, err)
	}

	idx := make(InvertedIndex, termCount)
	for i := uint64(0); i < termCount; i++ {
		term, err := readLengthPrefixed(br)
		if err != nil {
			return nil, fmt.Errorf("%w: reading term %d: %v", internalerr.ErrIO, i, err)
		}

		var postingCount uint32
		if err := binary.Read(br, binary.LittleEndian, &postingCount); err != nil {
			return nil, fmt.Errorf("%w: reading posting count for %q: %v", internalerr.ErrIO, term, err)
		}

		postings := make([]Posting, postingCount)
		for j := uint32(0); j < postingCount; j++ {
			docID, err := readLengthPrefixed(br)
			if err != nil {
				return nil, fmt.Errorf("%w: reading doc id for %q: %v", internalerr.ErrIO, term, err)
			}
			var weight float64
			if err := binary.Read(br, binary.LittleEndian, &weight); err != nil {
				return nil, fmt.Errorf("%w: reading weight for %q: %v", internalerr.ErrIO, term, err)
			}
			postings[j] = Posting{DocID: docID, Weight: weight}
		}
		idx[term] = postings
	}
	return idx, nil
}

func readLengthPrefixed(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// LoadArtifacts reads all five artifacts for a language. Stats is
// optional: a missing stats file yields a zero-value Stats rather than an
// error, matching the original's "load stats if present" behavior.
func LoadArtifacts(paths Paths) (*Artifacts, error) {
	if !paths.Exists() {
		return nil, fmt.Errorf("%w: %s", internalerr.ErrMissingArtifact, paths.Dir)
	}

	inv, err := ReadInvertedIndex(paths.InvertedIndex)
	if err != nil {
		return nil, err
	}
	idf := IDF{}
	if err := ReadJSON(paths.IDF, &idf); err != nil {
		return nil, err
	}
	norms := DocNorms{}
	if err := ReadJSON(paths.DocNorms, &norms); err != nil {
		return nil, err
	}
	meta := DocMetadata{}
	if err := ReadJSON(paths.DocMetadata, &meta); err != nil {
		return nil, err
	}
	var stats Stats
	if _, err := os.Stat(paths.Stats); err == nil {
		_ = ReadJSON(paths.Stats, &stats)
	}

	return &Artifacts{Inverted: inv, IDF: idf, Norms: norms, Metadata: meta, Stats: stats}, nil
}

// WriteArtifacts persists all five artifacts for a language, in the same
// order the original builder wrote them: inverted index, IDF, norms,
// metadata, stats.
func WriteArtifacts(paths Paths, a *Artifacts) error {
	if err := WriteInvertedIndex(paths.InvertedIndex, a.Inverted); err != nil {
		return err
	}
	if err := WriteJSON(paths.IDF, a.IDF); err != nil {
		return err
	}
	if err := WriteJSON(paths.DocNorms, a.Norms); err != nil {
		return err
	}
	if err := WriteJSON(paths.DocMetadata, a.Metadata); err != nil {
		return err
	}
	return WriteJSON(paths.Stats, a.Stats)
}
