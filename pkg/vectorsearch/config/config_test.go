package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(`
corpus_root: /data/corpus
index_root: /data/index
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultLang != "es" {
		t.Fatalf("expected default_lang es, got %q", cfg.DefaultLang)
	}
	if len(cfg.Languages) == 0 {
		t.Fatal("expected a non-empty default language list")
	}
	if cfg.MaxPostingsPerTerm != 10_000 {
		t.Fatalf("expected default max_postings_per_term 10000, got %d", cfg.MaxPostingsPerTerm)
	}
}

func TestLoadParsesProfileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(`
corpus_root: /data/corpus
index_root: /data/index
profiles:
  - language: es
    extra_stopwords: [empresa, articulo]
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Profiles) != 1 || cfg.Profiles[0].Language != "es" {
		t.Fatalf("expected one es profile override, got %+v", cfg.Profiles)
	}
	if len(cfg.Profiles[0].ExtraStopwords) != 2 {
		t.Fatalf("expected 2 extra stopwords, got %v", cfg.Profiles[0].ExtraStopwords)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error loading a missing config file")
	}
}
