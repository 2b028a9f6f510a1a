// Package config loads YAML configuration for the build, merge, and
// search commands: corpus/index locations, the supported language set,
// and per-language profile overrides.
//
// Grounded on pkg/korel/config/config.go's LoadStoplist/LoadTaxonomy
// shape: a plain struct with yaml tags, loaded with os.ReadFile +
// yaml.Unmarshal, one loader function per file kind.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level settings file for the CLI commands.
type Config struct {
	CorpusRoot string   `yaml:"corpus_root"`
	IndexRoot  string   `yaml:"index_root"`
	Languages  []string `yaml:"languages"`
	DefaultLang string  `yaml:"default_lang"`

	MaxDocs            int `yaml:"max_docs"`
	MaxPostingsPerTerm int `yaml:"max_postings_per_term"`
	CacheSize          int `yaml:"cache_size"`

	Profiles []ProfileOverride `yaml:"profiles"`
}

// ProfileOverride lets an operator extend a language's stopword set
// beyond the built-in closed-class list without recompiling — e.g. to
// exclude domain-specific boilerplate terms discovered after the fact.
type ProfileOverride struct {
	Language       string   `yaml:"language"`
	ExtraStopwords []string `yaml:"extra_stopwords"`
}

// Load reads and parses a Config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultLang == "" {
		c.DefaultLang = "es"
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"es", "ca", "pt", "en", "fr"}
	}
	if c.MaxPostingsPerTerm == 0 {
		c.MaxPostingsPerTerm = 10_000
	}
}
