// Package internalerr holds the sentinel errors shared by the corpus
// reader, builder, merger, and query evaluator.
package internalerr

import "errors"

// Sentinel errors for common failure kinds.
var (
	ErrMissingCorpus       = errors.New("corpus root not found")
	ErrMissingArtifact     = errors.New("required index artifact missing")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrIO                  = errors.New("unrecoverable i/o failure")
)
