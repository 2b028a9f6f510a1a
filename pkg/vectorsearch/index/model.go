// Package index holds the data model and on-disk artifact format shared
// by the builder, merger, and query evaluator: postings, the inverted
// index, the IDF table, document norms, document metadata, and stats.
package index

// MaxPostingsPerTerm bounds how many postings an inverted-index term may
// retain.
const MaxPostingsPerTerm = 10_000

// SnippetLength is the number of text characters kept as a document
// snippet in metadata.
const SnippetLength = 300

// Posting is one (doc_id, weight) entry in a term's posting list.
type Posting struct {
	DocID  string
	Weight float64
}

// InvertedIndex maps a term to its posting list, sorted by weight
// descending, capped at MaxPostingsPerTerm, with no duplicate doc id.
type InvertedIndex map[string][]Posting

// IDF maps a term to its inverse document frequency.
type IDF map[string]float64

// DocNorms maps a doc id to the Euclidean norm of its TF-IDF vector.
type DocNorms map[string]float64

// Metadata is the persisted {title, url, snippet, lang} record for one
// document.
type Metadata struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Lang    string `json:"lang"`
}

// DocMetadata maps a doc id to its Metadata.
type DocMetadata map[string]Metadata

// Stats summarizes one build or merge run.
type Stats struct {
	TotalDocuments     int      `json:"total_documents"`
	VocabularySize     int      `json:"vocabulary_size"`
	BuildTimeSeconds   float64  `json:"build_time_seconds"`
	Languages          []string `json:"languages"`
	MaxPostingsPerTerm int      `json:"max_postings_per_term"`
	MaxDocsLimit       *int     `json:"max_docs_limit,omitempty"`
}

// Artifacts bundles the five persisted pieces of one language's index in
// memory, the unit the query evaluator loads and the builder/merger
// produce.
type Artifacts struct {
	Inverted InvertedIndex
	IDF      IDF
	Norms    DocNorms
	Metadata DocMetadata
	Stats    Stats
}
