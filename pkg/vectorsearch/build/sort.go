package build

import "github.com/cognicore/vectorsearch/pkg/vectorsearch/index"

// sortDescending orders postings by weight descending, breaking ties by
// doc id ascending so the artifact is byte-reproducible across runs over
// identical input.
func sortDescending(postings []index.Posting) {
	index.SortPostingsDescending(postings)
}
