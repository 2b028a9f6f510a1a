package index

import "sort"

// SortPostingsDescending orders postings by weight descending, breaking
// ties by doc id ascending, in place. Both the builder and the merger
// need this ordering to keep artifacts byte-reproducible across runs
// over identical input.
func SortPostingsDescending(postings []Posting) {
	sort.Slice(postings, func(i, j int) bool {
		if postings[i].Weight != postings[j].Weight {
			return postings[i].Weight > postings[j].Weight
		}
		return postings[i].DocID < postings[j].DocID
	})
}

// CapPostings truncates postings to at most n entries. Callers are
// expected to have already sorted descending, so truncation keeps the
// highest-weighted entries.
func CapPostings(postings []Posting, n int) []Posting {
	if n > 0 && len(postings) > n {
		return postings[:n]
	}
	return postings
}
