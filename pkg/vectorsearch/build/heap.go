package build

import (
	"container/heap"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/index"
)

// postingHeap is a min-heap over postings ordered by ascending weight,
// used to retain the top MaxPostingsPerTerm postings per term by weight
// rather than by arrival order, so a high-weight posting seen late in
// the stream is never evicted in favor of a low-weight one seen early.
// The root is always the current minimum of the retained set, so a new
// posting only needs one comparison against the root to decide whether
// it displaces the weakest retained entry.
type postingHeap []index.Posting

func (h postingHeap) Len() int            { return len(h) }
func (h postingHeap) Less(i, j int) bool  { return h[i].Weight < h[j].Weight }
func (h postingHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *postingHeap) Push(x any)         { *h = append(*h, x.(index.Posting)) }
func (h *postingHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// pushCapped adds a posting to h, evicting the current minimum-weight
// entry when h is already at capacity and the new posting outweighs it.
// A posting that would not displace the minimum is dropped — it can
// never appear in the final top-k by definition.
func pushCapped(h *postingHeap, p index.Posting, capacity int) {
	if h.Len() < capacity {
		heap.Push(h, p)
		return
	}
	if capacity > 0 && (*h)[0].Weight < p.Weight {
		(*h)[0] = p
		heap.Fix(h, 0)
	}
}

// drainSorted copies a postingHeap into a slice sorted by weight
// descending, a distinct step after the heap has bounded each term's
// posting list. The heap itself is left unchanged.
func drainSorted(h *postingHeap) []index.Posting {
	out := make([]index.Posting, len(*h))
	copy(out, *h)
	sortDescending(out)
	return out
}
