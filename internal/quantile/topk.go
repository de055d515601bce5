package quantile

import "container/heap"

// topKHeap is a bounded min-heap over the largest K samples seen so far,
// used to repair the t-digest's known inaccuracy in the upper tail (spec
// §4.1). Its Push/Pop/Len shape mirrors the teacher pack's own
// blockNode heap (blockdag/blockheap_test.go), adapted to float64 samples
// via the standard container/heap interface rather than a bespoke
// implementation, since no specialized heap library appears anywhere in
// the retrieval pack.
type topKHeap struct {
	data     []float64
	capacity int
}

func newTopKHeap(capacity int) *topKHeap {
	return &topKHeap{capacity: capacity}
}

// offer considers v for inclusion in the top-K set. If the heap has room,
// v is always kept; otherwise v replaces the current minimum only if v is
// larger, preserving the K largest samples observed.
func (h *topKHeap) offer(v float64) {
	if h.capacity <= 0 {
		return
	}
	if len(h.data) < h.capacity {
		heap.Push(h, v)
		return
	}
	if len(h.data) > 0 && v > h.data[0] {
		h.data[0] = v
		heap.Fix(h, 0)
	}
}

// Len, Less, Swap, Push, Pop implement heap.Interface for the min-heap.
func (h *topKHeap) Len() int            { return len(h.data) }
func (h *topKHeap) Less(i, j int) bool  { return h.data[i] < h.data[j] }
func (h *topKHeap) Swap(i, j int)       { h.data[i], h.data[j] = h.data[j], h.data[i] }
func (h *topKHeap) Push(x interface{})  { h.data = append(h.data, x.(float64)) }
func (h *topKHeap) Pop() interface{} {
	old := h.data
	n := len(old)
	v := old[n-1]
	h.data = old[:n-1]
	return v
}

// rankFromTop returns the value at the given rank counting down from the
// largest element (rank 0 is the maximum), and whether the heap holds
// enough entries to answer it exactly. The heap is sorted descending only
// at query time, matching spec §4.1's "sorted descending at query time".
func (h *topKHeap) rankFromTop(rank int) (float64, bool) {
	if rank < 0 || rank >= len(h.data) {
		return 0, false
	}
	sorted := make([]float64, len(h.data))
	copy(sorted, h.data)
	// descending sort; small K so an insertion-style sort is fine.
	for i := 1; i < len(sorted); i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] < v {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}
	return sorted[rank], true
}
