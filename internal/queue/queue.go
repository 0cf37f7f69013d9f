// Package queue provides the bounded top-k priority queue used by search.
package queue

import "container/heap"

// Compile time check to ensure maxHeap satisfies the heap interface.
var _ heap.Interface = (*maxHeap)(nil)

// Item represents a search candidate in the priority queue.
// Value-based (no pointers) for cache locality and zero allocations.
type Item struct {
	Row      uint32  // Row is the insertion-ordered slot of the candidate.
	Distance float32 // Distance is the priority of the item in the queue.
}

// worse reports whether a ranks strictly behind b in the result order.
func worse(a, b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.Row > b.Row
}

// maxHeap implements heap.Interface with the worst candidate on top so it
// can be evicted first.
type maxHeap []Item

// Len returns the number of elements in the heap.
func (h maxHeap) Len() int { return len(h) }

// Less reports whether the element with index i should sort before the element with index j.
func (h maxHeap) Less(i, j int) bool { return worse(h[i], h[j]) }

// Swap swaps the elements with indexes i and j.
func (h maxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push adds x to the heap.
func (h *maxHeap) Push(x any) {
	item, _ := x.(Item)
	*h = append(*h, item)
}

// Pop removes and returns the top element from the heap.
func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = Item{}
	*h = old[:n-1]
	return item
}

// TopK keeps the k best candidates seen so far as a max-heap keyed on
// (Distance, Row): the worst candidate sits at the top and is evicted first.
// Ties on distance are broken by Row, so of two equally distant candidates
// the earlier inserted one wins.
type TopK struct {
	k     int
	items maxHeap
}

// NewTopK initializes a top-k queue with the given capacity.
func NewTopK(k int) *TopK {
	return &TopK{
		k:     k,
		items: make(maxHeap, 0, k),
	}
}

// Len returns the number of items currently held.
func (q *TopK) Len() int { return len(q.items) }

// Top returns the current worst candidate without removing it.
func (q *TopK) Top() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Consider offers a candidate to the queue. It is kept if the queue is not
// full yet or if it beats the current worst candidate.
func (q *TopK) Consider(it Item) {
	if len(q.items) < q.k {
		heap.Push(&q.items, it)
		return
	}
	if !worse(it, q.items[0]) {
		q.items[0] = it
		heap.Fix(&q.items, 0)
	}
}

// Drain removes all items and returns them ordered best-first
// (ascending distance, ties by ascending row).
func (q *TopK) Drain() []Item {
	out := make([]Item, len(q.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = heap.Pop(&q.items).(Item)
	}
	return out
}
