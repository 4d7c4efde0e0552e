// pkg/resultset/resultset.go
// Package resultset implements the ordered (object, distance) collection
// returned by every query: unbounded for range and existence queries,
// or bounded to the k best for nearest-neighbour queries with optional
// tie inclusion at the boundary distance.
package resultset

import (
	"container/heap"
	"math"
	"sort"

	"slimtree/pkg/object"
)

// Pair is one (object, distance) result, owned by the caller. seq
// records the order Pairs were added in, used only to break distance
// ties deterministically in Pairs.
type Pair struct {
	Object   object.Object
	Distance float64
	seq      uint64
}

// ResultSet accumulates query results. An unbounded set (New) is an
// append-only collection for range/existence queries. A bounded set
// (NewBounded) retains at most k best pairs, backed by a max-heap
// ordered by distance so the current worst retained distance (the
// dynamic k-NN radius epsilon) is always available in O(1).
// NewBounded(0) is a valid, always-empty bounded set: k = 0 must always
// return an empty result, which the unbounded flag keeps distinct from
// a zero-capacity bounded set.
type ResultSet struct {
	pairs     maxHeap
	bound     int
	unbounded bool
	nextSeq   uint64
}

// New returns an unbounded result set.
func New() *ResultSet {
	return &ResultSet{unbounded: true}
}

// NewBounded returns a result set retaining at most k pairs, the
// structure nearest-neighbour queries use.
func NewBounded(k int) *ResultSet {
	rs := &ResultSet{bound: k}
	heap.Init(&rs.pairs)
	return rs
}

// Len returns the number of pairs currently retained.
func (r *ResultSet) Len() int { return len(r.pairs) }

// IsFull reports whether a bounded set has reached its cap.
func (r *ResultSet) IsFull() bool {
	return !r.unbounded && len(r.pairs) >= r.bound
}

// WorstDistance returns the current worst retained distance (the
// dynamic radius epsilon for an in-progress k-NN query), or +Inf if the
// bounded set has not yet reached its cap. Unbounded sets always
// report +Inf.
func (r *ResultSet) WorstDistance() float64 {
	if r.unbounded || len(r.pairs) == 0 || len(r.pairs) < r.bound {
		return math.Inf(1)
	}
	return r.pairs[0].Distance
}

// Add inserts a pair. For an unbounded set it always succeeds. For a
// bounded set: if there is room, the pair is kept; otherwise, if d is
// strictly better than the current worst, the worst is evicted and the
// new pair kept. Add reports whether the pair was retained.
func (r *ResultSet) Add(obj object.Object, d float64) bool {
	if r.unbounded {
		heap.Push(&r.pairs, r.stamp(obj, d))
		return true
	}
	if r.bound == 0 {
		return false
	}
	if len(r.pairs) < r.bound {
		heap.Push(&r.pairs, r.stamp(obj, d))
		return true
	}
	if d < r.pairs[0].Distance {
		heap.Pop(&r.pairs)
		heap.Push(&r.pairs, r.stamp(obj, d))
		return true
	}
	return false
}

// AddTied force-inserts a pair beyond the bound, used for the k-NN
// tie-drain pass: draining the frontier while its head's d_min stays
// at or below epsilon, emitting every equal-distance object. It never
// evicts.
func (r *ResultSet) AddTied(obj object.Object, d float64) {
	heap.Push(&r.pairs, r.stamp(obj, d))
}

// stamp builds a Pair carrying the next insertion sequence number.
func (r *ResultSet) stamp(obj object.Object, d float64) Pair {
	r.nextSeq++
	return Pair{Object: obj, Distance: d, seq: r.nextSeq}
}

// Pairs returns every retained pair sorted ascending by distance,
// breaking ties by the order the pairs were added in.
func (r *ResultSet) Pairs() []Pair {
	out := make([]Pair, len(r.pairs))
	copy(out, r.pairs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// maxHeap orders Pairs by distance descending, so the root is the
// current worst (largest-distance) retained pair.
type maxHeap []Pair

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) {
	*h = append(*h, x.(Pair))
}
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
