// pkg/pqueue/pqueue.go
// Package pqueue implements the priority queue driving incremental
// k-NN traversal: a min-heap of pending tree entries ordered by a lower
// bound d_min on their true distance to the query.
//
// Built directly on the standard library's container/heap: a binary
// heap keyed by d_min is adequate here, and no reusable third-party
// priority-queue library fits this shape.
package pqueue

import (
	"container/heap"

	"slimtree/pkg/object"
)

// EntryKind distinguishes a pending leaf object from a pending subtree.
type EntryKind int

const (
	// EntryObject is a single leaf object awaiting distance evaluation.
	EntryObject EntryKind = iota
	// EntrySubtree is an index entry's child, not yet descended.
	EntrySubtree
)

// Entry is one pending item in the traversal frontier. RepObj carries
// the entry's own stored object, already decoded by the caller while
// scanning the parent node, so expanding or resolving this entry never
// requires a second page read just to recover it.
type Entry struct {
	Kind EntryKind
	// DMin is the lower bound on the true distance from the query to
	// anything reachable through this entry.
	DMin float64
	// RepObj is the entry's own object: the subtree's representative
	// when Kind == EntrySubtree, or the leaf object itself when
	// Kind == EntryObject.
	RepObj object.Object
	// PageID is the child page to descend, valid when Kind == EntrySubtree.
	PageID uint32
}

// Queue is a min-heap of Entry ordered by DMin.
type Queue struct {
	items pqHeap
}

// New returns an empty queue.
func New() *Queue {
	q := &Queue{}
	heap.Init(&q.items)
	return q
}

// Len returns the number of pending entries.
func (q *Queue) Len() int { return q.items.Len() }

// Push adds e to the queue.
func (q *Queue) Push(e Entry) {
	heap.Push(&q.items, e)
}

// Pop removes and returns the entry with the smallest DMin.
func (q *Queue) Pop() Entry {
	return heap.Pop(&q.items).(Entry)
}

// Peek returns the entry with the smallest DMin without removing it.
func (q *Queue) Peek() Entry {
	return q.items[0]
}

type pqHeap []Entry

func (h pqHeap) Len() int            { return len(h) }
func (h pqHeap) Less(i, j int) bool  { return h[i].DMin < h[j].DMin }
func (h pqHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pqHeap) Push(x interface{}) { *h = append(*h, x.(Entry)) }
func (h *pqHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
