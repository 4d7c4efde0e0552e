// pkg/distance/distance.go
// Package distance adapts a bare distance function into the
// object.Distance contract the tree consumes: a thin wrapper that counts
// invocations and optionally applies a caller-supplied filter predicate.
package distance

import "slimtree/pkg/object"

// Func is a raw metric distance function between two objects.
type Func func(a, b object.Object) float64

// Filter is an optional predicate evaluated alongside the metric. It
// must be independent of the metric itself (monotone or always-true);
// otherwise pruning based on triangle-inequality bounds may silently
// skip objects the filter would have accepted. No attempt is made to
// reconcile filter semantics with pruning beyond that requirement;
// callers that need metric-dependent filtering must accept
// possibly-incomplete results.
type Filter func(a, b object.Object) bool

// Adapter wraps Func with an invocation counter, satisfying
// object.Distance.
type Adapter struct {
	fn     Func
	filter Filter
	count  uint64
}

// New wraps fn with no filter.
func New(fn Func) *Adapter {
	return &Adapter{fn: fn}
}

// NewFiltered wraps fn with a filter predicate applied alongside every
// evaluation; Evaluate still returns the raw metric distance, but
// Accept reports whether the pair additionally passes the filter.
func NewFiltered(fn Func, filter Filter) *Adapter {
	return &Adapter{fn: fn, filter: filter}
}

// Evaluate computes d(a, b) and increments the invocation counter.
func (a *Adapter) Evaluate(x, y object.Object) float64 {
	a.count++
	return a.fn(x, y)
}

// Accept reports whether the pair passes the adapter's filter. With no
// filter configured, every pair is accepted.
func (a *Adapter) Accept(x, y object.Object) bool {
	if a.filter == nil {
		return true
	}
	return a.filter(x, y)
}

// Count returns the number of Evaluate calls since the last reset.
func (a *Adapter) Count() uint64 { return a.count }

// ResetStatistics zeroes the invocation counter.
func (a *Adapter) ResetStatistics() { a.count = 0 }

var _ object.Distance = (*Adapter)(nil)
