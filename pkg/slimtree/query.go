// pkg/slimtree/query.go
package slimtree

import (
	"math"

	"slimtree/pkg/object"
	"slimtree/pkg/page"
	"slimtree/pkg/pqueue"
	"slimtree/pkg/resultset"
	"slimtree/pkg/slimnode"
)

// loadRepresentative returns the decoded representative object stored
// at pageID's node (the entry with distance_to_rep == 0).
func (t *Tree) loadRepresentative(pageID page.ID) (object.Object, error) {
	p, err := t.pm.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	defer t.pm.ReleasePage(p)
	node := slimnode.Load(p.GetData())
	return t.decodeObject(node.GetObject(node.RepresentativeSlot())), nil
}

// RangeQuery returns every indexed object within distance r of q.
func (t *Tree) RangeQuery(q object.Object, r float64) (*resultset.ResultSet, error) {
	rs := resultset.New()
	if t.isEmpty() {
		return rs, nil
	}

	rootObj, err := t.loadRepresentative(page.ID(t.header.rootPageID))
	if err != nil {
		return nil, err
	}
	dq := t.dist.Evaluate(q, rootObj)
	if err := t.rangeQueryNode(page.ID(t.header.rootPageID), q, r, dq, rs); err != nil {
		return rs, err
	}
	return rs, nil
}

func (t *Tree) rangeQueryNode(pageID page.ID, q object.Object, r, dq float64, rs *resultset.ResultSet) error {
	p, err := t.pm.GetPage(pageID)
	if err != nil {
		return err
	}
	defer t.pm.ReleasePage(p)
	node := slimnode.Load(p.GetData())
	n := node.NumEntries()

	if node.IsLeaf() {
		for i := 0; i < n; i++ {
			delta := node.Distance(i)
			if math.Abs(dq-delta) > r {
				continue
			}
			obj := t.decodeObject(node.GetObject(i))
			d := t.dist.Evaluate(q, obj)
			if d <= r && t.dist.Accept(q, obj) {
				rs.Add(obj.Clone(), d)
			}
		}
		return nil
	}

	for i := 0; i < n; i++ {
		delta := node.Distance(i)
		rho := node.Radius(i)
		if math.Abs(dq-delta) > r+rho {
			continue
		}
		entryObj := t.decodeObject(node.GetObject(i))
		dc := t.dist.Evaluate(q, entryObj)
		if err := t.rangeQueryNode(page.ID(node.ChildPageID(i)), q, r, dc, rs); err != nil {
			return err
		}
	}
	return nil
}

// ExistsQuery runs a range query that stops as soon as the first
// qualifying object is found, so the returned set holds at most one
// pair; further qualifying objects, including ones at the same
// distance, are not collected. An empty set means no object lies
// within r of q.
func (t *Tree) ExistsQuery(q object.Object, r float64) (*resultset.ResultSet, error) {
	rs := resultset.New()
	if t.isEmpty() {
		return rs, nil
	}

	rootObj, err := t.loadRepresentative(page.ID(t.header.rootPageID))
	if err != nil {
		return nil, err
	}
	dq := t.dist.Evaluate(q, rootObj)
	_, err = t.existsQueryNode(page.ID(t.header.rootPageID), q, r, dq, rs)
	return rs, err
}

func (t *Tree) existsQueryNode(pageID page.ID, q object.Object, r, dq float64, rs *resultset.ResultSet) (bool, error) {
	p, err := t.pm.GetPage(pageID)
	if err != nil {
		return false, err
	}
	defer t.pm.ReleasePage(p)
	node := slimnode.Load(p.GetData())
	n := node.NumEntries()

	if node.IsLeaf() {
		for i := 0; i < n; i++ {
			delta := node.Distance(i)
			if math.Abs(dq-delta) > r {
				continue
			}
			obj := t.decodeObject(node.GetObject(i))
			d := t.dist.Evaluate(q, obj)
			if d <= r && t.dist.Accept(q, obj) {
				rs.Add(obj.Clone(), d)
				return true, nil
			}
		}
		return false, nil
	}

	for i := 0; i < n; i++ {
		delta := node.Distance(i)
		rho := node.Radius(i)
		if math.Abs(dq-delta) > r+rho {
			continue
		}
		entryObj := t.decodeObject(node.GetObject(i))
		dc := t.dist.Evaluate(q, entryObj)
		found, err := t.existsQueryNode(page.ID(node.ChildPageID(i)), q, r, dc, rs)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// NearestQuery returns the k objects closest to q via incremental
// best-first traversal. When tie is true, every object additionally
// tied with the k-th distance is also returned.
//
// Each index entry's stored object is already the representative of
// its child subtree (installed there at split time), so a popped
// subtree item is expanded, and its own representative's distance to q
// evaluated, without a second page read. An index entry's representative
// is never separately emitted as a candidate result here: it is always
// also reachable through exactly one leaf entry in its own subtree
// (every representative is a real inserted object promoted upward, not
// a synthetic proxy), so leaf traversal alone already yields it once;
// emitting it again at the index level would double-count it.
func (t *Tree) NearestQuery(q object.Object, k int, tie bool) (*resultset.ResultSet, error) {
	rs := resultset.NewBounded(k)
	if t.isEmpty() || k <= 0 {
		return rs, nil
	}

	rootObj, err := t.loadRepresentative(page.ID(t.header.rootPageID))
	if err != nil {
		return nil, err
	}

	var seen []resultset.Pair
	pq := pqueue.New()
	pq.Push(pqueue.Entry{Kind: pqueue.EntrySubtree, DMin: 0, RepObj: rootObj, PageID: uint32(t.header.rootPageID)})

	for pq.Len() > 0 {
		if pq.Peek().DMin > rs.WorstDistance() {
			break
		}
		e := pq.Pop()
		if e.Kind == pqueue.EntryObject {
			d := t.dist.Evaluate(q, e.RepObj)
			if t.dist.Accept(q, e.RepObj) {
				rs.Add(e.RepObj.Clone(), d)
				if tie {
					seen = append(seen, resultset.Pair{Object: e.RepObj, Distance: d})
				}
			}
			continue
		}
		if err := t.expandSubtree(pq, q, e); err != nil {
			return nil, err
		}
	}

	if tie {
		eps := rs.WorstDistance()
		tied := resultset.NewBounded(k)
		for _, s := range seen {
			if s.Distance <= eps {
				tied.AddTied(s.Object.Clone(), s.Distance)
			}
		}
		rs = tied
		for pq.Len() > 0 && pq.Peek().DMin <= eps {
			e := pq.Pop()
			if e.Kind == pqueue.EntryObject {
				d := t.dist.Evaluate(q, e.RepObj)
				if d <= eps && t.dist.Accept(q, e.RepObj) {
					rs.AddTied(e.RepObj.Clone(), d)
				}
				continue
			}
			if err := t.expandSubtree(pq, q, e); err != nil {
				return nil, err
			}
		}
	}

	return rs, nil
}

// expandSubtree loads e's child page and pushes each of its entries
// back onto pq with a freshly tightened lower bound.
func (t *Tree) expandSubtree(pq *pqueue.Queue, q object.Object, e pqueue.Entry) error {
	p, err := t.pm.GetPage(page.ID(e.PageID))
	if err != nil {
		return err
	}
	defer t.pm.ReleasePage(p)
	node := slimnode.Load(p.GetData())

	dc := t.dist.Evaluate(q, e.RepObj)
	n := node.NumEntries()
	for i := 0; i < n; i++ {
		delta := node.Distance(i)
		entryObj := t.decodeObject(node.GetObject(i))
		if node.IsLeaf() {
			bound := math.Abs(dc - delta)
			pq.Push(pqueue.Entry{Kind: pqueue.EntryObject, DMin: bound, RepObj: entryObj})
			continue
		}
		radius := node.Radius(i)
		bound := math.Abs(dc-delta) - radius
		if bound < 0 {
			bound = 0
		}
		pq.Push(pqueue.Entry{Kind: pqueue.EntrySubtree, DMin: bound, RepObj: entryObj, PageID: node.ChildPageID(i)})
	}
	return nil
}
