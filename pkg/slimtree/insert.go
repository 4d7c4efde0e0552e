// pkg/slimtree/insert.go
package slimtree

import (
	"sort"

	"slimtree/pkg/object"
	"slimtree/pkg/page"
	"slimtree/pkg/slimnode"
)

// insertResult is the outcome a subtree insertion reports to its caller.
type insertResult interface{ isInsertResult() }

// absorbedResult means the object fit in the target subtree; the
// calling index entry's subtree object count grows by one and its
// radius may need to grow.
type absorbedResult struct{}

func (absorbedResult) isInsertResult() {}

// splitResult means the target subtree overflowed and produced two
// sibling nodes whose representative descriptors (object bytes,
// covering radius, subtree object count, and the page each now lives
// on) must be installed by the caller.
type splitResult struct {
	p, q bagItem
}

func (splitResult) isInsertResult() {}

// repChangedResult means the target subtree absorbed the object
// without overflowing, but in doing so replaced its own
// representative object (the absorb removed the entry that used to
// hold it). desc is the subtree's new representative descriptor,
// which the caller must install in its own entry for this subtree in
// place of the stale one.
type repChangedResult struct {
	desc bagItem
}

func (repChangedResult) isInsertResult() {}

// bagItem is one object under consideration during a split. As a bag
// member it is an existing entry's object plus, for index-node bags,
// its child subtree's bookkeeping. As a splitResult field it instead
// describes one of the two new sibling nodes: objBytes is its
// representative's serialised form, radius its covering radius,
// subtreeCount its total descendant count, and childPageID the page it
// was written to.
type bagItem struct {
	obj          object.Object
	objBytes     []byte
	radius       float64
	subtreeCount uint32
	childPageID  uint32
}

// insert recurses into the subtree rooted at pageID, returning an
// absorbed or split outcome.
func (t *Tree) insert(pageID page.ID, obj object.Object, objBytes []byte) (insertResult, error) {
	p, err := t.pm.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	node := slimnode.Load(p.GetData())

	var result insertResult
	if node.IsLeaf() {
		result, err = t.insertLeaf(p, node, obj, objBytes)
	} else {
		result, err = t.insertIndex(p, node, obj, objBytes)
	}
	if err != nil {
		t.pm.ReleasePage(p)
		return nil, err
	}

	if err := t.pm.WritePage(p); err != nil {
		t.pm.ReleasePage(p)
		return nil, err
	}
	t.pm.ReleasePage(p)
	return result, nil
}

// insertLeaf adds obj to a leaf node directly, splitting if it overflows.
func (t *Tree) insertLeaf(p *page.Page, node *slimnode.Node, obj object.Object, objBytes []byte) (insertResult, error) {
	repSlot := node.RepresentativeSlot()
	repObj := t.decodeObject(node.GetObject(repSlot))
	d := t.dist.Evaluate(repObj, obj)

	if slot, ok := node.AddEntry(objBytes); ok {
		node.SetDistance(slot, d)
		return absorbedResult{}, nil
	}

	bag := collectBag(t, node)
	bag = append(bag, bagItem{obj: obj, objBytes: objBytes})
	return t.splitNodeInPlace(p, node, bag)
}

// insertIndex chooses a child subtree and dispatches the recursive
// insert, handling whichever of the child's three possible outcomes
// comes back: absorbed, split, or representative-changed.
func (t *Tree) insertIndex(p *page.Page, node *slimnode.Node, obj object.Object, objBytes []byte) (insertResult, error) {
	slot, grow, d := t.chooseSubtree(node, obj)
	childID := page.ID(node.ChildPageID(slot))

	childResult, err := t.insert(childID, obj, objBytes)
	if err != nil {
		return nil, err
	}
	// The child insert may have allocated pages and moved the backing
	// store, so this node is re-read through a fresh view of its page.
	fresh, err := t.pm.GetPage(p.GetID())
	if err != nil {
		return nil, err
	}
	defer t.pm.ReleasePage(fresh)
	node = slimnode.Load(fresh.GetData())

	switch r := childResult.(type) {
	case absorbedResult:
		node.SetSubtreeCount(slot, node.SubtreeCount(slot)+1)
		if grow {
			node.SetRadius(slot, d)
		}
		return absorbedResult{}, nil

	case splitResult:
		return t.absorbChildUpdate(p, node, slot, r.p, r.q)

	case repChangedResult:
		return t.absorbChildUpdate(p, node, slot, r.desc)
	}
	panic("slimtree: unreachable insert result")
}

// absorbChildUpdate replaces node's entry for the subtree at slot with
// one or two replacement descriptors reported by that subtree's
// insert (two from a split, one from a bare representative change),
// rebuilding node in place.
//
// If slot held node's own representative, the replaced entry takes
// over as node's new representative (the old one no longer exists to
// keep), and that change must itself be reported to node's parent;
// otherwise node's representative is unaffected and the replacement
// is purely an absorb.
func (t *Tree) absorbChildUpdate(p *page.Page, node *slimnode.Node, slot int, replacements ...bagItem) (insertResult, error) {
	repSlot := node.RepresentativeSlot()
	wasRep := slot == repSlot
	var repObj object.Object
	if !wasRep {
		repObj = t.decodeObject(node.GetObject(repSlot))
	}
	node.RemoveEntry(slot)

	bag := collectBag(t, node)
	bag = append(bag, replacements...)

	if !fits(slimnode.KindIndex, bag, len(p.GetData())) {
		return t.splitNodeInPlace(p, node, bag)
	}

	newRepIdx := len(bag) - len(replacements)
	if !wasRep {
		newRepIdx = representativeIndex(bag, repObj)
	}

	node.RemoveAll()
	if err := t.rebuildNode(node, bag, newRepIdx); err != nil {
		return nil, err
	}
	if !wasRep {
		return absorbedResult{}, nil
	}
	return repChangedResult{desc: bagItem{
		obj:          bag[newRepIdx].obj,
		objBytes:     bag[newRepIdx].objBytes,
		radius:       node.MinimumRadius(),
		subtreeCount: node.TotalObjectCount(),
		childPageID:  uint32(p.GetID()),
	}}, nil
}

// chooseSubtree picks the child to descend into: a covering subtree if
// one exists, otherwise the one needing least radius enlargement.
func (t *Tree) chooseSubtree(node *slimnode.Node, obj object.Object) (slot int, grow bool, d float64) {
	n := node.NumEntries()
	distances := make([]float64, n)
	for i := 0; i < n; i++ {
		entryObj := t.decodeObject(node.GetObject(i))
		distances[i] = t.dist.Evaluate(obj, entryObj)
	}

	bestCover := -1
	for i := 0; i < n; i++ {
		if distances[i] > node.Radius(i) {
			continue
		}
		if bestCover == -1 || better(distances[i], node.SubtreeCount(i), i, distances[bestCover], node.SubtreeCount(bestCover), bestCover) {
			bestCover = i
		}
	}
	if bestCover != -1 {
		return bestCover, false, distances[bestCover]
	}

	best := 0
	bestKey := distances[0] - node.Radius(0)
	for i := 1; i < n; i++ {
		key := distances[i] - node.Radius(i)
		if better(key, node.SubtreeCount(i), i, bestKey, node.SubtreeCount(best), best) {
			best = i
			bestKey = key
		}
	}
	return best, true, distances[best]
}

// better reports whether candidate (key, occupation, index) should
// replace the current best, breaking ties by smallest occupation, then
// smallest index.
func better(key float64, occupation uint32, idx int, bestKey float64, bestOccupation uint32, bestIdx int) bool {
	if key != bestKey {
		return key < bestKey
	}
	if occupation != bestOccupation {
		return occupation < bestOccupation
	}
	return idx < bestIdx
}

// collectBag reads every entry of node into a bagItem, decoding its
// object and any index-only bookkeeping.
func collectBag(t *Tree, node *slimnode.Node) []bagItem {
	n := node.NumEntries()
	bag := make([]bagItem, 0, n)
	isIndex := !node.IsLeaf()
	for i := 0; i < n; i++ {
		objBytes := append([]byte(nil), node.GetObject(i)...)
		item := bagItem{obj: t.decodeObject(objBytes), objBytes: objBytes}
		if isIndex {
			item.radius = node.Radius(i)
			item.subtreeCount = node.SubtreeCount(i)
			item.childPageID = node.ChildPageID(i)
		}
		bag = append(bag, item)
	}
	return bag
}

// representativeIndex finds repObj's position within bag. Callers only
// use this when repObj is known to still be present (the entry that
// held it was not the one just replaced); see absorbChildUpdate.
func representativeIndex(bag []bagItem, repObj object.Object) int {
	for i, item := range bag {
		if item.obj.IsEqual(repObj) {
			return i
		}
	}
	panic("slimtree: representative missing from rebuilt bag")
}

// splitNodeInPlace runs the minMax split over bag, rewrites node's own
// page with partition P, allocates a fresh page for partition Q, and
// returns the splitResult the caller installs one level up.
func (t *Tree) splitNodeInPlace(p *page.Page, node *slimnode.Node, bag []bagItem) (insertResult, error) {
	kind := node.Kind()
	pageSize := len(p.GetData())

	partP, partQ, err := t.minMaxSplit(kind, bag, pageSize)
	if err != nil {
		return nil, err
	}

	node.RemoveAll()
	if err := t.rebuildNode(node, partP, 0); err != nil {
		return nil, err
	}
	descP := bagItem{
		obj:          partP[0].obj,
		objBytes:     partP[0].objBytes,
		radius:       node.MinimumRadius(),
		subtreeCount: node.TotalObjectCount(),
		childPageID:  uint32(p.GetID()),
	}

	qPage, err := t.pm.NewPage()
	if err != nil {
		return nil, err
	}
	qNode := slimnode.New(qPage.GetData(), kind)
	if err := t.rebuildNode(qNode, partQ, 0); err != nil {
		t.pm.DisposePage(qPage)
		return nil, err
	}
	descQ := bagItem{
		obj:          partQ[0].obj,
		objBytes:     partQ[0].objBytes,
		radius:       qNode.MinimumRadius(),
		subtreeCount: qNode.TotalObjectCount(),
		childPageID:  uint32(qPage.GetID()),
	}
	if err := t.pm.WritePage(qPage); err != nil {
		t.pm.ReleasePage(qPage)
		return nil, err
	}
	t.pm.ReleasePage(qPage)
	t.header.nodeCount++

	return splitResult{p: descP, q: descQ}, nil
}

// minMaxSplit partitions bag into two new nodes by the minMax
// representative-pair algorithm, returning the two partitions with
// each partition's representative placed first (index 0).
func (t *Tree) minMaxSplit(kind slimnode.Kind, bag []bagItem, pageSize int) (partP, partQ []bagItem, err error) {
	n := len(bag)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := t.dist.Evaluate(bag[i].obj, bag[j].obj)
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	type candidate struct {
		p, q     int
		r        float64
		sumRadii float64
		combined int
	}
	var candidates []candidate
	for p := 0; p < n; p++ {
		for q := p + 1; q < n; q++ {
			var maxP, maxQ float64
			for x := 0; x < n; x++ {
				if x == p || x == q {
					continue
				}
				if dist[x][p] <= dist[x][q] {
					if dist[x][p] > maxP {
						maxP = dist[x][p]
					}
				} else if dist[x][q] > maxQ {
					maxQ = dist[x][q]
				}
			}
			r := maxP
			if maxQ > r {
				r = maxQ
			}
			candidates = append(candidates, candidate{
				p: p, q: q, r: r,
				sumRadii: maxP + maxQ,
				combined: len(bag[p].objBytes) + len(bag[q].objBytes),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.r != b.r {
			return a.r < b.r
		}
		if a.sumRadii != b.sumRadii {
			return a.sumRadii < b.sumRadii
		}
		return a.combined < b.combined
	})

	for _, c := range candidates {
		P, Q := partitionBag(bag, dist, c.p, c.q)
		if fits(kind, P, pageSize) && fits(kind, Q, pageSize) {
			return P, Q, nil
		}
	}

	return nil, nil, ErrSplitInfeasible
}

// partitionBag assigns every bag member to the nearer of p, q, placing
// each chosen representative first in its own partition.
func partitionBag(bag []bagItem, dist [][]float64, p, q int) (P, Q []bagItem) {
	P = append(P, bag[p])
	Q = append(Q, bag[q])
	for x := range bag {
		if x == p || x == q {
			continue
		}
		if dist[x][p] <= dist[x][q] {
			P = append(P, bag[x])
		} else {
			Q = append(Q, bag[x])
		}
	}
	return P, Q
}

// fits reports whether every item in items can be packed into one node
// of kind within pageSize bytes.
func fits(kind slimnode.Kind, items []bagItem, pageSize int) bool {
	total := slimnode.HeaderSize() + len(items)*slimnode.EntrySize(kind)
	for _, it := range items {
		total += len(it.objBytes)
	}
	return total <= pageSize
}

// rebuildNode clears node and repopulates it from items, designating
// items[repIdx] as the node's representative (distance_to_rep == 0);
// every other item's distance is recomputed against it.
func (t *Tree) rebuildNode(node *slimnode.Node, items []bagItem, repIdx int) error {
	node.RemoveAll()
	rep := items[repIdx].obj
	isIndex := node.Kind() == slimnode.KindIndex

	for i, item := range items {
		slot, ok := node.AddEntry(item.objBytes)
		if !ok {
			return ErrSplitInfeasible
		}
		if i == repIdx {
			node.SetDistance(slot, 0)
		} else {
			node.SetDistance(slot, t.dist.Evaluate(item.obj, rep))
		}
		if isIndex {
			node.SetRadius(slot, item.radius)
			node.SetSubtreeCount(slot, item.subtreeCount)
			node.SetChildPageID(slot, item.childPageID)
		}
	}
	return nil
}
