// pkg/slimtree/tree.go
// Package slimtree implements a disk-resident Slim-tree: a dynamic,
// height-balanced, paginated metric access method. It indexes arbitrary
// objects through nothing but a caller-supplied distance function,
// answering range, k-nearest-neighbour, and existence queries with
// triangle-inequality pruning instead of a sequential scan.
package slimtree

import (
	"slimtree/pkg/object"
	"slimtree/pkg/page"
	"slimtree/pkg/pager"
	"slimtree/pkg/slimnode"
)

// Tree is a Slim-tree over one page manager, bound to one distance
// function and one object factory. It is not safe for concurrent use:
// a single-threaded cooperative model, no locking.
type Tree struct {
	pm        pager.Manager
	dist      object.Distance
	newObject func() object.Object
	header    treeHeader
}

// New constructs a Tree over pm, using dist to order objects and
// newObject to allocate a blank instance for deserialising objects read
// back from pages. If pm already holds a persisted header (an existing
// tree reopened), that header's state is loaded; otherwise the tree
// starts Empty.
func New(pm pager.Manager, dist object.Distance, newObject func() object.Object) (*Tree, error) {
	t := &Tree{pm: pm, dist: dist, newObject: newObject}

	hp, err := pm.HeaderPage()
	if err != nil {
		return nil, err
	}
	defer pm.ReleasePage(hp)

	buf := make([]byte, headerLayoutSize)
	hp.Read(buf, headerLayoutSize, 0)
	if h, ok := decodeTreeHeader(buf); ok {
		t.header = *h
	}
	return t, nil
}

// commitHeader persists the in-memory header. The header, carrying
// object_count, height, and root, is always written last within an
// operation, after every page it depends on, so no partial insertion
// is ever observable.
func (t *Tree) commitHeader() error {
	hp, err := t.pm.HeaderPage()
	if err != nil {
		return err
	}
	defer t.pm.ReleasePage(hp)

	buf := make([]byte, headerLayoutSize)
	t.header.encode(buf)
	hp.Write(buf, headerLayoutSize, 0)
	return t.pm.WriteHeaderPage(hp)
}

// Height returns the tree's current height: 0 if empty, 1 if the root
// is a leaf, and so on.
func (t *Tree) Height() int { return int(t.header.height) }

// NumObjects returns the total number of objects indexed.
func (t *Tree) NumObjects() int { return int(t.header.objectCount) }

// NodeCount returns the number of allocated nodes.
func (t *Tree) NodeCount() int { return int(t.header.nodeCount) }

// PageManager returns the underlying page manager.
func (t *Tree) PageManager() pager.Manager { return t.pm }

// isEmpty reports the Empty tree state.
func (t *Tree) isEmpty() bool { return t.header.height == 0 }

// Add inserts obj into the tree, returning true on success. A failed
// add (ErrSplitInfeasible or an I/O failure) leaves the tree exactly as
// it was after its most recently committed page write.
func (t *Tree) Add(obj object.Object) (bool, error) {
	objBytes := obj.Serialize()

	if t.isEmpty() {
		p, err := t.pm.NewPage()
		if err != nil {
			return false, err
		}
		node := slimnode.New(p.GetData(), slimnode.KindLeaf)
		slot, ok := node.AddEntry(objBytes)
		if !ok {
			t.pm.DisposePage(p)
			return false, ErrSplitInfeasible
		}
		node.SetDistance(slot, 0)
		rootID := uint32(p.GetID())
		if err := t.pm.WritePage(p); err != nil {
			t.pm.ReleasePage(p)
			return false, err
		}
		t.pm.ReleasePage(p)

		t.header.rootPageID = rootID
		t.header.height = 1
		t.header.nodeCount = 1
		t.header.objectCount = 1
		if err := t.commitHeader(); err != nil {
			return false, err
		}
		return true, nil
	}

	result, err := t.insert(page.ID(t.header.rootPageID), obj, objBytes)
	if err != nil {
		return false, err
	}

	if sr, ok := result.(splitResult); ok {
		if err := t.addNewRoot(sr); err != nil {
			return false, err
		}
	}

	t.header.objectCount++
	if err := t.commitHeader(); err != nil {
		return false, err
	}
	return true, nil
}

// addNewRoot builds a fresh index root over the two representatives a
// split of the old root produced, bumping height by one.
func (t *Tree) addNewRoot(sr splitResult) error {
	p, err := t.pm.NewPage()
	if err != nil {
		return err
	}
	node := slimnode.New(p.GetData(), slimnode.KindIndex)

	items := []bagItem{sr.p, sr.q}
	if err := t.rebuildNode(node, items, 0); err != nil {
		t.pm.DisposePage(p)
		return err
	}

	if err := t.pm.WritePage(p); err != nil {
		t.pm.ReleasePage(p)
		return err
	}
	t.pm.ReleasePage(p)

	t.header.rootPageID = uint32(p.GetID())
	t.header.height++
	t.header.nodeCount++
	return nil
}

func (t *Tree) decodeObject(data []byte) object.Object {
	o := t.newObject()
	// Unserialize errors cannot happen on our own previously-serialised
	// bytes; a corrupt page is a storage-corruption condition this tree
	// does not attempt to detect or recover from.
	_ = o.Unserialize(data)
	return o
}
