// pkg/slimnode/node.go
// Package slimnode interprets a page as a Slim-tree node: an entry table
// growing from the low end of the data area and a variable-length
// object area growing from the high end. Two entry shapes share this
// layout: leaf entries (distance to the node's representative) and
// index entries (distance, covering radius, subtree object count, child
// page id), selected by a one-byte type tag in the node header.
//
// This mirrors pkg/btree/node.go's cell-pointer-table-plus-reverse-
// content-area layout, generalized from ordered key/value cells to
// distance-bucketed metric entries.
package slimnode

import (
	"encoding/binary"
	"errors"
	"math"
)

// Kind identifies a node's entry layout.
type Kind byte

const (
	KindUnknown Kind = 0
	KindIndex   Kind = 1
	KindLeaf    Kind = 2
)

const (
	headerSize = 3 // type(1) + occupation(2)

	leafEntrySize  = 12 // distance f64(8) + offset u32(4)
	indexEntrySize = 28 // distance f64(8) + radius f64(8) + subtreeCount u32(4) + childID u32(4) + offset u32(4)
)

var (
	// ErrOutOfRange is a debug-only bounds assertion on node-local slot
	// arguments. DebugChecks gates whether it is raised.
	ErrOutOfRange = errors.New("slimnode: slot out of range")
)

// DebugChecks enables debug-only bounds assertions on slot arguments.
// Release builds leave this false and trust internal callers, matching
// the original's `#ifdef __stDEBUG__` guards.
var DebugChecks = false

// Node is a view over a page-sized buffer, reinterpreted as either an
// index or leaf node. It borrows data for the duration of one operation
// and must not outlive the page's release.
type Node struct {
	data []byte
}

// New initializes data as a fresh, empty node of the given kind.
func New(data []byte, kind Kind) *Node {
	n := &Node{data: data}
	data[0] = byte(kind)
	binary.LittleEndian.PutUint16(data[1:3], 0)
	return n
}

// Load reinterprets an existing page's bytes as a node without touching
// its header.
func Load(data []byte) *Node {
	return &Node{data: data}
}

// Kind returns the node's layout tag.
func (n *Node) Kind() Kind { return Kind(n.data[0]) }

// IsLeaf reports whether this node uses the leaf entry layout.
func (n *Node) IsLeaf() bool { return n.Kind() == KindLeaf }

// NumEntries returns the number of entries currently stored.
func (n *Node) NumEntries() int {
	return int(binary.LittleEndian.Uint16(n.data[1:3]))
}

func (n *Node) setNumEntries(count int) {
	binary.LittleEndian.PutUint16(n.data[1:3], uint16(count))
}

func (n *Node) entrySize() int {
	return EntrySize(n.Kind())
}

// EntrySize returns the on-page byte size of one entry of the given
// kind, for capacity planning by callers composing a node (e.g. the
// split algorithm) before any bytes are written.
func EntrySize(kind Kind) int {
	if kind == KindLeaf {
		return leafEntrySize
	}
	return indexEntrySize
}

// HeaderSize returns the fixed node header size in bytes.
func HeaderSize() int { return headerSize }

func (n *Node) entryBase(i int) int {
	return headerSize + i*n.entrySize()
}

func (n *Node) checkSlot(i int) {
	if !DebugChecks {
		return
	}
	if i < 0 || i >= n.NumEntries() {
		panic(ErrOutOfRange)
	}
}

// Distance returns entry i's distance to the node's representative.
func (n *Node) Distance(i int) float64 {
	n.checkSlot(i)
	bits := binary.LittleEndian.Uint64(n.data[n.entryBase(i):])
	return math.Float64frombits(bits)
}

// SetDistance sets entry i's distance to the node's representative.
func (n *Node) SetDistance(i int, d float64) {
	n.checkSlot(i)
	binary.LittleEndian.PutUint64(n.data[n.entryBase(i):], math.Float64bits(d))
}

// offsetFieldStart returns the byte offset of the trailing 4-byte object
// offset field, which is positioned last in both entry layouts.
func (n *Node) offsetFieldStart(i int) int {
	return n.entryBase(i) + n.entrySize() - 4
}

func (n *Node) objectOffset(i int) int {
	n.checkSlot(i)
	return int(binary.LittleEndian.Uint32(n.data[n.offsetFieldStart(i):]))
}

func (n *Node) setObjectOffset(i int, off int) {
	n.checkSlot(i)
	binary.LittleEndian.PutUint32(n.data[n.offsetFieldStart(i):], uint32(off))
}

// Radius returns index entry i's child subtree covering radius. Only
// meaningful for index nodes.
func (n *Node) Radius(i int) float64 {
	n.checkSlot(i)
	bits := binary.LittleEndian.Uint64(n.data[n.entryBase(i)+8:])
	return math.Float64frombits(bits)
}

// SetRadius sets index entry i's child subtree covering radius.
func (n *Node) SetRadius(i int, r float64) {
	n.checkSlot(i)
	binary.LittleEndian.PutUint64(n.data[n.entryBase(i)+8:], math.Float64bits(r))
}

// SubtreeCount returns index entry i's total descendant object count.
func (n *Node) SubtreeCount(i int) uint32 {
	n.checkSlot(i)
	return binary.LittleEndian.Uint32(n.data[n.entryBase(i)+16:])
}

// SetSubtreeCount sets index entry i's total descendant object count.
func (n *Node) SetSubtreeCount(i int, c uint32) {
	n.checkSlot(i)
	binary.LittleEndian.PutUint32(n.data[n.entryBase(i)+16:], c)
}

// ChildPageID returns index entry i's child page id.
func (n *Node) ChildPageID(i int) uint32 {
	n.checkSlot(i)
	return binary.LittleEndian.Uint32(n.data[n.entryBase(i)+20:])
}

// SetChildPageID sets index entry i's child page id.
func (n *Node) SetChildPageID(i int, id uint32) {
	n.checkSlot(i)
	binary.LittleEndian.PutUint32(n.data[n.entryBase(i)+20:], id)
}

// lastObjectOffset returns the low-water mark of the object area: the
// offset of the most recently added object, or the page size if the node
// is empty.
func (n *Node) lastObjectOffset() int {
	count := n.NumEntries()
	if count == 0 {
		return len(n.data)
	}
	return n.objectOffset(count - 1)
}

// FreeSpace returns the number of bytes available between the end of the
// entry table and the start of the object area.
func (n *Node) FreeSpace() int {
	tableEnd := n.entryBase(n.NumEntries())
	return n.lastObjectOffset() - tableEnd
}

// AddEntry appends a new entry holding obj's bytes, returning the new
// slot index. It returns ok=false if there is insufficient free space;
// the caller must then split. The entry's distance/radius/subtree
// bookkeeping is left zeroed for the caller to fill in.
func (n *Node) AddEntry(obj []byte) (slot int, ok bool) {
	size := len(obj)
	count := n.NumEntries()
	newTableEnd := n.entryBase(count + 1)
	newOffset := n.lastObjectOffset() - size
	if newOffset < newTableEnd {
		return 0, false
	}

	copy(n.data[newOffset:newOffset+size], obj)
	n.setNumEntries(count + 1)
	n.setObjectOffset(count, newOffset)
	n.SetDistance(count, 0)
	if n.Kind() == KindIndex {
		n.SetRadius(count, 0)
		n.SetSubtreeCount(count, 0)
		n.SetChildPageID(count, 0)
	}
	return count, true
}

// ObjectSize returns the serialised byte length of entry i's object.
func (n *Node) ObjectSize(i int) int {
	n.checkSlot(i)
	if i == 0 {
		return len(n.data) - n.objectOffset(0)
	}
	return n.objectOffset(i-1) - n.objectOffset(i)
}

// GetObject returns a view of entry i's serialised object bytes.
func (n *Node) GetObject(i int) []byte {
	off := n.objectOffset(i)
	size := n.ObjectSize(i)
	return n.data[off : off+size]
}

// RemoveEntry deletes entry slot, compacting the object area and sliding
// subsequent entries down by one table position.
func (n *Node) RemoveEntry(slot int) {
	n.checkSlot(slot)
	last := n.NumEntries() - 1
	sizeR := n.ObjectSize(slot)
	offsetR := n.objectOffset(slot)
	offsetLast := n.objectOffset(last)

	if slot != last {
		regionLen := offsetR - offsetLast
		copy(n.data[offsetLast+sizeR:offsetLast+sizeR+regionLen], n.data[offsetLast:offsetLast+regionLen])

		for i := slot + 1; i <= last; i++ {
			d := n.Distance(i)
			off := n.objectOffset(i) + sizeR
			var r float64
			var sc, cid uint32
			if n.Kind() == KindIndex {
				r = n.Radius(i)
				sc = n.SubtreeCount(i)
				cid = n.ChildPageID(i)
			}
			n.writeEntry(i-1, d, off, r, sc, cid)
		}
	}

	n.setNumEntries(last)
}

func (n *Node) writeEntry(i int, distance float64, offset int, radius float64, subtreeCount, childID uint32) {
	n.SetDistance(i, distance)
	n.setObjectOffset(i, offset)
	if n.Kind() == KindIndex {
		n.SetRadius(i, radius)
		n.SetSubtreeCount(i, subtreeCount)
		n.SetChildPageID(i, childID)
	}
}

// RepresentativeSlot returns the slot with distance_to_rep == 0, or -1 if
// the node is empty. Every non-empty node has exactly one such slot.
func (n *Node) RepresentativeSlot() int {
	for i := 0; i < n.NumEntries(); i++ {
		if n.Distance(i) == 0 {
			return i
		}
	}
	return -1
}

// MinimumRadius returns the smallest radius that still covers every
// descendant: for leaves, the maximum distance_to_rep; for index nodes,
// the maximum of distance_to_rep + child radius.
func (n *Node) MinimumRadius() float64 {
	var max float64
	for i := 0; i < n.NumEntries(); i++ {
		v := n.Distance(i)
		if n.Kind() == KindIndex {
			v += n.Radius(i)
		}
		if v > max {
			max = v
		}
	}
	return max
}

// TotalObjectCount returns the number of objects reachable from this
// node: its own entry count for a leaf, or the sum of child subtree
// counts for an index node.
func (n *Node) TotalObjectCount() uint32 {
	if n.Kind() == KindLeaf {
		return uint32(n.NumEntries())
	}
	var total uint32
	for i := 0; i < n.NumEntries(); i++ {
		total += n.SubtreeCount(i)
	}
	return total
}

// RemoveAll resets the node to empty, preserving its kind.
func (n *Node) RemoveAll() {
	n.setNumEntries(0)
}
