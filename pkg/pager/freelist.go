// pkg/pager/freelist.go
package pager

import "encoding/binary"

// freelistTrunkPage is a trunk page in the disk page manager's free list:
// a linked list of trunk pages, each holding pointers to leaf pages (free
// pages available for reuse). The simplest free-list scheme links
// disposed pages in place, storing the next free id in a page's first 4
// bytes; this trunk/leaf layout generalizes that so a single disposed
// page can record many free ids at once, following an SQLite-style
// freelist structure.
//
// Trunk page format:
//
//	offset 0: 4-byte page id of next trunk (0 if last trunk)
//	offset 4: 4-byte count of leaf ids in this trunk
//	offset 8: array of 4-byte leaf page ids
type freelistTrunkPage struct {
	nextTrunk uint32
	leaves    []uint32
}

func maxLeavesPerTrunk(pageSize int) int {
	return (pageSize - 8) / 4
}

func (t *freelistTrunkPage) encode(data []byte) {
	binary.BigEndian.PutUint32(data[0:4], t.nextTrunk)
	binary.BigEndian.PutUint32(data[4:8], uint32(len(t.leaves)))
	for i, leaf := range t.leaves {
		off := 8 + i*4
		binary.BigEndian.PutUint32(data[off:off+4], leaf)
	}
}

func decodeFreelistTrunkPage(data []byte) *freelistTrunkPage {
	next := binary.BigEndian.Uint32(data[0:4])
	count := binary.BigEndian.Uint32(data[4:8])
	leaves := make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		off := 8 + i*4
		leaves[i] = binary.BigEndian.Uint32(data[off : off+4])
	}
	return &freelistTrunkPage{nextTrunk: next, leaves: leaves}
}

func (t *freelistTrunkPage) isFull(pageSize int) bool {
	return len(t.leaves) >= maxLeavesPerTrunk(pageSize)
}

func (t *freelistTrunkPage) addLeaf(id uint32) {
	t.leaves = append(t.leaves, id)
}

func (t *freelistTrunkPage) popLeaf() (uint32, bool) {
	if len(t.leaves) == 0 {
		return 0, false
	}
	last := t.leaves[len(t.leaves)-1]
	t.leaves = t.leaves[:len(t.leaves)-1]
	return last, true
}

// freelist tracks disposed pages available for reuse by new_page. Trunk
// pages are themselves borrowed from the disposed-page pool: the most
// recently disposed page becomes a trunk (or is appended as a leaf of the
// current trunk), so the free list costs no extra pages of its own.
type freelist struct {
	head   uint32 // page id of the head trunk, 0 if empty
	count  uint32
	trunks []*freelistTrunkPage
}

func newFreelist() *freelist {
	return &freelist{}
}

func (f *freelist) headPage() uint32  { return f.head }
func (f *freelist) freeCount() uint32 { return f.count }
