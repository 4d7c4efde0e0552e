// pkg/slimtree/header.go
package slimtree

import "encoding/binary"

// headerMagic tags a persisted tree header page: magic "SL-x" (4
// bytes), root_page_id u32, height u32, object_count u32, node_count
// u32. The u32 fields are always encoded little-endian, whatever the
// host byte order. New treats a header page that does not start with
// this magic as an empty tree.
var headerMagic = [4]byte{'S', 'L', '-', 'x'}

const headerLayoutSize = 4 + 4 + 4 + 4 + 4

// treeHeader is the persisted bookkeeping for one Slim-tree instance,
// stored in the page manager's reserved header page.
type treeHeader struct {
	rootPageID  uint32
	height      uint32
	objectCount uint32
	nodeCount   uint32
}

func (h *treeHeader) encode(buf []byte) {
	copy(buf[0:4], headerMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.rootPageID)
	binary.LittleEndian.PutUint32(buf[8:12], h.height)
	binary.LittleEndian.PutUint32(buf[12:16], h.objectCount)
	binary.LittleEndian.PutUint32(buf[16:20], h.nodeCount)
}

func decodeTreeHeader(buf []byte) (*treeHeader, bool) {
	if len(buf) < headerLayoutSize {
		return nil, false
	}
	for i, b := range headerMagic {
		if buf[i] != b {
			return nil, false
		}
	}
	return &treeHeader{
		rootPageID:  binary.LittleEndian.Uint32(buf[4:8]),
		height:      binary.LittleEndian.Uint32(buf[8:12]),
		objectCount: binary.LittleEndian.Uint32(buf[12:16]),
		nodeCount:   binary.LittleEndian.Uint32(buf[16:20]),
	}, true
}
