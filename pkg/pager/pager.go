// pkg/pager/pager.go
package pager

import (
	"container/list"
	"encoding/binary"
	"errors"

	"slimtree/pkg/page"
)

const (
	magic           = "SLPG"
	fileHeaderSize  = 24 // magic(4) + pageSize(4) + userHeaderSize(4) + nextPageID(4) + freeListHead(4) + freeCount(4)
	defaultPageSize = 8192
	// defaultDiskCacheInstances is the default bound on the disk
	// variant's page-instance cache.
	defaultDiskCacheInstances = 16
)

var (
	// ErrInvalidPageID is returned by GetPage for an id that has never
	// been allocated, or that has been disposed and not yet reused.
	ErrInvalidPageID = errors.New("pager: invalid page id")
	// ErrInvalidHeader is returned when an existing disk file's fixed
	// header does not carry the expected magic.
	ErrInvalidHeader = errors.New("pager: invalid file header")
)

// Options configures a PageManager.
type Options struct {
	// PageSize in bytes. Defaults to 8192.
	PageSize int
	// CacheInstances bounds the disk variant's page-instance cache.
	// Defaults to 16. Ignored by the Memory variant, which never
	// benefits from instance reuse: its disk counters coincide with its
	// logical counters.
	CacheInstances int
}

type cacheEntry struct {
	p    *page.Page
	elem *list.Element
}

// PageManager is the lifecycle manager for pages on a backing store: it
// allocates, reads, writes, releases, and disposes pages, reusing the
// free list before growing the store, and tracks logical/disk
// read-and-write counters.
type PageManager struct {
	storage  Storage
	pageSize int
	disk     bool // true selects on-disk file-header bookkeeping

	nextID uint32 // next fresh id to hand out once the free list is empty
	fl     *freelist

	cache    map[page.ID]*cacheEntry
	lru      *list.List
	cacheCap int

	headerPage *page.Page

	reads, writes, diskReads, diskWrites uint64
}

// NewMemoryPageManager creates a PageManager whose backing store is an
// in-memory buffer. Disk counters coincide with logical counters for
// this variant, since there is no instance cache to miss against.
func NewMemoryPageManager(opts Options) *PageManager {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	st := NewMemoryStorage(0)
	pm := &PageManager{
		storage:  st,
		pageSize: pageSize,
		nextID:   uint32(page.HeaderID) + 1,
		fl:       newFreelist(),
		cache:    make(map[page.ID]*cacheEntry),
		lru:      list.New(),
		cacheCap: 0,
	}
	pm.growFor(uint32(page.HeaderID))
	return pm
}

// NewDiskPageManager opens or creates a single-file disk page manager at
// path. The page-instance cache is bounded to opts.CacheInstances (or the
// default of 16).
func NewDiskPageManager(path string, opts Options) (*PageManager, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	cacheCap := opts.CacheInstances
	if cacheCap <= 0 {
		cacheCap = defaultDiskCacheInstances
	}

	initial := int64(fileHeaderSize + pageSize) // fixed header + header-page region
	st, err := openDiskStorage(path, initial)
	if err != nil {
		return nil, err
	}

	pm := &PageManager{
		storage:  st,
		pageSize: pageSize,
		disk:     true,
		fl:       newFreelist(),
		cache:    make(map[page.ID]*cacheEntry),
		lru:      list.New(),
		cacheCap: cacheCap,
	}

	hdr := st.Slice(0, fileHeaderSize)
	if string(hdr[0:4]) == magic {
		pm.pageSize = int(binary.LittleEndian.Uint32(hdr[4:8]))
		pm.nextID = binary.LittleEndian.Uint32(hdr[12:16])
		pm.loadFreelist(binary.LittleEndian.Uint32(hdr[16:20]), binary.LittleEndian.Uint32(hdr[20:24]))
	} else if string(hdr[0:4]) != "\x00\x00\x00\x00" {
		st.Close()
		return nil, ErrInvalidHeader
	} else {
		pm.nextID = uint32(page.HeaderID) + 1
		pm.writeFileHeader()
	}

	return pm, nil
}

func (pm *PageManager) writeFileHeader() {
	hdr := pm.storage.Slice(0, fileHeaderSize)
	copy(hdr[0:4], magic)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(pm.pageSize))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(pm.pageSize)) // userHeaderSize == pageSize
	binary.LittleEndian.PutUint32(hdr[12:16], pm.nextID)
	binary.LittleEndian.PutUint32(hdr[16:20], pm.fl.headPage())
	binary.LittleEndian.PutUint32(hdr[20:24], pm.fl.freeCount())
}

// PageSize returns the configured page size in bytes.
func (pm *PageManager) PageSize() int { return pm.pageSize }

// IsEmpty reports whether no user nodes have been allocated yet (only
// the header page, if any, exists).
func (pm *PageManager) IsEmpty() bool {
	return pm.nextID == uint32(page.HeaderID)+1 && pm.fl.freeCount() == 0
}

// offsetFor returns the byte offset and size of the region backing id.
func (pm *PageManager) offsetFor(id page.ID) (int, int) {
	if id == page.HeaderID {
		return fileHeaderOffset(pm.disk), pm.pageSize
	}
	slot := int(id) - int(page.HeaderID) - 1
	base := fileHeaderOffset(pm.disk) + pm.pageSize
	return base + slot*pm.pageSize, pm.pageSize
}

func fileHeaderOffset(disk bool) int {
	if disk {
		return fileHeaderSize
	}
	return 0
}

func (pm *PageManager) growFor(id uint32) {
	off, size := pm.offsetFor(page.ID(id))
	need := int64(off + size)
	if need > pm.storage.Size() {
		grown := pm.storage.Size() + pm.storage.Size()/10
		if grown < need {
			grown = need
		}
		pm.storage.Grow(grown)
		pm.refreshViews()
	}
}

// refreshViews re-slices the header page view and every view still held
// in the instance cache against the current backing store. A Grow can
// move the backing memory (a realloc for MemoryStorage, an munmap/mmap
// round-trip for mmap-backed disk storage), which would otherwise leave
// those views pointing at abandoned memory. Views outside the cache (all
// views of the Memory variant, which caches none, and disk views already
// evicted) are not re-sliced, nor is any slice a caller obtained from
// GetData before the Grow.
func (pm *PageManager) refreshViews() {
	if pm.headerPage != nil {
		off, size := pm.offsetFor(page.HeaderID)
		pm.headerPage.SetData(pm.storage.Slice(off, size))
	}
	for id, entry := range pm.cache {
		off, size := pm.offsetFor(id)
		entry.p.SetData(pm.storage.Slice(off, size))
	}
}

// HeaderPage returns the single reserved header page, creating
// (zero-filling) it lazily on first call.
func (pm *PageManager) HeaderPage() (*page.Page, error) {
	if pm.headerPage != nil {
		return pm.headerPage, nil
	}
	pm.growFor(uint32(page.HeaderID))
	off, size := pm.offsetFor(page.HeaderID)
	data := pm.storage.Slice(off, size)
	if data == nil {
		return nil, ErrInvalidPageID
	}
	pm.headerPage = page.New(page.HeaderID, data)
	return pm.headerPage, nil
}

// GetPage returns a view for an allocated id. It fails with
// ErrInvalidPageID if id has never been allocated, or has been disposed
// and not yet reused.
func (pm *PageManager) GetPage(id page.ID) (*page.Page, error) {
	pm.reads++

	if id == page.HeaderID {
		return pm.HeaderPage()
	}
	if id == page.InvalidID || uint32(id) >= pm.nextID {
		return nil, ErrInvalidPageID
	}
	trunkID := pm.fl.head
	for _, trunk := range pm.fl.trunks {
		if uint32(id) == trunkID {
			return nil, ErrInvalidPageID
		}
		for _, leaf := range trunk.leaves {
			if leaf == uint32(id) {
				return nil, ErrInvalidPageID
			}
		}
		trunkID = trunk.nextTrunk
	}

	if entry, ok := pm.cache[id]; ok {
		pm.lru.MoveToFront(entry.elem)
		return entry.p, nil
	}

	pm.diskReads++
	off, size := pm.offsetFor(id)
	data := pm.storage.Slice(off, size)
	if data == nil {
		return nil, ErrInvalidPageID
	}
	p := page.New(id, data)
	pm.cacheInsert(id, p)
	return p, nil
}

// NewPage allocates a page: it reuses the free list first, otherwise
// grows the backing store and appends a fresh id.
func (pm *PageManager) NewPage() (*page.Page, error) {
	var id uint32
	if pm.fl.freeCount() > 0 {
		reused, ok := pm.allocateFromFreelist()
		if ok {
			id = reused
			off, size := pm.offsetFor(page.ID(id))
			data := pm.storage.Slice(off, size)
			p := page.New(page.ID(id), data)
			for i := range data {
				data[i] = 0
			}
			pm.cacheInsert(page.ID(id), p)
			pm.reads++
			pm.diskReads++
			return p, nil
		}
	}

	id = pm.nextID
	pm.nextID++
	pm.growFor(id)
	if pm.disk {
		pm.writeFileHeader()
	}

	off, size := pm.offsetFor(page.ID(id))
	data := pm.storage.Slice(off, size)
	if data == nil {
		return nil, ErrInvalidPageID
	}
	for i := range data {
		data[i] = 0
	}
	p := page.New(page.ID(id), data)
	pm.cacheInsert(page.ID(id), p)
	pm.reads++
	pm.diskReads++
	return p, nil
}

func (pm *PageManager) cacheInsert(id page.ID, p *page.Page) {
	elem := pm.lru.PushFront(id)
	pm.cache[id] = &cacheEntry{p: p, elem: elem}
	pm.evictIfNeeded()
}

func (pm *PageManager) evictIfNeeded() {
	for pm.lru.Len() > pm.cacheCap {
		back := pm.lru.Back()
		if back == nil {
			return
		}
		id := back.Value.(page.ID)
		pm.lru.Remove(back)
		delete(pm.cache, id)
	}
}

// ReleasePage returns the view to the instance cache. Required for every
// successful GetPage / NewPage / HeaderPage call.
func (pm *PageManager) ReleasePage(p *page.Page) {
	if pm.cacheCap == 0 {
		// Memory variant: no instance reuse, so every access is a
		// "miss" and disk counters coincide with logical counters.
		delete(pm.cache, p.GetID())
	}
}

// WritePage persists the view's current content at its id.
func (pm *PageManager) WritePage(p *page.Page) error {
	pm.writes++
	pm.diskWrites++
	// Content already lives in the backing store's memory (mmap or
	// in-memory buffer); writing through is implicit. Sync() is the
	// durability boundary.
	return nil
}

// WriteHeaderPage persists the header page.
func (pm *PageManager) WriteHeaderPage(p *page.Page) error {
	pm.writes++
	pm.diskWrites++
	if pm.disk {
		pm.writeFileHeader()
	}
	return nil
}

// DisposePage marks id free and releases the view.
func (pm *PageManager) DisposePage(p *page.Page) error {
	id := p.GetID()
	if id == page.HeaderID {
		return errors.New("pager: cannot dispose the header page")
	}

	if entry, ok := pm.cache[id]; ok {
		pm.lru.Remove(entry.elem)
		delete(pm.cache, id)
	}

	pm.addToFreelist(uint32(id))
	if pm.disk {
		pm.writeFileHeader()
	}
	return nil
}

// Sync flushes all changes to the backing store.
func (pm *PageManager) Sync() error {
	if pm.disk {
		pm.writeFileHeader()
	}
	return pm.storage.Sync()
}

// Close flushes and releases the backing store.
func (pm *PageManager) Close() error {
	if err := pm.Sync(); err != nil {
		pm.storage.Close()
		return err
	}
	return pm.storage.Close()
}

// Reads returns the logical (cache hit + miss) page-read count.
func (pm *PageManager) Reads() uint64 { return pm.reads }

// Writes returns the logical page-write count.
func (pm *PageManager) Writes() uint64 { return pm.writes }

// DiskReads returns the count of reads that required constructing a
// fresh page view (a page-instance cache miss).
func (pm *PageManager) DiskReads() uint64 { return pm.diskReads }

// DiskWrites returns the count of writes persisted to the backing store.
func (pm *PageManager) DiskWrites() uint64 { return pm.diskWrites }

// ResetStatistics zeroes all four counters.
func (pm *PageManager) ResetStatistics() {
	pm.reads, pm.writes, pm.diskReads, pm.diskWrites = 0, 0, 0, 0
}

// allocateFromFreelist pops a free page id, preferring leaf entries
// (LIFO) before consuming trunk pages themselves.
func (pm *PageManager) allocateFromFreelist() (uint32, bool) {
	if len(pm.fl.trunks) == 0 {
		return 0, false
	}

	trunk := pm.fl.trunks[0]
	head := pm.fl.head

	if leaf, ok := trunk.popLeaf(); ok {
		pm.fl.count--
		off, _ := pm.offsetFor(page.ID(head))
		data := pm.storage.Slice(off, pm.pageSize)
		trunk.encode(data)
		return leaf, true
	}

	next := trunk.nextTrunk
	pm.fl.count--
	if next != 0 && len(pm.fl.trunks) > 1 {
		pm.fl.trunks = pm.fl.trunks[1:]
		pm.fl.head = next
	} else if next != 0 {
		off, _ := pm.offsetFor(page.ID(next))
		data := pm.storage.Slice(off, pm.pageSize)
		pm.fl.trunks = []*freelistTrunkPage{decodeFreelistTrunkPage(data)}
		pm.fl.head = next
	} else {
		pm.fl.trunks = nil
		pm.fl.head = 0
	}
	return head, true
}

func (pm *PageManager) addToFreelist(id uint32) {
	head := pm.fl.headPage()

	if head == 0 {
		trunk := &freelistTrunkPage{}
		off, _ := pm.offsetFor(page.ID(id))
		data := pm.storage.Slice(off, pm.pageSize)
		trunk.encode(data)
		pm.fl.trunks = []*freelistTrunkPage{trunk}
		pm.fl.head = id
		pm.fl.count = 1
		return
	}

	trunk := pm.fl.trunks[0]
	if !trunk.isFull(pm.pageSize) {
		trunk.addLeaf(id)
		pm.fl.count++
		off, _ := pm.offsetFor(page.ID(head))
		data := pm.storage.Slice(off, pm.pageSize)
		trunk.encode(data)
		return
	}

	newTrunk := &freelistTrunkPage{nextTrunk: head}
	off, _ := pm.offsetFor(page.ID(id))
	data := pm.storage.Slice(off, pm.pageSize)
	newTrunk.encode(data)
	pm.fl.trunks = append([]*freelistTrunkPage{newTrunk}, pm.fl.trunks...)
	pm.fl.head = id
	pm.fl.count++
}

func (pm *PageManager) loadFreelist(head, count uint32) {
	if head == 0 || count == 0 {
		return
	}
	pm.fl.head = head
	pm.fl.count = count
	pm.fl.trunks = nil

	cur := head
	for cur != 0 {
		off, _ := pm.offsetFor(page.ID(cur))
		data := pm.storage.Slice(off, pm.pageSize)
		if data == nil {
			break
		}
		trunk := decodeFreelistTrunkPage(data)
		pm.fl.trunks = append(pm.fl.trunks, trunk)
		cur = trunk.nextTrunk
	}
}
