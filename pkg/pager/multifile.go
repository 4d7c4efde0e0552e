// pkg/pager/multifile.go
package pager

import (
	"fmt"

	"slimtree/pkg/page"
)

// MultiFilePageManager shards the logical page space across several
// single-file PageManagers of fixed capacity. A logical id L maps to
// (shard, local id) by:
//
//	shard    = ceil(L / pagesPerShard) - 1
//	local_id = ((L - 1) mod pagesPerShard) + 1
//
// Because logical id 1 (the reserved header id) always maps to shard 0's
// local id 1 under this formula, the header naturally lives only in
// shard 0 with no special-casing elsewhere.
type MultiFilePageManager struct {
	pagesPerShard uint32
	pageSize      int
	shards        []*PageManager
	dirFn         func(shard int) string
}

// NewMultiFilePageManager creates (or opens) a sharded disk page manager.
// pathForShard must return a distinct file path for each shard index in
// [0, shardCount).
func NewMultiFilePageManager(shardCount int, pagesPerShard uint32, opts Options, pathForShard func(shard int) string) (*MultiFilePageManager, error) {
	if shardCount <= 0 {
		return nil, fmt.Errorf("pager: shardCount must be positive, got %d", shardCount)
	}
	if pagesPerShard == 0 {
		return nil, fmt.Errorf("pager: pagesPerShard must be positive")
	}

	m := &MultiFilePageManager{
		pagesPerShard: pagesPerShard,
		dirFn:         pathForShard,
	}

	for i := 0; i < shardCount; i++ {
		pm, err := NewDiskPageManager(pathForShard(i), opts)
		if err != nil {
			for _, s := range m.shards {
				s.Close()
			}
			return nil, err
		}
		m.shards = append(m.shards, pm)
	}
	m.pageSize = m.shards[0].PageSize()

	return m, nil
}

func (m *MultiFilePageManager) locate(l uint32) (shard int, local uint32) {
	shard = int((l+m.pagesPerShard-1)/m.pagesPerShard) - 1
	local = ((l - 1) % m.pagesPerShard) + 1
	return
}

func (m *MultiFilePageManager) logicalID(shard int, local uint32) uint32 {
	return uint32(shard)*m.pagesPerShard + local
}

// PageSize returns the configured page size in bytes.
func (m *MultiFilePageManager) PageSize() int { return m.pageSize }

// IsEmpty reports whether shard 0 (which alone carries the header) has
// allocated no user nodes.
func (m *MultiFilePageManager) IsEmpty() bool { return m.shards[0].IsEmpty() }

// HeaderPage returns the tree header page, which always lives in shard 0.
func (m *MultiFilePageManager) HeaderPage() (*page.Page, error) {
	return m.shards[0].HeaderPage()
}

// GetPage resolves a logical id to its shard and delegates.
func (m *MultiFilePageManager) GetPage(l page.ID) (*page.Page, error) {
	shard, local := m.locate(uint32(l))
	if shard < 0 || shard >= len(m.shards) {
		return nil, ErrInvalidPageID
	}
	p, err := m.shards[shard].GetPage(page.ID(local))
	if err != nil {
		return nil, err
	}
	return rebind(p, l), nil
}

// NewPage allocates from the first shard with remaining logical capacity.
func (m *MultiFilePageManager) NewPage() (*page.Page, error) {
	for shard, pm := range m.shards {
		if pm.fl.freeCount() == 0 && pm.nextID > m.pagesPerShard {
			continue // shard exhausted, no free ids to reuse either
		}
		p, err := pm.NewPage()
		if err != nil {
			return nil, err
		}
		local := uint32(p.GetID())
		return rebind(p, page.ID(m.logicalID(shard, local))), nil
	}
	return nil, fmt.Errorf("pager: all shards are at capacity")
}

// rebind returns a page view carrying the logical id instead of the
// shard-local one the underlying PageManager assigned.
func rebind(p *page.Page, logical page.ID) *page.Page {
	return page.New(logical, p.GetData())
}

// ReleasePage returns the view to its shard's instance cache.
func (m *MultiFilePageManager) ReleasePage(p *page.Page) {
	shard, local := m.locate(uint32(p.GetID()))
	if shard < 0 || shard >= len(m.shards) {
		return
	}
	m.shards[shard].ReleasePage(page.New(page.ID(local), p.GetData()))
}

// WritePage persists the view at its shard.
func (m *MultiFilePageManager) WritePage(p *page.Page) error {
	shard, local := m.locate(uint32(p.GetID()))
	if shard < 0 || shard >= len(m.shards) {
		return ErrInvalidPageID
	}
	return m.shards[shard].WritePage(page.New(page.ID(local), p.GetData()))
}

// WriteHeaderPage persists the header page (always shard 0).
func (m *MultiFilePageManager) WriteHeaderPage(p *page.Page) error {
	return m.shards[0].WriteHeaderPage(p)
}

// DisposePage returns a page to its shard's free list.
func (m *MultiFilePageManager) DisposePage(p *page.Page) error {
	shard, local := m.locate(uint32(p.GetID()))
	if shard < 0 || shard >= len(m.shards) {
		return ErrInvalidPageID
	}
	return m.shards[shard].DisposePage(page.New(page.ID(local), p.GetData()))
}

// Sync flushes every shard.
func (m *MultiFilePageManager) Sync() error {
	for _, pm := range m.shards {
		if err := pm.Sync(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every shard.
func (m *MultiFilePageManager) Close() error {
	var first error
	for _, pm := range m.shards {
		if err := pm.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Reads sums the logical read counter across all shards.
func (m *MultiFilePageManager) Reads() uint64 { return m.sum((*PageManager).Reads) }

// Writes sums the logical write counter across all shards.
func (m *MultiFilePageManager) Writes() uint64 { return m.sum((*PageManager).Writes) }

// DiskReads sums the disk-read counter across all shards.
func (m *MultiFilePageManager) DiskReads() uint64 { return m.sum((*PageManager).DiskReads) }

// DiskWrites sums the disk-write counter across all shards.
func (m *MultiFilePageManager) DiskWrites() uint64 { return m.sum((*PageManager).DiskWrites) }

func (m *MultiFilePageManager) sum(f func(*PageManager) uint64) uint64 {
	var total uint64
	for _, pm := range m.shards {
		total += f(pm)
	}
	return total
}

// ResetStatistics zeroes every shard's counters.
func (m *MultiFilePageManager) ResetStatistics() {
	for _, pm := range m.shards {
		pm.ResetStatistics()
	}
}
