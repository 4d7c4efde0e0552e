// pkg/pager/manager.go
package pager

import "slimtree/pkg/page"

// Manager is the contract implemented by every PageManager variant
// (Memory, Disk, MultiFile): allocate, read, write, release, and dispose
// pages on a backing store, tracking read/write counters.
type Manager interface {
	PageSize() int
	IsEmpty() bool
	HeaderPage() (*page.Page, error)
	GetPage(id page.ID) (*page.Page, error)
	NewPage() (*page.Page, error)
	ReleasePage(p *page.Page)
	WritePage(p *page.Page) error
	WriteHeaderPage(p *page.Page) error
	DisposePage(p *page.Page) error
	Sync() error
	Close() error

	Reads() uint64
	Writes() uint64
	DiskReads() uint64
	DiskWrites() uint64
	ResetStatistics()
}

var (
	_ Manager = (*PageManager)(nil)
	_ Manager = (*MultiFilePageManager)(nil)
)
