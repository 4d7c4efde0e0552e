// pkg/page/page.go
// Package page defines the fixed-size buffer that is the atomic unit of
// I/O for the metric access method: a contiguous, page-sized byte region
// tagged with a page identifier.
package page

// ID identifies a page within a PageManager's address space. ID 0 is
// reserved and never refers to a stored node; ID 1 is reserved for the
// tree's header page. All other IDs address exactly one node.
type ID uint32

// Reserved page identifiers.
const (
	InvalidID ID = 0
	HeaderID  ID = 1
)

// Page is a page-sized buffer borrowed from a PageManager for the
// duration of one operation. It does not own the backing memory: for a
// disk-backed manager the buffer is a slice of the process's mmap of the
// database file, for a memory manager it is a slice of an in-memory
// backing store. Either way a Page view must not outlive the Release
// call that returns it.
type Page struct {
	id   ID
	data []byte
}

// New wraps data (exactly size bytes, already positioned by the caller)
// as a page view with the given id.
func New(id ID, data []byte) *Page {
	return &Page{id: id, data: data}
}

// Clear zeroes the entire page.
func (p *Page) Clear() {
	for i := range p.data {
		p.data[i] = 0
	}
}

// Read copies size bytes starting at offset into dst.
func (p *Page) Read(dst []byte, size, offset int) {
	copy(dst[:size], p.data[offset:offset+size])
}

// Write copies size bytes from src into the page starting at offset.
func (p *Page) Write(src []byte, size, offset int) {
	copy(p.data[offset:offset+size], src[:size])
}

// GetData returns the page's raw buffer. Callers that mutate it must not
// retain the slice past the page's release.
func (p *Page) GetData() []byte { return p.data }

// GetPageSize returns the size of the page in bytes.
func (p *Page) GetPageSize() int { return len(p.data) }

// GetID returns the page's identifier.
func (p *Page) GetID() ID { return p.id }

// SetID rebinds the page view to a different identifier. Used by a
// PageManager when recycling a buffer from its instance cache.
func (p *Page) SetID(id ID) { p.id = id }

// SetData rebinds the page view to a new backing slice at the same
// identifier. Used by a PageManager to re-slice a retained view after
// its backing store has grown and moved (a realloc or an munmap/mmap).
func (p *Page) SetData(data []byte) { p.data = data }
