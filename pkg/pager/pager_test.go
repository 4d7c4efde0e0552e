// pkg/pager/pager_test.go
package pager

import (
	"path/filepath"
	"testing"

	"slimtree/pkg/page"
)

func TestMemoryPageManagerAllocateAndGet(t *testing.T) {
	pm := NewMemoryPageManager(Options{PageSize: 1024})

	if !pm.IsEmpty() {
		t.Fatal("fresh manager should be empty")
	}

	p, err := pm.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	id := p.GetID()
	p.Write([]byte("hello"), 5, 0)
	pm.ReleasePage(p)

	got, err := pm.GetPage(id)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	buf := make([]byte, 5)
	got.Read(buf, 5, 0)
	if string(buf) != "hello" {
		t.Fatalf("got %q, want %q", buf, "hello")
	}
	pm.ReleasePage(got)
}

func TestMemoryPageManagerDiskCountersCoincide(t *testing.T) {
	pm := NewMemoryPageManager(Options{PageSize: 256})

	p, _ := pm.NewPage()
	id := p.GetID()
	pm.ReleasePage(p)
	pm.ResetStatistics()

	for i := 0; i < 3; i++ {
		got, err := pm.GetPage(id)
		if err != nil {
			t.Fatalf("GetPage: %v", err)
		}
		pm.ReleasePage(got)
	}

	if pm.Reads() != pm.DiskReads() {
		t.Fatalf("memory variant: reads=%d disk_reads=%d, want equal", pm.Reads(), pm.DiskReads())
	}
}

func TestMemoryPageManagerInvalidID(t *testing.T) {
	pm := NewMemoryPageManager(Options{PageSize: 256})
	if _, err := pm.GetPage(page.ID(999)); err != ErrInvalidPageID {
		t.Fatalf("got %v, want ErrInvalidPageID", err)
	}
}

func TestMemoryPageManagerFreelistReuse(t *testing.T) {
	pm := NewMemoryPageManager(Options{PageSize: 256})

	p1, _ := pm.NewPage()
	id1 := p1.GetID()
	pm.ReleasePage(p1)
	if err := pm.DisposePage(p1); err != nil {
		t.Fatalf("DisposePage: %v", err)
	}

	p2, err := pm.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if p2.GetID() != id1 {
		t.Fatalf("expected freelist reuse of id %v, got %v", id1, p2.GetID())
	}
	pm.ReleasePage(p2)
}

func TestDiskPageManagerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	pm, err := NewDiskPageManager(path, Options{PageSize: 4096})
	if err != nil {
		t.Fatalf("NewDiskPageManager: %v", err)
	}

	p, err := pm.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	id := p.GetID()
	p.Write([]byte("persisted"), 9, 0)
	pm.ReleasePage(p)
	if err := pm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	pm2, err := NewDiskPageManager(path, Options{PageSize: 4096})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer pm2.Close()

	got, err := pm2.GetPage(id)
	if err != nil {
		t.Fatalf("GetPage after reopen: %v", err)
	}
	buf := make([]byte, 9)
	got.Read(buf, 9, 0)
	if string(buf) != "persisted" {
		t.Fatalf("got %q after reopen", buf)
	}
	pm2.ReleasePage(got)
}

func TestDiskPageManagerCacheBound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	pm, err := NewDiskPageManager(path, Options{PageSize: 256, CacheInstances: 2})
	if err != nil {
		t.Fatalf("NewDiskPageManager: %v", err)
	}
	defer pm.Close()

	var ids []page.ID
	for i := 0; i < 5; i++ {
		p, err := pm.NewPage()
		if err != nil {
			t.Fatalf("NewPage: %v", err)
		}
		ids = append(ids, p.GetID())
		pm.ReleasePage(p)
	}

	if pm.lru.Len() > 2 {
		t.Fatalf("cache grew beyond bound: %d entries", pm.lru.Len())
	}

	pm.ResetStatistics()
	if _, err := pm.GetPage(ids[0]); err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if pm.DiskReads() == 0 {
		t.Fatal("expected evicted page to count as a disk read on refetch")
	}
}

func TestHeaderPagePersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	pm, err := NewDiskPageManager(path, Options{PageSize: 512})
	if err != nil {
		t.Fatalf("NewDiskPageManager: %v", err)
	}
	hp, err := pm.HeaderPage()
	if err != nil {
		t.Fatalf("HeaderPage: %v", err)
	}
	hp.Write([]byte("SL-x"), 4, 0)
	if err := pm.WriteHeaderPage(hp); err != nil {
		t.Fatalf("WriteHeaderPage: %v", err)
	}
	if err := pm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	pm2, err := NewDiskPageManager(path, Options{PageSize: 512})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer pm2.Close()

	hp2, err := pm2.HeaderPage()
	if err != nil {
		t.Fatalf("HeaderPage after reopen: %v", err)
	}
	buf := make([]byte, 4)
	hp2.Read(buf, 4, 0)
	if string(buf) != "SL-x" {
		t.Fatalf("got %q, want SL-x", buf)
	}
}
