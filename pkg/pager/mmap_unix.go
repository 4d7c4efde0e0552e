//go:build unix || darwin || linux || freebsd || openbsd || netbsd

// pkg/pager/mmap_unix.go
package pager

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// mmapHandle stores Unix-specific state for a memory-mapped file.
type mmapHandle struct {
	file *os.File
}

// openMmapFile opens or creates a memory-mapped file, extending it to
// initialSize bytes if it is smaller.
func openMmapFile(path string, initialSize int64) (*mmapFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := stat.Size()
	if initialSize > size {
		if err := f.Truncate(initialSize); err != nil {
			f.Close()
			return nil, err
		}
		size = initialSize
	}

	if size == 0 {
		f.Close()
		return nil, errors.New("pager: cannot mmap an empty file")
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &mmapFile{
		handle: mmapHandle{file: f},
		data:   data,
		size:   size,
	}, nil
}

// Grow extends the file and remaps it at newSize bytes.
func (m *mmapFile) Grow(newSize int64) error {
	if newSize <= m.size {
		return nil
	}

	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return err
	}

	if err := unix.Munmap(m.data); err != nil {
		return err
	}

	if err := m.handle.file.Truncate(newSize); err != nil {
		return err
	}

	data, err := syscall.Mmap(int(m.handle.file.Fd()), 0, int(newSize),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return err
	}

	m.data = data
	m.size = newSize
	return nil
}

// Sync flushes the mapped pages to disk.
func (m *mmapFile) Sync() error {
	if m.data == nil {
		return nil
	}
	return unix.Msync(m.data, unix.MS_SYNC)
}

// Close unmaps the file and closes the underlying descriptor.
func (m *mmapFile) Close() error {
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return err
		}
		m.data = nil
	}
	return m.handle.file.Close()
}
