//go:build windows

// pkg/pager/mmap_windows.go
package pager

import (
	"errors"
	"os"
	"reflect"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mmapHandle stores Windows-specific state for a memory-mapped file.
type mmapHandle struct {
	file      *os.File
	mapHandle windows.Handle
}

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

	h, data, err := mapView(f, size)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &mmapFile{
		handle: mmapHandle{file: f, mapHandle: h},
		data:   data,
		size:   size,
	}, nil
}

func mapView(f *os.File, size int64) (windows.Handle, []byte, error) {
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil,
		windows.PAGE_READWRITE, uint32(size>>32), uint32(size), nil)
	if err != nil {
		return 0, nil, err
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(h)
		return 0, nil, err
	}

	var data []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&data))
	sh.Data = addr
	sh.Len = int(size)
	sh.Cap = int(size)

	return h, data, nil
}

func (m *mmapFile) Grow(newSize int64) error {
	if newSize <= m.size {
		return nil
	}

	if err := m.Sync(); err != nil {
		return err
	}

	if err := m.unmap(); err != nil {
		return err
	}

	if err := m.handle.file.Truncate(newSize); err != nil {
		return err
	}

	h, data, err := mapView(m.handle.file, newSize)
	if err != nil {
		return err
	}

	m.handle.mapHandle = h
	m.data = data
	m.size = newSize
	return nil
}

func (m *mmapFile) unmap() error {
	if m.data == nil {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&m.data[0]))
	if err := windows.UnmapViewOfFile(addr); err != nil {
		return err
	}
	windows.CloseHandle(m.handle.mapHandle)
	m.data = nil
	return nil
}

func (m *mmapFile) Sync() error {
	if m.data == nil {
		return nil
	}
	return windows.FlushViewOfFile(uintptr(unsafe.Pointer(&m.data[0])), uintptr(len(m.data)))
}

func (m *mmapFile) Close() error {
	if err := m.unmap(); err != nil {
		return err
	}
	return m.handle.file.Close()
}
