// pkg/pager/disk_storage.go
package pager

// diskStorage adapts the platform mmapFile to the Storage interface.
type diskStorage struct {
	f *mmapFile
}

// openDiskStorage memory-maps path, creating it (and extending it to
// initialSize bytes) if necessary.
func openDiskStorage(path string, initialSize int64) (*diskStorage, error) {
	f, err := openMmapFile(path, initialSize)
	if err != nil {
		return nil, err
	}
	return &diskStorage{f: f}, nil
}

func (d *diskStorage) Size() int64                       { return d.f.Size() }
func (d *diskStorage) Slice(offset, length int) []byte   { return d.f.Slice(offset, length) }
func (d *diskStorage) Sync() error                       { return d.f.Sync() }
func (d *diskStorage) Grow(newSize int64) error          { return d.f.Grow(newSize) }
func (d *diskStorage) Close() error                      { return d.f.Close() }
