package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// File persists the snapshot as a single 0600 file, for CLI-style clients
// that must survive process restarts. TTL is not enforced here: a restored
// snapshot is always re-validated with a refresh round trip before use.
type File struct {
	path string
}

// NewFile returns a store writing to path. Parent directories are created
// on first save.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Save(_ context.Context, snap *Snapshot, _ time.Duration) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	// Write-then-rename so a crash never leaves a truncated snapshot.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (f *File) Load(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return decodeSnapshot(data)
}

func (f *File) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
