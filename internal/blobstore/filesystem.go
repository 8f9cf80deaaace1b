package blobstore

import (
	"fmt"
	"os"
	"path/filepath"

	"deskos/internal/vfs"
)

// FileSystemStore is a filesystem-based implementation of the BlobStore
// interface. Each key is stored as one file under the root directory:
//
//	<root>/
//	  <key>.blob
//
// Writes go through a temp file and rename so a crash mid-write never
// leaves a truncated blob behind.
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a new filesystem store rooted at the given path.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

func (s *FileSystemStore) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.blobPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading blob %s: %w", key, err)
	}
	return data, true, nil
}

func (s *FileSystemStore) Set(key string, value []byte) error {
	dest := s.blobPath(key)
	tmp := dest + ".tmp"

	if err := os.WriteFile(tmp, value, 0600); err != nil {
		return fmt.Errorf("writing blob %s: %w", key, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing blob %s: %w", key, err)
	}
	return nil
}

func (s *FileSystemStore) Close() error { return nil }

func (s *FileSystemStore) blobPath(key string) string {
	return filepath.Join(s.root, key+".blob")
}

// Compile-time check that FileSystemStore implements the BlobStore interface
var _ vfs.BlobStore = (*FileSystemStore)(nil)
