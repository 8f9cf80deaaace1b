package blobstore

import (
	"fmt"
	"path/filepath"

	"deskos/internal/config"
	"deskos/internal/vfs"
)

// NewStoreFromConfig creates a BlobStore implementation based on the store
// config type. Encryption is layered on separately with NewEncryptedStore.
func NewStoreFromConfig(cfg config.StoreConfig) (vfs.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem store requires root to be set")
		}
		return NewFileSystemStore(cfg.Root)
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("sqlite store requires data_dir to be set")
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "deskos.db"))
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 store requires s3_bucket to be set")
		}
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
