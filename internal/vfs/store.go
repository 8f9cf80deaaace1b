package vfs

// BlobStore is the durable key-value primitive the repository persists into.
// Implementations live in internal/blobstore. All operations are synchronous;
// Set must be durable before it returns.
type BlobStore interface {
	// Get returns the value stored at key. ok is false when the key has
	// never been written.
	Get(key string) (value []byte, ok bool, err error)

	// Set stores value at key, replacing any previous value.
	Set(key string, value []byte) error

	// Close releases any resources held by the store.
	Close() error
}
