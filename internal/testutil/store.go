package testutil

import (
	"testing"

	"deskos/internal/blobstore"
	"deskos/internal/vfs"
)

// NewTestStore creates a new in-memory blob store for testing.
func NewTestStore() vfs.BlobStore {
	return blobstore.NewMemoryStore()
}

// NewTestRepository creates a repository over an in-memory store with a
// fixed clock and sequential ids, so trees built in tests are deterministic.
func NewTestRepository(t *testing.T) (*vfs.Repository, *StubClock) {
	t.Helper()

	clock := FixedClock()
	repo, err := vfs.NewRepository(NewTestStore(), vfs.NewNopLogger(), clock, NewStubIDGenerator())
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	return repo, clock
}
