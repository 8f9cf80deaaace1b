package blobstore_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"deskos/internal/blobstore"
)

func newSQLiteStore(t *testing.T) *blobstore.SQLiteStore {
	t.Helper()
	store, err := blobstore.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	t.Run("get returns false for missing key", func(t *testing.T) {
		store := newSQLiteStore(t)

		_, ok, err := store.Get("missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() ok = true for missing key")
		}
	})

	t.Run("set then get round trips", func(t *testing.T) {
		store := newSQLiteStore(t)

		if err := store.Set("snapshot", []byte("blob bytes")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok, err := store.Get("snapshot")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || !bytes.Equal(got, []byte("blob bytes")) {
			t.Errorf("Get() = (%q, %v)", got, ok)
		}
	})

	t.Run("set upserts on conflict", func(t *testing.T) {
		store := newSQLiteStore(t)

		if err := store.Set("k", []byte("old")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := store.Set("k", []byte("new")); err != nil {
			t.Fatalf("second Set() error = %v", err)
		}
		got, _, err := store.Get("k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !bytes.Equal(got, []byte("new")) {
			t.Errorf("Get() = %q, want new", got)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		store := newSQLiteStore(t)

		if err := store.Set("a", []byte("1")); err != nil {
			t.Fatalf("Set(a) error = %v", err)
		}
		if err := store.Set("b", []byte("2")); err != nil {
			t.Fatalf("Set(b) error = %v", err)
		}
		got, _, err := store.Get("a")
		if err != nil {
			t.Fatalf("Get(a) error = %v", err)
		}
		if !bytes.Equal(got, []byte("1")) {
			t.Errorf("Get(a) = %q, want 1", got)
		}
	})

	t.Run("data survives reopening the database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.db")

		first, err := blobstore.NewSQLiteStore(path)
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		if err := first.Set("k", []byte("durable")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := first.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		second, err := blobstore.NewSQLiteStore(path)
		if err != nil {
			t.Fatalf("second NewSQLiteStore() error = %v", err)
		}
		defer second.Close()

		got, ok, err := second.Get("k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || !bytes.Equal(got, []byte("durable")) {
			t.Errorf("Get() = (%q, %v), want (durable, true)", got, ok)
		}
	})
}
