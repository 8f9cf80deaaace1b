package blobstore_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"deskos/internal/blobstore"
)

func TestFileSystemStore(t *testing.T) {
	t.Run("creates root directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "store")

		if _, err := blobstore.NewFileSystemStore(root); err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		if _, err := os.Stat(root); err != nil {
			t.Errorf("store root not created: %v", err)
		}
	})

	t.Run("get returns false for missing key", func(t *testing.T) {
		store, err := blobstore.NewFileSystemStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}

		_, ok, err := store.Get("missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() ok = true for missing key")
		}
	})

	t.Run("set then get round trips", func(t *testing.T) {
		store, err := blobstore.NewFileSystemStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}

		if err := store.Set("snapshot", []byte(`{"version":1}`)); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok, err := store.Get("snapshot")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || !bytes.Equal(got, []byte(`{"version":1}`)) {
			t.Errorf("Get() = (%q, %v)", got, ok)
		}
	})

	t.Run("data survives reopening the store", func(t *testing.T) {
		root := t.TempDir()

		first, err := blobstore.NewFileSystemStore(root)
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		if err := first.Set("k", []byte("durable")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := first.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		second, err := blobstore.NewFileSystemStore(root)
		if err != nil {
			t.Fatalf("second NewFileSystemStore() error = %v", err)
		}
		got, ok, err := second.Get("k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || !bytes.Equal(got, []byte("durable")) {
			t.Errorf("Get() = (%q, %v), want (durable, true)", got, ok)
		}
	})

	t.Run("no temp file left behind after set", func(t *testing.T) {
		root := t.TempDir()
		store, err := blobstore.NewFileSystemStore(root)
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		if err := store.Set("k", []byte("v")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		for _, e := range entries {
			if filepath.Ext(e.Name()) == ".tmp" {
				t.Errorf("temp file %s left behind", e.Name())
			}
		}
	})
}
