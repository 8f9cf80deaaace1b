package blobstore_test

import (
	"bytes"
	"testing"

	"deskos/internal/blobstore"
)

func TestMemoryStore(t *testing.T) {
	t.Run("get returns false for missing key", func(t *testing.T) {
		store := blobstore.NewMemoryStore()

		_, ok, err := store.Get("missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() ok = true for missing key")
		}
	})

	t.Run("set then get round trips", func(t *testing.T) {
		store := blobstore.NewMemoryStore()

		if err := store.Set("k", []byte("value")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok, err := store.Get("k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || !bytes.Equal(got, []byte("value")) {
			t.Errorf("Get() = (%q, %v), want (value, true)", got, ok)
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		store := blobstore.NewMemoryStore()

		if err := store.Set("k", []byte("old")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := store.Set("k", []byte("new")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, _, err := store.Get("k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !bytes.Equal(got, []byte("new")) {
			t.Errorf("Get() = %q, want new", got)
		}
	})

	t.Run("callers cannot mutate stored data", func(t *testing.T) {
		store := blobstore.NewMemoryStore()

		in := []byte("immutable")
		if err := store.Set("k", in); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		in[0] = 'X'

		got, _, err := store.Get("k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !bytes.Equal(got, []byte("immutable")) {
			t.Errorf("stored value changed through caller's slice: %q", got)
		}

		got[0] = 'Y'
		again, _, err := store.Get("k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !bytes.Equal(again, []byte("immutable")) {
			t.Errorf("stored value changed through returned slice: %q", again)
		}
	})
}
