package blobstore_test

import (
	"bytes"
	"testing"

	"deskos/internal/blobstore"
	"deskos/internal/encryption"
)

func TestEncryptedStore(t *testing.T) {
	t.Run("round trips through encryption", func(t *testing.T) {
		inner := blobstore.NewMemoryStore()
		store := blobstore.NewEncryptedStore(inner, encryption.NewTestEncryptor())

		if err := store.Set("k", []byte("secret state")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok, err := store.Get("k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || !bytes.Equal(got, []byte("secret state")) {
			t.Errorf("Get() = (%q, %v), want (secret state, true)", got, ok)
		}
	})

	t.Run("inner store holds ciphertext", func(t *testing.T) {
		inner := blobstore.NewMemoryStore()
		store := blobstore.NewEncryptedStore(inner, encryption.NewTestEncryptor())

		if err := store.Set("k", []byte("plaintext")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		raw, ok, err := inner.Get("k")
		if err != nil {
			t.Fatalf("inner Get() error = %v", err)
		}
		if !ok {
			t.Fatal("inner store has no value")
		}
		if bytes.Equal(raw, []byte("plaintext")) {
			t.Error("inner store holds the plaintext")
		}
	})

	t.Run("propagates missing keys", func(t *testing.T) {
		store := blobstore.NewEncryptedStore(blobstore.NewMemoryStore(), encryption.NewTestEncryptor())

		_, ok, err := store.Get("missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() ok = true for missing key")
		}
	})

	t.Run("fails on undecryptable value", func(t *testing.T) {
		inner := blobstore.NewMemoryStore()
		if err := inner.Set("k", []byte("not encrypted")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		store := blobstore.NewEncryptedStore(inner, encryption.NewTestEncryptor())
		if _, _, err := store.Get("k"); err == nil {
			t.Error("Get() expected error for value the encryptor did not produce")
		}
	})
}
