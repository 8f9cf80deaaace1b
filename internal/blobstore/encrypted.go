package blobstore

import (
	"bytes"
	"fmt"

	"deskos/internal/encryption"
	"deskos/internal/vfs"
)

// EncryptedStore decorates another BlobStore, encrypting values at rest.
// Keys stay in plaintext; only values are transformed.
type EncryptedStore struct {
	inner vfs.BlobStore
	enc   encryption.Encryptor
}

// NewEncryptedStore wraps inner so every value passes through enc.
func NewEncryptedStore(inner vfs.BlobStore, enc encryption.Encryptor) *EncryptedStore {
	return &EncryptedStore{inner: inner, enc: enc}
}

func (s *EncryptedStore) Get(key string) ([]byte, bool, error) {
	ciphertext, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return nil, ok, err
	}

	var plaintext bytes.Buffer
	if err := s.enc.Decrypt(bytes.NewReader(ciphertext), &plaintext); err != nil {
		return nil, false, fmt.Errorf("decrypting blob %s: %w", key, err)
	}
	return plaintext.Bytes(), true, nil
}

func (s *EncryptedStore) Set(key string, value []byte) error {
	var ciphertext bytes.Buffer
	if err := s.enc.Encrypt(bytes.NewReader(value), &ciphertext); err != nil {
		return fmt.Errorf("encrypting blob %s: %w", key, err)
	}
	return s.inner.Set(key, ciphertext.Bytes())
}

func (s *EncryptedStore) Close() error {
	return s.inner.Close()
}

// Compile-time check that EncryptedStore implements the BlobStore interface
var _ vfs.BlobStore = (*EncryptedStore)(nil)
