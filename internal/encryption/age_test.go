package encryption

import (
	"bytes"
	"path/filepath"
	"testing"
)

func keyPaths(t *testing.T) (pub, priv string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "keys", "deskos.pub"), filepath.Join(dir, "keys", "deskos.key")
}

func TestKeysExist(t *testing.T) {
	t.Parallel()

	pub, priv := keyPaths(t)
	if KeysExist(pub, priv) {
		t.Error("KeysExist() = true before Setup, want false")
	}

	if err := Setup(pub, priv, "test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !KeysExist(pub, priv) {
		t.Error("KeysExist() = false after Setup, want true")
	}
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "binary data", input: []byte{0x00, 0xff, 0x01, 0xfe}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			passphrase := "test-passphrase"
			pub, priv := keyPaths(t)
			if err := Setup(pub, priv, passphrase); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			e, err := NewAgeEncryptor(pub, priv, passphrase)
			if err != nil {
				t.Fatalf("NewAgeEncryptor() error = %v", err)
			}

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			// Encrypted output should differ from plaintext
			if len(tt.input) > 0 && bytes.Equal(encrypted.Bytes(), tt.input) {
				t.Error("encrypted output is identical to plaintext")
			}

			var decrypted bytes.Buffer
			if err := e.Decrypt(bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}

			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestNewAgeEncryptor_WrongPassphrase(t *testing.T) {
	t.Parallel()

	pub, priv := keyPaths(t)
	if err := Setup(pub, priv, "correct-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if _, err := NewAgeEncryptor(pub, priv, "wrong-passphrase"); err == nil {
		t.Error("NewAgeEncryptor() with wrong passphrase should return error")
	}
}

func TestNewAgeEncryptor_MissingKeys(t *testing.T) {
	t.Parallel()

	pub, priv := keyPaths(t)
	if _, err := NewAgeEncryptor(pub, priv, "passphrase"); err == nil {
		t.Error("NewAgeEncryptor() without generated keys should return error")
	}
}

func TestAgeEncryptor_DecryptAcrossInstances(t *testing.T) {
	t.Parallel()

	passphrase := "test-passphrase"
	pub, priv := keyPaths(t)
	if err := Setup(pub, priv, passphrase); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	first, err := NewAgeEncryptor(pub, priv, passphrase)
	if err != nil {
		t.Fatalf("NewAgeEncryptor() error = %v", err)
	}
	var encrypted bytes.Buffer
	if err := first.Encrypt(bytes.NewReader([]byte("persisted blob")), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	// A fresh instance over the same key files must decrypt old ciphertext.
	second, err := NewAgeEncryptor(pub, priv, passphrase)
	if err != nil {
		t.Fatalf("second NewAgeEncryptor() error = %v", err)
	}
	var decrypted bytes.Buffer
	if err := second.Decrypt(bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if decrypted.String() != "persisted blob" {
		t.Errorf("round-trip = %q, want \"persisted blob\"", decrypted.String())
	}
}
