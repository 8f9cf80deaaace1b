// Package encryption provides at-rest encryption for blob store values.
package encryption

import "io"

// Encryptor encrypts and decrypts streams. Implementations must be
// symmetric: Decrypt(Encrypt(x)) == x.
type Encryptor interface {
	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Decrypt reads ciphertext from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}
