package encryption

import (
	"fmt"

	"deskos/internal/config"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration
// type. passphrase unlocks the age private key and is ignored by other
// types. Returns nil when encryption is disabled.
func NewEncryptorFromConfig(cfg config.EncryptionConfig, passphrase string) (Encryptor, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "age":
		if !KeysExist(cfg.PublicKeyPath, cfg.PrivateKeyPath) {
			return nil, fmt.Errorf("age keys not found, run `deskos keys init` first")
		}
		return NewAgeEncryptor(cfg.PublicKeyPath, cfg.PrivateKeyPath, passphrase)
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
