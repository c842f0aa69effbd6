package cryptox

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
)

// LoadOrCreateKey returns the vault key stored at path, generating and
// persisting a new random key on first start. Persisting the key is what
// keeps previously stored ciphertexts readable across restarts; a deployment
// that loses the file will see decrypt fail with an integrity error, not
// silent corruption.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != KeySize {
			return nil, fmt.Errorf("key file %s: expected %d bytes, got %d", path, KeySize, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("key file read: %w", err)
	}

	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("key generation: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("key file write: %w", err)
	}
	return key, nil
}
