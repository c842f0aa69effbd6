// Package cryptox implements the vault's cipher service: a single symmetric
// key held for the process lifetime, AES-GCM encryption of file payloads on
// ingest, and fail-closed decryption on egress. It also carries the argon2
// credential-verifier helpers used by the identity service.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/akarpov87/securevault/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length of the vault key in bytes (AES-256).
const KeySize = 32

// Cipher performs authenticated encryption with a fixed process-lifetime key.
// The key is read-only after construction, so a single Cipher is safe for
// concurrent use by multiple operations.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher around the given AES key
// (16, 24, or 32 bytes; the vault uses 32).
func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce. The nonce is prepended
// to the returned ciphertext so the blob is self-contained.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any tampering, truncation,
// or a key mismatch yields common.ErrorIntegrity; partially decrypted data is
// never returned.
func (c *Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(ciphertext) < ns {
		return nil, common.ErrorIntegrity
	}
	nonce, sealed := ciphertext[:ns], ciphertext[ns:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, common.ErrorIntegrity
	}
	return plaintext, nil
}

// DeriveKey stretches a password with argon2id into a 32-byte key.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// MakeVerifier produces the stored credential verifier for a derived key.
// Comparing verifiers must be done in constant time, see subtle.ConstantTimeCompare.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}
