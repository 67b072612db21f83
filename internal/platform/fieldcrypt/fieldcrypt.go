// Package fieldcrypt seals individual record fields with a passphrase-derived key.
package fieldcrypt

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/SscSPs/mma_local/internal/store"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Argon2id parameters for key derivation.
const (
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
)

var ErrEmptyPassphrase = errors.New("encryption passphrase is empty")

// Cipher implements store.FieldFilter with XChaCha20-Poly1305. The table and field
// name are bound as associated data, so a sealed value cannot be moved to another field.
type Cipher struct {
	aead cipher.AEAD
}

var _ store.FieldFilter = (*Cipher)(nil)

// New derives the field key from passphrase and salt.
func New(passphrase string, salt []byte) (*Cipher, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	key := argon2.IDKey([]byte(passphrase), salt, kdfTime, kdfMemory, kdfThreads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create field cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Factory adapts New to the store's filter factory signature.
func Factory(passphrase string) store.FieldFilterFactory {
	return func(salt []byte) (store.FieldFilter, error) {
		return New(passphrase, salt)
	}
}

func additionalData(table, field string) []byte {
	return []byte(table + "." + field)
}

// Seal returns nonce || ciphertext.
func (c *Cipher) Seal(table, field string, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData(table, field)), nil
}

// Open reverses Seal.
func (c *Cipher) Open(table, field string, sealed []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns+c.aead.Overhead() {
		return nil, errors.New("sealed value is too short")
	}
	plain, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], additionalData(table, field))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt field: %w", err)
	}
	return plain, nil
}
