// Package crypto seals small secrets (session tokens) with XChaCha20-Poly1305
// before they are written to disk.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of a raw sealing key.
const KeySize = chacha20poly1305.KeySize

var (
	ErrKeySize   = errors.New("sealing key must be 32 bytes")
	ErrTruncated = errors.New("sealed value is truncated")
	ErrTampered  = errors.New("sealed value failed authentication")
)

// Sealer encrypts and authenticates values with a fixed key. It is safe for
// concurrent use.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	// NewX copies the key.
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init sealer: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFromBase64 accepts the key format produced by GenerateKey.
func NewSealerFromBase64(encodedKey string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("sealing key is not base64: %w", err)
	}
	return NewSealer(key)
}

// Seal returns base64(nonce || ciphertext). The associated data binds the
// value to its slot, so a token sealed for one account cannot be opened as
// another. The empty string seals to itself.
func (s *Sealer) Seal(secret string, associatedData []byte) (string, error) {
	if secret == "" {
		return "", nil
	}

	ns := s.aead.NonceSize()
	out := make([]byte, ns, ns+len(secret)+s.aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return "", fmt.Errorf("draw nonce: %w", err)
	}
	out = s.aead.Seal(out, out[:ns], []byte(secret), associatedData)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal with the same associated data.
func (s *Sealer) Open(sealed string, associatedData []byte) (string, error) {
	if sealed == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("sealed value is not base64: %w", err)
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns+s.aead.Overhead() {
		return "", ErrTruncated
	}

	secret, err := s.aead.Open(nil, raw[:ns], raw[ns:], associatedData)
	if err != nil {
		return "", ErrTampered
	}
	return string(secret), nil
}

// GenerateKey returns a random key, base64 encoded for env vars and key files.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("draw sealing key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
