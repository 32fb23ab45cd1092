package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/storyline/pkg/ports"
)

// EnvelopePrefix marks values written by the encryption middleware.
const EnvelopePrefix = "enc:v1:"

var (
	// ErrDecrypt is returned when a stored value cannot be decrypted with any key.
	ErrDecrypt = errors.New("decryption failed with all available keys")

	// ErrPlaintext is returned when a stored value is not encrypted and
	// plaintext reads are not allowed.
	ErrPlaintext = errors.New("value is missing encrypted envelope")
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte

	// AllowPlaintext passes unencrypted values through on read, so encryption
	// can be enabled on a medium that already holds checkpoints.
	AllowPlaintext bool
}

type encryptionMiddleware struct {
	next   ports.Medium
	config EncryptionConfig
}

type listableEncryptionMiddleware struct {
	*encryptionMiddleware
	lister ports.ListableMedium
}

// NewEncryptionMiddleware creates a middleware that encrypts values using AES-GCM.
// Stored values are EnvelopePrefix followed by base64(nonce || ciphertext).
// Keys are left in the clear so listing keeps working.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.Medium) ports.Medium {
		m := &encryptionMiddleware{next: next, config: config}
		if lister, ok := next.(ports.ListableMedium); ok {
			return &listableEncryptionMiddleware{encryptionMiddleware: m, lister: lister}
		}
		return m
	}
}

// ParseKey decodes a 32-byte key given as 64 hex characters or standard base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if key, err := hex.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	if key, err := base64.StdEncoding.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, errors.New("key must be 32 bytes encoded as hex or base64")
}

func (m *encryptionMiddleware) SetItem(ctx context.Context, key, value string) error {
	ciphertext, err := encrypt([]byte(value), m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt value: %w", err)
	}
	return m.next.SetItem(ctx, key, EnvelopePrefix+base64.StdEncoding.EncodeToString(ciphertext))
}

func (m *encryptionMiddleware) GetItem(ctx context.Context, key string) (string, bool, error) {
	stored, found, err := m.next.GetItem(ctx, key)
	if err != nil || !found {
		return "", found, err
	}

	encoded, ok := strings.CutPrefix(stored, EnvelopePrefix)
	if !ok {
		if m.config.AllowPlaintext {
			return stored, true, nil
		}
		return "", false, fmt.Errorf("%q: %w", key, ErrPlaintext)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return "", false, fmt.Errorf("%q: %w", key, err)
	}
	return string(plainText), true, nil
}

func (m *encryptionMiddleware) RemoveItem(ctx context.Context, key string) error {
	return m.next.RemoveItem(ctx, key)
}

func (m *listableEncryptionMiddleware) Keys(ctx context.Context, prefix string) ([]string, error) {
	return m.lister.Keys(ctx, prefix)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, ErrDecrypt
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
