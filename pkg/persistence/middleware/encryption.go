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

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/ports"
)

// sealedPrefix marks a secret that was encrypted at rest.
const sealedPrefix = "enc:v1:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// ParseKeys decodes a hex active key and optional hex fallback keys.
func ParseKeys(active string, fallbacks ...string) (EncryptionConfig, error) {
	var cfg EncryptionConfig
	key, err := decodeKey(active)
	if err != nil {
		return cfg, fmt.Errorf("active key: %w", err)
	}
	cfg.ActiveKey = key
	for i, f := range fallbacks {
		k, err := decodeKey(f)
		if err != nil {
			return cfg, fmt.Errorf("fallback key %d: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, k)
	}
	return cfg, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes (AES-256), got %d", len(key))
	}
	return key, nil
}

type encryptionMiddleware struct {
	next   ports.PathStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals lrsConfig.secret with AES-GCM
// before it reaches the store and opens it again on the way out.
// Secrets stored before encryption was enabled are returned unchanged and sealed on the next update.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.PathStore) ports.PathStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]domain.PathSummary, error) {
	return m.next.List(ctx)
}

func (m *encryptionMiddleware) Get(ctx context.Context, id string) (*domain.LearningPath, error) {
	p, err := m.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.open(p)
}

func (m *encryptionMiddleware) Create(ctx context.Context, patch domain.PathPatch) (*domain.LearningPath, error) {
	sealed, err := m.sealPatch(patch)
	if err != nil {
		return nil, err
	}
	p, err := m.next.Create(ctx, sealed)
	if err != nil {
		return nil, err
	}
	return m.open(p)
}

func (m *encryptionMiddleware) Update(ctx context.Context, id string, patch domain.PathPatch) (*domain.LearningPath, error) {
	if patch.LRSConfig == nil && !patch.ClearLRSConfig {
		// Re-seal an existing secret so documents migrate to the active key.
		current, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.LRSConfig != nil && current.LRSConfig.Secret != "" {
			cfg := *current.LRSConfig
			patch.LRSConfig = &cfg
		}
	}
	sealed, err := m.sealPatch(patch)
	if err != nil {
		return nil, err
	}
	p, err := m.next.Update(ctx, id, sealed)
	if err != nil {
		return nil, err
	}
	return m.open(p)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) Duplicate(ctx context.Context, id string) (*domain.LearningPath, error) {
	p, err := m.next.Duplicate(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.open(p)
}

func (m *encryptionMiddleware) sealPatch(patch domain.PathPatch) (domain.PathPatch, error) {
	if patch.LRSConfig == nil || patch.LRSConfig.Secret == "" {
		return patch, nil
	}
	cfg := *patch.LRSConfig
	if !IsSealed(cfg.Secret) {
		ciphertext, err := encrypt([]byte(cfg.Secret), m.config.ActiveKey)
		if err != nil {
			return patch, fmt.Errorf("failed to encrypt secret: %w", err)
		}
		cfg.Secret = sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
	}
	patch.LRSConfig = &cfg
	return patch, nil
}

func (m *encryptionMiddleware) open(p *domain.LearningPath) (*domain.LearningPath, error) {
	if p.LRSConfig == nil || !IsSealed(p.LRSConfig.Secret) {
		return p, nil
	}
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(p.LRSConfig.Secret, sealedPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secret of path %s: %w", p.ID, err)
	}
	out := p.Clone()
	out.LRSConfig.Secret = string(plainText)
	return out, nil
}

// IsSealed reports whether a stored secret carries the encryption marker.
func IsSealed(secret string) bool {
	return strings.HasPrefix(secret, sealedPrefix)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
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

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
