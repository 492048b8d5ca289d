package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/brookejlacey/flowback/internal/config"
	"golang.org/x/crypto/scrypt"
)

const (
	ivLength  = 16
	tagLength = 16
	keyLength = 32

	fallbackSecret = "dev-fallback-key"
	derivationSalt = "flowback-salt"
)

var ErrInvalidKey = errors.New("encryption key must be 32 bytes hex-encoded")

// Vault encrypts and decrypts third-party credentials at rest with
// AES-256-GCM. Values are stored as hex(iv):hex(tag):hex(ciphertext).
type Vault struct {
	key []byte
}

func New(cfg config.Config) (*Vault, error) {
	key, err := deriveKey(cfg)
	if err != nil {
		return nil, err
	}
	return &Vault{key: key}, nil
}

func deriveKey(cfg config.Config) ([]byte, error) {
	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil || len(key) != keyLength {
			return nil, ErrInvalidKey
		}
		return key, nil
	}

	// No configured key: derive one from the session secret so that the
	// vault never operates with empty key material.
	secret := cfg.SessionSecret
	if secret == "" {
		secret = fallbackSecret
	}
	return scrypt.Key([]byte(secret), []byte(derivationSalt), 16384, 8, 1, keyLength)
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	), nil
}

// Decrypt reverses Encrypt. Input that does not match the three-field encoded
// shape is returned unchanged: connections created before encryption was
// introduced store plaintext credentials.
func (v *Vault) Decrypt(encrypted string) (string, error) {
	parts := strings.Split(encrypted, ":")
	if len(parts) != 3 {
		return encrypted, nil
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode auth tag: %w", err)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decrypt credential: %w", err)
	}
	return string(plaintext), nil
}
