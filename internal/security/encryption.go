package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"

	"github.com/einvoicehub/einvoicehub/internal/config"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/logger"
)

// EncryptionService encrypts provider credentials at rest using the master
// key from config. Per-call payload encryption for providers that require an
// encrypted envelope goes through Codec instead.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)

	// Hash creates a one-way hash of the input value using SHA-256
	Hash(value string) string
}

type aesEncryptionService struct {
	codec  Codec
	key    string
	logger *logger.Logger
}

// NewEncryptionService creates a new encryption service using the master key from config
func NewEncryptionService(cfg *config.Configuration, logger *logger.Logger) (EncryptionService, error) {
	if cfg.Secrets.EncryptionKey == "" {
		return nil, ierr.NewError("master encryption key not configured").
			WithHint("Set secrets.encryption_key in the configuration").
			Mark(ierr.ErrInternal)
	}

	return &aesEncryptionService{
		codec:  NewAESCodec(),
		key:    cfg.Secrets.EncryptionKey,
		logger: logger,
	}, nil
}

func (s *aesEncryptionService) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return s.codec.Encrypt(plaintext, s.key)
}

func (s *aesEncryptionService) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	return s.codec.Decrypt(ciphertext, s.key)
}

// Hash creates a one-way hash of the input value using SHA-256
func (s *aesEncryptionService) Hash(value string) string {
	if value == "" {
		return ""
	}
	hasher := sha256.New()
	hasher.Write([]byte(value))
	return hex.EncodeToString(hasher.Sum(nil))
}

// GenerateRandomKey generates a random 32-byte key for AES-256
func GenerateRandomKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate random key").
			Mark(ierr.ErrInternal)
	}
	return hex.EncodeToString(key), nil
}

// Codec performs authenticated symmetric encryption with a caller-supplied
// key. The envelope carries the per-call random nonce alongside the
// ciphertext so Decrypt is self-contained.
type Codec interface {
	Encrypt(plaintext string, key string) (string, error)
	Decrypt(envelope string, key string) (string, error)
}

type aesCodec struct{}

// NewAESCodec returns an AES-GCM Codec
func NewAESCodec() Codec {
	return &aesCodec{}
}

// Encrypt encrypts plaintext using AES-GCM and returns a base64 envelope of
// nonce || ciphertext || tag. A fresh random nonce is generated on every
// call. An empty key refuses to encrypt: providers that require payload
// encryption must never fall back to plaintext.
func (c *aesCodec) Encrypt(plaintext string, key string) (string, error) {
	gcm, err := c.newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate nonce").
			Mark(ierr.ErrInternal)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a base64 envelope produced by Encrypt. Tag mismatch is an
// explicit error, never silent garbage.
func (c *aesCodec) Decrypt(envelope string, key string) (string, error) {
	gcm, err := c.newGCM(key)
	if err != nil {
		return "", err
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Envelope is not valid base64").
			Mark(ierr.ErrValidation)
	}

	nonceSize := gcm.NonceSize()
	if len(decoded) < nonceSize {
		return "", ierr.NewError("envelope too short").
			WithHint("Envelope does not contain a nonce").
			Mark(ierr.ErrValidation)
	}

	nonce, ciphertext := decoded[:nonceSize], decoded[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Envelope failed authentication").
			Mark(ierr.ErrValidation)
	}

	return string(plaintext), nil
}

func (c *aesCodec) newGCM(key string) (cipher.AEAD, error) {
	if key == "" {
		return nil, ierr.NewError("encryption key is absent").
			WithHint("Refusing to operate without a key").
			Mark(ierr.ErrValidation)
	}

	// Keys of any length are accepted; non-32-byte keys are hashed to a
	// consistent 32-byte key for AES-256.
	keyBytes := []byte(key)
	if len(keyBytes) != 32 {
		sum := sha256.Sum256(keyBytes)
		keyBytes = sum[:]
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create cipher block").
			Mark(ierr.ErrInternal)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create GCM").
			Mark(ierr.ErrInternal)
	}
	return gcm, nil
}
