package sealfile

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherEngine provides AEAD encryption/decryption under a single key. No
// associated data is bound. Callers must never seal twice with the same
// nonce.
type CipherEngine interface {
	// Seal encrypts plaintext with the given nonce and appends the tag
	Seal(nonce, plaintext []byte) ([]byte, error)

	// Open verifies the tag and decrypts ciphertext with the given nonce
	Open(nonce, ciphertext []byte) ([]byte, error)

	// NonceSize returns the size of nonces in bytes
	NonceSize() int

	// Overhead returns the authentication tag size
	Overhead() int
}

// aeadEngine adapts a cipher.AEAD to CipherEngine
type aeadEngine struct {
	suite CipherSuite
	aead  cipher.AEAD
}

// NewAESGCMEngine creates a new AES-256-GCM cipher engine
func NewAESGCMEngine(key []byte) (CipherEngine, error) {
	if err := ValidateKey(key, KeySize); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &aeadEngine{suite: CipherAES256GCM, aead: aead}, nil
}

// NewChaCha20Poly1305Engine creates a new ChaCha20-Poly1305 cipher engine
func NewChaCha20Poly1305Engine(key []byte) (CipherEngine, error) {
	if err := ValidateKey(key, chacha20poly1305.KeySize); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &aeadEngine{suite: CipherChaCha20Poly1305, aead: aead}, nil
}

// NewCipherEngine creates a new cipher engine based on the cipher suite
func NewCipherEngine(suite CipherSuite, key []byte) (CipherEngine, error) {
	switch suite {
	case CipherAES256GCM:
		return NewAESGCMEngine(key)
	case CipherChaCha20Poly1305:
		return NewChaCha20Poly1305Engine(key)
	default:
		return nil, ErrUnsupportedCipher
	}
}

func (e *aeadEngine) Seal(nonce, plaintext []byte) ([]byte, error) {
	if err := ValidateNonce(nonce, e.suite); err != nil {
		return nil, err
	}
	return e.aead.Seal(nil, nonce, plaintext, nil), nil
}

func (e *aeadEngine) Open(nonce, ciphertext []byte) ([]byte, error) {
	if err := ValidateNonce(nonce, e.suite); err != nil {
		return nil, err
	}

	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, &AuthenticationError{Message: err.Error(), Err: ErrAuthFailed}
	}
	return plaintext, nil
}

// NonceSize returns the nonce size (12 bytes for both suites)
func (e *aeadEngine) NonceSize() int {
	return e.aead.NonceSize()
}

// Overhead returns the authentication tag size (16 bytes)
func (e *aeadEngine) Overhead() int {
	return e.aead.Overhead()
}
