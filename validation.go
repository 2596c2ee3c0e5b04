package sealfile

import (
	"fmt"
)

// Input validation helpers run before any cryptographic work

// ValidatePassword rejects an empty password for the named operation
func ValidatePassword(operation, password string) error {
	if password == "" {
		return NewInputError(operation, "password", ErrEmptyPassword)
	}
	return nil
}

// ValidateBuffer checks if a buffer is valid (non-nil and has expected size)
func ValidateBuffer(buf []byte, name string, minSize int) error {
	if buf == nil {
		return &ValidationError{
			Field:   name,
			Message: "buffer cannot be nil",
			Err:     ErrNilBuffer,
		}
	}
	if minSize > 0 && len(buf) < minSize {
		return &ValidationError{
			Field:   name,
			Value:   len(buf),
			Message: fmt.Sprintf("buffer too small: got %d bytes, need at least %d bytes", len(buf), minSize),
		}
	}
	return nil
}

// ValidateNonce checks if a nonce has the correct size for a cipher
func ValidateNonce(nonce []byte, suite CipherSuite) error {
	if nonce == nil {
		return &ValidationError{
			Field:   "nonce",
			Message: "nonce cannot be nil",
		}
	}

	switch suite {
	case CipherAES256GCM, CipherChaCha20Poly1305:
	default:
		return &ValidationError{
			Field:   "cipher",
			Value:   suite,
			Message: "unsupported cipher suite for nonce validation",
			Err:     ErrUnsupportedCipher,
		}
	}

	if len(nonce) != NonceSize {
		return &ValidationError{
			Field:   "nonce",
			Value:   len(nonce),
			Message: fmt.Sprintf("invalid nonce size: got %d bytes, expected %d bytes for %s", len(nonce), NonceSize, suite.String()),
		}
	}

	return nil
}

// ValidateSalt checks if a salt has the container salt size
func ValidateSalt(salt []byte) error {
	if len(salt) != SaltSize {
		return &ValidationError{
			Field:   "salt",
			Value:   len(salt),
			Message: fmt.Sprintf("invalid salt size: got %d bytes, expected %d bytes", len(salt), SaltSize),
		}
	}
	return nil
}

// ValidateKey checks if a key has the correct size
func ValidateKey(key []byte, expectedSize int) error {
	if key == nil {
		return &ValidationError{
			Field:   "key",
			Message: "key cannot be nil",
			Err:     ErrInvalidKey,
		}
	}

	if len(key) != expectedSize {
		return &ValidationError{
			Field:   "key",
			Value:   len(key),
			Message: fmt.Sprintf("invalid key size: got %d bytes, expected %d bytes", len(key), expectedSize),
			Err:     ErrInvalidKey,
		}
	}

	return nil
}
