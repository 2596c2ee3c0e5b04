package sealfile

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// Container layout and key derivation constants. Every implementation that
// reads or writes containers must agree on these values; none of them is
// recorded in the container itself.
const (
	// SaltSize is the length of the random KDF salt at the start of a container
	SaltSize = 16

	// NonceSize is the length of the AEAD nonce following the salt
	NonceSize = 12

	// KeySize is the length of the derived symmetric key (AES-256)
	KeySize = 32

	// TagSize is the length of the authentication tag appended by the AEAD
	TagSize = 16

	// HeaderSize is the salt plus nonce prefix of every container
	HeaderSize = SaltSize + NonceSize

	// MinContainerSize is the shortest input Parse accepts: a header and at
	// least one byte of ciphertext
	MinContainerSize = HeaderSize + 1

	// DefaultIterations is the PBKDF2 iteration count
	DefaultIterations = 200000

	// DefaultEntryName names the archive entry when the caller gives no name
	DefaultEntryName = "file"

	// VerifyEntryName names the archive entry packed by Verify
	VerifyEntryName = "data"

	// EncryptedSuffix is appended to the original name of a sealed file
	EncryptedSuffix = ".enc"
)

// CipherSuite represents the AEAD algorithm to use
type CipherSuite uint8

const (
	// CipherAES256GCM uses AES-256 with Galois/Counter Mode
	CipherAES256GCM CipherSuite = iota
	// CipherChaCha20Poly1305 uses ChaCha20 stream cipher with Poly1305 MAC
	CipherChaCha20Poly1305
)

// String returns the string representation of the cipher suite
func (c CipherSuite) String() string {
	switch c {
	case CipherAES256GCM:
		return "aes-256-gcm"
	case CipherChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

// ParseCipherSuite converts a cipher name as printed by String back to a
// CipherSuite.
func ParseCipherSuite(name string) (CipherSuite, error) {
	switch name {
	case "", "aes-256-gcm", "aes":
		return CipherAES256GCM, nil
	case "chacha20-poly1305", "chacha":
		return CipherChaCha20Poly1305, nil
	default:
		return 0, NewValidationError("cipher", name, "unsupported cipher suite")
	}
}

// HashFunc represents hash function types for PBKDF2
type HashFunc uint8

const (
	// SHA256 hash function
	SHA256 HashFunc = iota
	// SHA512 hash function
	SHA512
)

// New returns the hash constructor for hf, or nil if hf is unknown.
func (hf HashFunc) New() func() hash.Hash {
	switch hf {
	case SHA256:
		return sha256.New
	case SHA512:
		return sha512.New
	default:
		return nil
	}
}

// PBKDF2Params contains parameters for PBKDF2 key derivation
type PBKDF2Params struct {
	Iterations int      // Number of iterations (DefaultIterations when zero)
	HashFunc   HashFunc // Hash function to use
}

// Argon2idParams contains parameters for Argon2id key derivation
type Argon2idParams struct {
	Memory      uint32 // Memory in KiB (e.g., 64*1024 for 64MB)
	Iterations  uint32 // Number of iterations (time parameter)
	Parallelism uint8  // Degree of parallelism
}

// Config controls a Pipeline.
type Config struct {
	// Cipher suite used to seal and open containers
	Cipher CipherSuite

	// KDF parameters for the default PBKDF2 key deriver. Ignored when a
	// KeyDeriver is supplied with WithKeyDeriver.
	KDF PBKDF2Params

	// AllowEmptyPayload lets Decrypt return an empty file instead of
	// failing with ErrEmptyPayload
	AllowEmptyPayload bool

	// Parallel controls EncryptBatch and DecryptBatch
	Parallel ParallelConfig
}

// DefaultConfig returns the configuration matching the container format
// defaults.
func DefaultConfig() Config {
	return Config{
		Cipher: CipherAES256GCM,
		KDF: PBKDF2Params{
			Iterations: DefaultIterations,
			HashFunc:   SHA256,
		},
		Parallel: DefaultParallelConfig(),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.Cipher != CipherAES256GCM && c.Cipher != CipherChaCha20Poly1305 {
		return ErrUnsupportedCipher
	}
	if c.KDF.Iterations < 0 {
		return NewValidationError("kdf.iterations", c.KDF.Iterations, "iterations cannot be negative")
	}
	if c.KDF.HashFunc.New() == nil {
		return NewValidationError("kdf.hash", c.KDF.HashFunc, "unsupported hash function")
	}
	if err := c.Parallel.Validate(); err != nil {
		return &ValidationError{Field: "parallel", Message: err.Error(), Err: err}
	}
	return nil
}
