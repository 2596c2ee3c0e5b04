package sealfile

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// KeyDeriver turns a password and salt into a KeySize-byte key. DeriveKey
// must be deterministic in its inputs.
type KeyDeriver interface {
	DeriveKey(password, salt []byte) ([]byte, error)
}

// PBKDF2Deriver implements KeyDeriver using PBKDF2-HMAC. With the default
// parameters it produces the keys every sealfile container is written with.
type PBKDF2Deriver struct {
	params PBKDF2Params
}

// NewPBKDF2Deriver creates a PBKDF2 key deriver
func NewPBKDF2Deriver(params PBKDF2Params) *PBKDF2Deriver {
	if params.Iterations == 0 {
		params.Iterations = DefaultIterations
	}
	return &PBKDF2Deriver{params: params}
}

// Iterations returns the configured iteration count
func (d *PBKDF2Deriver) Iterations() int {
	return d.params.Iterations
}

// DeriveKey derives a key from the password and salt
func (d *PBKDF2Deriver) DeriveKey(password, salt []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	if len(salt) == 0 {
		return nil, errors.New("salt cannot be empty")
	}

	hashFunc := d.params.HashFunc.New()
	if hashFunc == nil {
		return nil, fmt.Errorf("unsupported hash function: %v", d.params.HashFunc)
	}

	return pbkdf2.Key(password, salt, d.params.Iterations, KeySize, hashFunc), nil
}

// Argon2idDeriver implements KeyDeriver using Argon2id. Containers sealed
// with it can only be opened by a pipeline configured the same way.
type Argon2idDeriver struct {
	params Argon2idParams
}

// NewArgon2idDeriver creates an Argon2id key deriver
func NewArgon2idDeriver(params Argon2idParams) *Argon2idDeriver {
	// Set defaults
	if params.Memory == 0 {
		params.Memory = 64 * 1024 // 64 MB
	}
	if params.Iterations == 0 {
		params.Iterations = 3
	}
	if params.Parallelism == 0 {
		params.Parallelism = 4
	}
	return &Argon2idDeriver{params: params}
}

// DeriveKey derives a key from the password and salt
func (d *Argon2idDeriver) DeriveKey(password, salt []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	if len(salt) == 0 {
		return nil, errors.New("salt cannot be empty")
	}

	key := argon2.IDKey(
		password,
		salt,
		d.params.Iterations,
		d.params.Memory,
		d.params.Parallelism,
		KeySize,
	)
	return key, nil
}
