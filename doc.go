// Package sealfile provides password-based authenticated encryption of
// single files into self-contained containers.
//
// # Overview
//
// A Pipeline turns (name, bytes, password) into a container and back:
//
//	Encrypt: bytes + name -> zip archive -> AEAD seal -> salt || nonce || ciphertext
//	Decrypt: container -> parse -> AEAD open -> first archive entry -> name + bytes
//
// Each container carries its own random salt and nonce, so encrypting the
// same input twice yields two different containers.
//
// # Basic Usage
//
//	p, err := sealfile.New()
//	if err != nil {
//	    panic(err)
//	}
//
//	container, err := p.Encrypt("notes.txt", []byte("hello world"), "correct horse")
//	if err != nil {
//	    panic(err)
//	}
//
//	name, data, err := p.Decrypt(container, "correct horse")
//
// # Container Format
//
// Containers are a plain concatenation without magic bytes or length
// prefixes:
//   - Salt (16 bytes): random salt for key derivation
//   - Nonce (12 bytes): random AEAD nonce
//   - Ciphertext (variable): encrypted archive + 16-byte authentication tag
//
// The key is derived with PBKDF2-HMAC-SHA256 using 200,000 iterations and
// the payload is sealed with AES-256-GCM without associated data. None of
// these parameters is stored, so a reader must use the same ones.
//
// # Errors
//
// Failures are classified by KindOf. A wrong password and a tampered
// container are reported the same way, as an
// *AuthenticationError. Archive errors are only possible after successful
// authentication and mean the password was right but the payload is not a
// usable archive.
//
// # Security Considerations
//
// Passwords and derived keys are copied into SecureBuffers and zeroed before
// each call returns. The password string passed by the caller cannot be
// wiped by this package.
package sealfile
