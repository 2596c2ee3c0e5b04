package sealfile

import (
	"bytes"
	"errors"
	"testing"
)

func TestCipherEngines(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)
	nonce := bytes.Repeat([]byte{0x07}, NonceSize)
	plaintext := []byte("attack at dawn")

	for _, suite := range []CipherSuite{CipherAES256GCM, CipherChaCha20Poly1305} {
		t.Run(suite.String(), func(t *testing.T) {
			engine, err := NewCipherEngine(suite, key)
			if err != nil {
				t.Fatalf("NewCipherEngine failed: %v", err)
			}
			if engine.NonceSize() != NonceSize {
				t.Errorf("NonceSize() = %d, want %d", engine.NonceSize(), NonceSize)
			}
			if engine.Overhead() != TagSize {
				t.Errorf("Overhead() = %d, want %d", engine.Overhead(), TagSize)
			}

			ct, err := engine.Seal(nonce, plaintext)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if len(ct) != len(plaintext)+TagSize {
				t.Errorf("ciphertext length = %d, want %d", len(ct), len(plaintext)+TagSize)
			}

			pt, err := engine.Open(nonce, ct)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(pt, plaintext) {
				t.Errorf("Open = %q, want %q", pt, plaintext)
			}

			// Wrong nonce
			otherNonce := bytes.Repeat([]byte{0x08}, NonceSize)
			if _, err := engine.Open(otherNonce, ct); !errors.Is(err, ErrAuthFailed) {
				t.Errorf("Open with wrong nonce: got %v, want ErrAuthFailed", err)
			}

			// Wrong key
			other, err := NewCipherEngine(suite, bytes.Repeat([]byte{0x43}, KeySize))
			if err != nil {
				t.Fatalf("NewCipherEngine failed: %v", err)
			}
			if _, err := other.Open(nonce, ct); !IsAuthenticationError(err) {
				t.Errorf("Open with wrong key: got %v, want authentication error", err)
			}

			// Tampered tag
			ct[len(ct)-1] ^= 0x01
			if _, err := engine.Open(nonce, ct); !errors.Is(err, ErrAuthFailed) {
				t.Errorf("Open with tampered tag: got %v, want ErrAuthFailed", err)
			}

			// Bad nonce size is a validation error, not an auth failure
			if _, err := engine.Seal(nonce[:8], plaintext); !IsValidationError(err) {
				t.Errorf("Seal with short nonce: got %v, want validation error", err)
			}
		})
	}
}

func TestNewCipherEngine_InvalidKey(t *testing.T) {
	for _, size := range []int{0, 16, 24, 31, 33, 64} {
		_, err := NewCipherEngine(CipherAES256GCM, make([]byte, size))
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("AES key of %d bytes: got %v, want ErrInvalidKey", size, err)
		}
		_, err = NewCipherEngine(CipherChaCha20Poly1305, make([]byte, size))
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ChaCha key of %d bytes: got %v, want ErrInvalidKey", size, err)
		}
	}

	if _, err := NewCipherEngine(CipherSuite(9), make([]byte, KeySize)); !errors.Is(err, ErrUnsupportedCipher) {
		t.Errorf("unknown suite: got %v, want ErrUnsupportedCipher", err)
	}
}

func TestCipherSuite_Parse(t *testing.T) {
	tests := []struct {
		in      string
		want    CipherSuite
		wantErr bool
	}{
		{"", CipherAES256GCM, false},
		{"aes-256-gcm", CipherAES256GCM, false},
		{"chacha20-poly1305", CipherChaCha20Poly1305, false},
		{"rot13", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCipherSuite(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCipherSuite(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseCipherSuite(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if CipherSuite(9).String() != "unknown" {
		t.Error("unknown suite should print as unknown")
	}
}
