package sealfile

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "input",
			err:     NewInputError("encrypt", "password", ErrEmptyPassword),
			wantMsg: "encrypt: invalid input: password: password required",
		},
		{
			name:    "container",
			err:     &ContainerError{Size: 3, Message: "need at least 29 bytes", Err: ErrTruncatedContainer},
			wantMsg: "container error: need at least 29 bytes (3 bytes)",
		},
		{
			name:    "authentication",
			err:     &AuthenticationError{Message: "cipher: message authentication failed", Err: ErrAuthFailed},
			wantMsg: "authentication error: cipher: message authentication failed",
		},
		{
			name:    "archive with entry",
			err:     NewArchiveError("notes.txt", ErrEmptyPayload),
			wantMsg: "archive error: notes.txt: archive entry is empty",
		},
		{
			name:    "archive without entry",
			err:     NewArchiveError("", ErrEmptyArchive),
			wantMsg: "archive error: archive contains no entries",
		},
		{
			name:    "validation with field",
			err:     NewValidationError("key", 12, "too short"),
			wantMsg: "validation error: key: too short",
		},
		{
			name:    "validation without field",
			err:     &ValidationError{Message: "invalid configuration"},
			wantMsg: "validation error: invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{NewInputError("decrypt", "password", ErrEmptyPassword), ErrEmptyPassword},
		{&ContainerError{Err: ErrTruncatedContainer}, ErrTruncatedContainer},
		{NewAuthenticationError(ErrAuthFailed), ErrAuthFailed},
		{NewArchiveError("x", ErrMalformedArchive), ErrMalformedArchive},
		{&ValidationError{Err: ErrInvalidKey}, ErrInvalidKey},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"input", NewInputError("encrypt", "password", ErrEmptyPassword), KindInput},
		{"truncated", &ContainerError{Err: ErrTruncatedContainer}, KindTruncated},
		{"auth struct", &AuthenticationError{Message: "x"}, KindAuth},
		{"auth sentinel", ErrAuthFailed, KindAuth},
		{"empty archive", NewArchiveError("", ErrEmptyArchive), KindEmptyArchive},
		{"malformed archive", NewArchiveError("", ErrMalformedArchive), KindMalformedArchive},
		{"empty payload", NewArchiveError("a", ErrEmptyPayload), KindEmptyPayload},
		{"other", errors.New("boom"), KindInternal},
		{"wrapped with fmt", fmt.Errorf("outer: %w", NewAuthenticationError(ErrAuthFailed)), KindAuth},
		{"wrapped with pkg/errors", pkgerrors.Wrap(NewArchiveError("a", ErrEmptyPayload), "decrypt"), KindEmptyPayload},
		{"wrapped twice", pkgerrors.Wrap(pkgerrors.Wrap(&ContainerError{Err: ErrTruncatedContainer}, "a"), "b"), KindTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	seen := map[string]bool{}
	for k := KindNone; k <= KindInternal; k++ {
		s := k.String()
		if seen[s] {
			t.Errorf("duplicate kind name %q", s)
		}
		seen[s] = true
	}
	if ErrorKind(200).String() != "internal" {
		t.Error("unknown kinds should print as internal")
	}
}
