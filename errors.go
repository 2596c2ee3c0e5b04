package sealfile

import (
	"errors"
	"fmt"
)

// Error types represent the failure classes a caller has to tell apart

// InputError is returned before any cryptographic work when caller input is
// unusable (an empty password).
type InputError struct {
	Operation string // "encrypt", "decrypt" or "verify"
	Field     string // The offending input
	Err       error  // Underlying sentinel
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s: %v", e.Operation, e.Field, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// ContainerError represents a container that cannot be framed or parsed
type ContainerError struct {
	Size    int    // Size of the rejected input
	Message string // Human-readable error message
	Err     error  // Underlying sentinel
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("container error: %s (%d bytes)", e.Message, e.Size)
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}

// AuthenticationError represents an AEAD tag mismatch. It is returned for a
// wrong password and for a tampered container alike.
type AuthenticationError struct {
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Message)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ArchiveError represents a decrypted payload that is not a usable archive.
// It is only reported after successful authentication.
type ArchiveError struct {
	Entry   string // Entry name, if one was read
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *ArchiveError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("archive error: %s: %s", e.Entry, e.Message)
	}
	return fmt.Sprintf("archive error: %s", e.Message)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// ValidationError represents a configuration or parameter validation error
type ValidationError struct {
	Field   string // The field or parameter that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Sentinel errors
var (
	ErrEmptyPassword      = errors.New("password required")
	ErrTruncatedContainer = errors.New("container too short")
	ErrAuthFailed         = errors.New("authentication failed - bad password or corrupted data")
	ErrEmptyArchive       = errors.New("archive contains no entries")
	ErrMalformedArchive   = errors.New("archive is malformed")
	ErrEmptyPayload       = errors.New("archive entry is empty")
	ErrInvalidKey         = errors.New("invalid encryption key")
	ErrUnsupportedCipher  = errors.New("unsupported cipher suite")
	ErrNilConfig          = errors.New("config cannot be nil")
	ErrNilBuffer          = errors.New("buffer cannot be nil")
)

// Helper functions for creating structured errors

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewInputError creates a new input error for the given operation
func NewInputError(operation, field string, err error) error {
	return &InputError{
		Operation: operation,
		Field:     field,
		Err:       err,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(err error) error {
	return &AuthenticationError{
		Message: err.Error(),
		Err:     err,
	}
}

// NewArchiveError creates a new archive error
func NewArchiveError(entry string, err error) error {
	return &ArchiveError{
		Entry:   entry,
		Message: err.Error(),
		Err:     err,
	}
}

// ErrorKind classifies pipeline failures for callers that map them to
// responses.
type ErrorKind uint8

const (
	// KindNone is returned for a nil error
	KindNone ErrorKind = iota
	// KindInput is an empty password or similar caller mistake
	KindInput
	// KindTruncated is a container shorter than MinContainerSize
	KindTruncated
	// KindAuth is a wrong password or tampered container
	KindAuth
	// KindEmptyArchive is a decrypted archive with no entries
	KindEmptyArchive
	// KindMalformedArchive is a decrypted payload that is not an archive
	KindMalformedArchive
	// KindEmptyPayload is an archive whose first entry is empty
	KindEmptyPayload
	// KindInternal is anything else
	KindInternal
)

// String returns the string representation of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInput:
		return "input"
	case KindTruncated:
		return "truncated_container"
	case KindAuth:
		return "authentication"
	case KindEmptyArchive:
		return "empty_archive"
	case KindMalformedArchive:
		return "malformed_archive"
	case KindEmptyPayload:
		return "empty_payload"
	default:
		return "internal"
	}
}

// KindOf classifies err. Wrapped errors are unwrapped.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case IsInputError(err):
		return KindInput
	case errors.Is(err, ErrTruncatedContainer):
		return KindTruncated
	case IsAuthenticationError(err), errors.Is(err, ErrAuthFailed):
		return KindAuth
	case errors.Is(err, ErrEmptyArchive):
		return KindEmptyArchive
	case errors.Is(err, ErrEmptyPayload):
		return KindEmptyPayload
	case errors.Is(err, ErrMalformedArchive):
		return KindMalformedArchive
	default:
		return KindInternal
	}
}

// Error checking helpers

// IsInputError checks if an error is an input error
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsContainerError checks if an error is a container error
func IsContainerError(err error) bool {
	var ce *ContainerError
	return errors.As(err, &ce)
}

// IsAuthenticationError checks if an error is an authentication error
func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsArchiveError checks if an error is an archive error
func IsArchiveError(err error) bool {
	var ae *ArchiveError
	return errors.As(err, &ae)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
