package sealfile

import (
	"fmt"
	"io"
)

// Container is the parsed form of a sealed file:
//
//	offset 0..16   salt
//	offset 16..28  nonce
//	offset 28..end ciphertext || tag
//
// There are no length prefixes; the ciphertext consumes the remainder.
type Container struct {
	Salt       []byte // Salt for key derivation
	Nonce      []byte // Nonce for the AEAD
	Ciphertext []byte // Ciphertext with the authentication tag appended
}

// Frame concatenates salt, nonce and ciphertext into container bytes.
func Frame(salt, nonce, ciphertext []byte) []byte {
	out := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out
}

// Parse splits container bytes into salt, nonce and ciphertext. The returned
// slices are copies of data.
func Parse(data []byte) (*Container, error) {
	c := new(Container)
	if err := c.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return c, nil
}

// Size returns the total size of the framed container in bytes
func (c *Container) Size() int {
	return len(c.Salt) + len(c.Nonce) + len(c.Ciphertext)
}

// Validate checks the fixed-size fields
func (c *Container) Validate() error {
	if err := ValidateSalt(c.Salt); err != nil {
		return err
	}
	if len(c.Nonce) != NonceSize {
		return &ValidationError{
			Field:   "nonce",
			Value:   len(c.Nonce),
			Message: fmt.Sprintf("invalid nonce size: got %d bytes, expected %d bytes", len(c.Nonce), NonceSize),
		}
	}
	if len(c.Ciphertext) == 0 {
		return &ContainerError{Size: c.Size(), Message: "ciphertext cannot be empty", Err: ErrTruncatedContainer}
	}
	return nil
}

// MarshalBinary frames the container
func (c *Container) MarshalBinary() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return Frame(c.Salt, c.Nonce, c.Ciphertext), nil
}

// UnmarshalBinary parses framed container bytes
func (c *Container) UnmarshalBinary(data []byte) error {
	if len(data) < MinContainerSize {
		return &ContainerError{
			Size:    len(data),
			Message: fmt.Sprintf("need at least %d bytes", MinContainerSize),
			Err:     ErrTruncatedContainer,
		}
	}

	c.Salt = append([]byte(nil), data[:SaltSize]...)
	c.Nonce = append([]byte(nil), data[SaltSize:HeaderSize]...)
	c.Ciphertext = append([]byte(nil), data[HeaderSize:]...)
	return nil
}

// WriteTo writes the framed container to the given writer
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	buf, err := c.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom reads a whole container from the given reader
func (c *Container) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return int64(len(data)), fmt.Errorf("failed to read container: %w", err)
	}
	return int64(len(data)), c.UnmarshalBinary(data)
}
