package sealfile

import "sync"

// SecureBuffer holds sensitive bytes (a password or a derived key) and
// zeroes them on Wipe. The buffer owns its bytes: NewSecureBuffer copies its
// input so wiping never touches caller memory the caller still relies on.
type SecureBuffer struct {
	mu   sync.Mutex
	data []byte
}

// NewSecureBuffer copies b into a new SecureBuffer.
func NewSecureBuffer(b []byte) *SecureBuffer {
	data := make([]byte, len(b))
	copy(data, b)
	return &SecureBuffer{data: data}
}

// NewSecureString copies s into a new SecureBuffer.
func NewSecureString(s string) *SecureBuffer {
	return &SecureBuffer{data: []byte(s)}
}

// adoptSecureBuffer takes ownership of b without copying.
func adoptSecureBuffer(b []byte) *SecureBuffer {
	return &SecureBuffer{data: b}
}

// Bytes returns the underlying bytes. The slice is only valid until Wipe.
func (s *SecureBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Len returns the number of bytes held
func (s *SecureBuffer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Wipe zeroes the buffer and releases it. Wipe is idempotent and safe on a
// nil receiver.
func (s *SecureBuffer) Wipe() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	SecureZero(s.data)
	s.data = nil
}

// SecureZero overwrites data with zeros.
func SecureZero(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
