package sealfile

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
)

// RandomSource supplies salts and nonces. Implementations must be safe for
// concurrent use and cryptographically secure.
type RandomSource interface {
	io.Reader
}

// SystemRandom returns the operating system CSPRNG.
func SystemRandom() RandomSource {
	return rand.Reader
}

// lockedReader serializes reads from a reader that is not safe for
// concurrent use.
type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

// NewLockedRandom wraps r so concurrent pipelines can share it.
func NewLockedRandom(r io.Reader) RandomSource {
	return &lockedReader{r: r}
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}

// readRandom fills a new buffer of n bytes from r.
func readRandom(r RandomSource, n int, what string) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", what, err)
	}
	return buf, nil
}
