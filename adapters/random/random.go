// Package random provides Random implementations used for OAuth nonces
// and secrets.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/artpar/hoops/ports"
)

// Real draws from crypto/rand.
type Real struct{}

// String returns n random hex characters.
func (Real) String(n int) (string, error) {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b)[:n], nil
}

var _ ports.Random = Real{}

// Fake returns a deterministic hex sequence. Tests only.
type Fake struct {
	mu sync.Mutex
	n  byte
}

// String returns n hex characters derived from an internal counter.
func (f *Fake) String(n int) (string, error) {
	f.mu.Lock()
	f.n++
	seed := f.n
	f.mu.Unlock()

	b := make([]byte, (n+1)/2)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return hex.EncodeToString(b)[:n], nil
}

var _ ports.Random = (*Fake)(nil)

// Nonce returns a 32 character nonce.
func Nonce(r ports.Random) (string, error) {
	return r.String(32)
}

// Secret returns a 40 character OAuth secret.
func Secret(r ports.Random) (string, error) {
	return r.String(40)
}
