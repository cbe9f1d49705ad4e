// Package hasher provides password hashing implementations.
package hasher

import (
	"errors"

	"github.com/artpar/hoops/domain/schema"
	"github.com/artpar/hoops/ports"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes with bcrypt at a fixed cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. An out of range cost falls back to
// bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// Compare reports whether plaintext matches hash.
func (h *Bcrypt) Compare(hash []byte, plaintext string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}

var _ ports.Hasher = (*Bcrypt)(nil)

// Fake stores plaintext unchanged. Tests only.
type Fake struct{}

// Hash returns plaintext as bytes.
func (Fake) Hash(plaintext string) ([]byte, error) {
	return []byte(plaintext), nil
}

// Compare checks plain equality.
func (Fake) Compare(hash []byte, plaintext string) bool {
	return string(hash) == plaintext
}

var _ ports.Hasher = Fake{}

// ErrNotText is returned by Converter for non-string input.
var ErrNotText = errors.New("Please enter a string value")

// Converter returns a rename converter that replaces a plaintext password
// with its hash, as a string suitable for a TEXT column.
func Converter(h ports.Hasher) schema.Converter {
	return func(value any) (any, error) {
		plaintext, ok := value.(string)
		if !ok {
			return nil, ErrNotText
		}
		hash, err := h.Hash(plaintext)
		if err != nil {
			return nil, err
		}
		return string(hash), nil
	}
}
