// Package idgen provides ID generation implementations.
package idgen

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/artpar/hoops/ports"
	"github.com/google/uuid"
)

// UUID generates random (v4) UUIDs for record and credential ids.
type UUID struct{}

// New returns a new UUID string.
func (UUID) New() string {
	return uuid.NewString()
}

var _ ports.IDGenerator = UUID{}

// ConsumerKey returns a UUID without dashes, used as an OAuth consumer key
// or token.
func ConsumerKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sequential generates predictable ids for tests.
type Sequential struct {
	prefix string
	n      atomic.Uint64
}

// NewSequential creates a generator producing prefix1, prefix2, ...
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns the next id.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.n.Add(1), 10)
}

var _ ports.IDGenerator = (*Sequential)(nil)
