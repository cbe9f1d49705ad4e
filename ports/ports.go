// Package ports defines interfaces (contracts) between layers.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// Random abstracts randomness for testability.
type Random interface {
	// String generates a random string of n characters.
	String(n int) (string, error)
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides one-way password hashing.
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Store errors
// -----------------------------------------------------------------------------

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate value")
)

// -----------------------------------------------------------------------------
// Record Store Port
// -----------------------------------------------------------------------------

// Record is one row keyed by column name.
type Record = map[string]any

// Query selects rows by column equality, ordered and windowed.
type Query struct {
	Filters map[string]any
	SortBy  string
	Desc    bool
	Offset  int
	Limit   int // 0 means no limit
}

// RecordStore persists rows of the tables described by Table values.
type RecordStore interface {
	// Count returns the number of rows matching q.Filters.
	Count(ctx context.Context, t Table, q Query) (int, error)

	// Find returns the rows matching q, in order.
	Find(ctx context.Context, t Table, q Query) ([]Record, error)

	// Insert stores a new row. ErrDuplicate on unique violation.
	Insert(ctx context.Context, t Table, r Record) error

	// Update applies changes to the rows matching filters and returns the
	// number of rows affected.
	Update(ctx context.Context, t Table, filters map[string]any, changes Record) (int64, error)

	// Delete removes the rows matching filters and returns the number of
	// rows affected.
	Delete(ctx context.Context, t Table, filters map[string]any) (int64, error)
}

// -----------------------------------------------------------------------------
// Credential Ports
// -----------------------------------------------------------------------------

// Credential is an OAuth consumer/token pair.
type Credential struct {
	ID             string
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
	Enabled        bool
	OwnerRef       string // owning principal, bound to owner-scoped rows
	CreatedAt      time.Time
}

// CredentialStore persists OAuth credentials.
type CredentialStore interface {
	// Get retrieves a credential by consumer key. ErrNotFound if absent.
	Get(ctx context.Context, consumerKey string) (Credential, error)

	// Create stores a new credential. ErrDuplicate if the key exists.
	Create(ctx context.Context, c Credential) error

	// List returns all credentials ordered by creation time.
	List(ctx context.Context) ([]Credential, error)

	// SetEnabled enables or disables a credential. ErrNotFound if absent.
	SetEnabled(ctx context.Context, consumerKey string, enabled bool) error
}

// NonceStore records used nonces for replay protection.
type NonceStore interface {
	// Claim marks nonce as used by consumerKey for ttl. It reports false
	// when the nonce was already claimed and has not expired.
	Claim(ctx context.Context, consumerKey, nonce string, ttl time.Duration) (bool, error)
}
