package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artpar/hoops/ports"
)

// CredentialStore is an in-memory implementation of ports.CredentialStore.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]ports.Credential // by consumer key
}

// NewCredentialStore creates a store holding the given credentials.
func NewCredentialStore(creds ...ports.Credential) *CredentialStore {
	s := &CredentialStore{creds: make(map[string]ports.Credential, len(creds))}
	for _, c := range creds {
		s.creds[c.ConsumerKey] = c
	}
	return s
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

// Get retrieves a credential by consumer key.
func (s *CredentialStore) Get(ctx context.Context, consumerKey string) (ports.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[consumerKey]
	if !ok {
		return ports.Credential{}, ports.ErrNotFound
	}
	return c, nil
}

// Create stores a new credential.
func (s *CredentialStore) Create(ctx context.Context, c ports.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.creds[c.ConsumerKey]; ok {
		return ports.ErrDuplicate
	}
	s.creds[c.ConsumerKey] = c
	return nil
}

// List returns all credentials ordered by creation time.
func (s *CredentialStore) List(ctx context.Context) ([]ports.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ports.Credential, 0, len(s.creds))
	for _, c := range s.creds {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ConsumerKey < out[j].ConsumerKey
	})
	return out, nil
}

// SetEnabled enables or disables a credential.
func (s *CredentialStore) SetEnabled(ctx context.Context, consumerKey string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.creds[consumerKey]
	if !ok {
		return ports.ErrNotFound
	}
	c.Enabled = enabled
	s.creds[consumerKey] = c
	return nil
}

// NonceStore is an in-memory implementation of ports.NonceStore.
// Expired entries are dropped lazily on Claim.
type NonceStore struct {
	mu     sync.Mutex
	clock  ports.Clock
	seen   map[string]time.Time // key -> expiry
	claims int
}

// NewNonceStore creates a nonce store reading time from clock.
func NewNonceStore(clock ports.Clock) *NonceStore {
	return &NonceStore{clock: clock, seen: make(map[string]time.Time)}
}

var _ ports.NonceStore = (*NonceStore)(nil)

// sweepEvery bounds how often expired entries are purged.
const sweepEvery = 1024

// Claim records nonce for consumerKey unless it is already held.
func (s *NonceStore) Claim(ctx context.Context, consumerKey, nonce string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.claims++
	if s.claims%sweepEvery == 0 {
		for k, exp := range s.seen {
			if !now.Before(exp) {
				delete(s.seen, k)
			}
		}
	}

	k := consumerKey + "\x00" + nonce
	if exp, ok := s.seen[k]; ok && now.Before(exp) {
		return false, nil
	}
	s.seen[k] = now.Add(ttl)
	return true, nil
}
