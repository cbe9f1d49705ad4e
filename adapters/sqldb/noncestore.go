package sqldb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/artpar/hoops/ports"
)

// sweepEvery bounds how often expired nonces are purged.
const sweepEvery = 1024

// NonceStore implements ports.NonceStore. Nonces are shared by every
// process using the same database.
type NonceStore struct {
	db     *DB
	clock  ports.Clock
	claims atomic.Uint64
}

// NewNonceStore creates a new nonce store.
func NewNonceStore(db *DB, clock ports.Clock) *NonceStore {
	return &NonceStore{db: db, clock: clock}
}

var _ ports.NonceStore = (*NonceStore)(nil)

// Claim records nonce for consumerKey unless an unexpired claim exists.
func (s *NonceStore) Claim(ctx context.Context, consumerKey, nonce string, ttl time.Duration) (bool, error) {
	now := s.clock.Now().Unix()
	secs := int64(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}

	if s.claims.Add(1)%sweepEvery == 0 {
		if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM nonces WHERE expires_at <= ?`), now); err != nil {
			return false, fmt.Errorf("sweep nonces: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM nonces WHERE consumer_key = ? AND nonce = ? AND expires_at <= ?`),
		consumerKey, nonce, now)
	if err != nil {
		return false, fmt.Errorf("expire nonce: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO nonces (consumer_key, nonce, expires_at) VALUES (?, ?, ?)`),
		consumerKey, nonce, now+secs)
	if err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, fmt.Errorf("claim nonce: %w", err)
	}
	return true, nil
}
