package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/hoops/ports"
)

// CredentialStore implements ports.CredentialStore.
type CredentialStore struct {
	db *DB
}

// NewCredentialStore creates a new credential store.
func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

type credentialRow struct {
	ID             string    `db:"id"`
	ConsumerKey    string    `db:"consumer_key"`
	ConsumerSecret string    `db:"consumer_secret"`
	Token          string    `db:"token"`
	TokenSecret    string    `db:"token_secret"`
	Enabled        bool      `db:"enabled"`
	OwnerRef       string    `db:"owner_ref"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r credentialRow) credential() ports.Credential {
	return ports.Credential(r)
}

const credentialColumns = `id, consumer_key, consumer_secret, token, token_secret, enabled, owner_ref, created_at`

// Get retrieves a credential by consumer key.
func (s *CredentialStore) Get(ctx context.Context, consumerKey string) (ports.Credential, error) {
	var row credentialRow
	query := s.db.Rebind(`SELECT ` + credentialColumns + ` FROM credentials WHERE consumer_key = ?`)
	err := s.db.GetContext(ctx, &row, query, consumerKey)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Credential{}, ports.ErrNotFound
	}
	if err != nil {
		return ports.Credential{}, fmt.Errorf("get credential: %w", err)
	}
	return row.credential(), nil
}

// Create stores a new credential.
func (s *CredentialStore) Create(ctx context.Context, c ports.Credential) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO credentials (`+credentialColumns+`)
		VALUES (:id, :consumer_key, :consumer_secret, :token, :token_secret, :enabled, :owner_ref, :created_at)
	`, credentialRow(c))
	if err != nil {
		if isDuplicate(err) {
			return ports.ErrDuplicate
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

// List returns all credentials ordered by creation time.
func (s *CredentialStore) List(ctx context.Context) ([]ports.Credential, error) {
	var rows []credentialRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+credentialColumns+` FROM credentials ORDER BY created_at, consumer_key`); err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	out := make([]ports.Credential, len(rows))
	for i, r := range rows {
		out[i] = r.credential()
	}
	return out, nil
}

// SetEnabled enables or disables a credential.
func (s *CredentialStore) SetEnabled(ctx context.Context, consumerKey string, enabled bool) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE credentials SET enabled = ? WHERE consumer_key = ?`), enabled, consumerKey)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}
