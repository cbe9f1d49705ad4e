package sqldb_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/artpar/hoops/adapters/sqldb"
	"github.com/artpar/hoops/ports"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T, matchers ...sqlmock.QueryMatcher) (*sqldb.DB, sqlmock.Sqlmock) {
	t.Helper()
	var (
		conn *sql.DB
		mock sqlmock.Sqlmock
		err  error
	)
	if len(matchers) > 0 {
		conn, mock, err = sqlmock.New(sqlmock.QueryMatcherOption(matchers[0]))
	} else {
		conn, mock, err = sqlmock.New()
	}
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return sqldb.FromSQLX(sqlx.NewDb(conn, sqldb.DriverPostgres)), mock
}

func TestRecordStore_PostgresQueries(t *testing.T) {
	db, mock := newMockDB(t, sqlmock.QueryMatcherEqual)
	store := sqldb.NewRecordStore(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT(*) FROM languages WHERE active = $1").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery("SELECT id, lang, name, active FROM languages WHERE active = $1 ORDER BY name DESC, id LIMIT $2 OFFSET $3").
		WithArgs(true, 2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lang", "name", "active"}).
			AddRow("es", []byte("es"), "Spanish", true).
			AddRow("de", "de", "German", true))
	mock.ExpectQuery("SELECT id, lang, name, active FROM languages ORDER BY id LIMIT ALL OFFSET $1").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lang", "name", "active"}))
	mock.ExpectQuery("SELECT id, lang, name, active FROM languages WHERE lang IS NULL ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "lang", "name", "active"}))

	n, err := store.Count(ctx, languages, ports.Query{Filters: map[string]any{"active": true}})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	rows, err := store.Find(ctx, languages, ports.Query{
		Filters: map[string]any{"active": true},
		SortBy:  "name",
		Desc:    true,
		Offset:  1,
		Limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "es", rows[0]["lang"], "[]byte values are returned as strings")
	assert.Equal(t, "German", rows[1]["name"])

	rows, err = store.Find(ctx, languages, ports.Query{Offset: 3})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	_, err = store.Find(ctx, languages, ports.Query{Filters: map[string]any{"lang": nil}})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStore_PostgresWrites(t *testing.T) {
	db, mock := newMockDB(t, sqlmock.QueryMatcherEqual)
	store := sqldb.NewRecordStore(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO notes (id, owner_ref, title) VALUES ($1, $2, $3)").
		WithArgs("n1", "alice", "hello").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notes (id, owner_ref, title) VALUES ($1, $2, $3)").
		WithArgs("n1", "alice", "hello").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectExec("UPDATE notes SET body = $1, title = $2 WHERE id = $3 AND owner_ref = $4").
		WithArgs("b", "t", "n1", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM notes WHERE id = $1").
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	row := ports.Record{"id": "n1", "title": "hello", "owner_ref": "alice"}
	require.NoError(t, store.Insert(ctx, notes, row))

	err := store.Insert(ctx, notes, row)
	assert.ErrorIs(t, err, ports.ErrDuplicate)

	n, err := store.Update(ctx, notes,
		map[string]any{"id": "n1", "owner_ref": "alice"},
		ports.Record{"title": "t", "body": "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Delete(ctx, notes, map[string]any{"id": "n1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStore_WrapsDriverErrors(t *testing.T) {
	db, mock := newMockDB(t)
	store := sqldb.NewRecordStore(db)
	boom := errors.New("connection reset")

	mock.ExpectQuery("SELECT COUNT").WillReturnError(boom)
	mock.ExpectExec("INSERT INTO notes").WillReturnError(boom)

	_, err := store.Count(context.Background(), notes, ports.Query{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ports.ErrDuplicate)

	err = store.Insert(context.Background(), notes, ports.Record{"id": "n1"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ports.ErrDuplicate)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_PostgresGetMissing(t *testing.T) {
	db, mock := newMockDB(t)
	store := sqldb.NewCredentialStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM credentials WHERE consumer_key = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNonceStore_PostgresDuplicateMeansReplay(t *testing.T) {
	db, mock := newMockDB(t)
	store := sqldb.NewNonceStore(db, fixedClock{})

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM nonces WHERE consumer_key = $1 AND nonce = $2 AND expires_at <= $3")).
		WithArgs("ck", "n1", int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO nonces (consumer_key, nonce, expires_at) VALUES ($1, $2, $3)")).
		WithArgs("ck", "n1", int64(1)).
		WillReturnError(&pq.Error{Code: "23505"})

	ok, err := store.Claim(context.Background(), "ck", "n1", 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_SkipsAppliedVersions(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).
			AddRow("001_credentials").
			AddRow("002_nonces"))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS languages").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")).
		WithArgs("003_sample_resources").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, db.Migrate())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RollsBackFailedMigration(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS credentials").
		WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err := db.Migrate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_credentials.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Unix(0, 0) }
