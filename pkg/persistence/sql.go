package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/sessionseal/sessionseal"
)

const (
	defaultLoadQuery   = "SELECT data FROM session_record WHERE id = ?"
	defaultStoreQuery  = "REPLACE INTO session_record (id, data) VALUES (?, ?)"
	defaultRemoveQuery = "DELETE FROM session_record WHERE id = ?"

	postgresStoreQuery = "INSERT INTO session_record (id, data) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET data = excluded.data"
)

var (
	// Verify SQLStore implements the store interface.
	_ sessionseal.Store = (*SQLStore)(nil)

	storeSQLTimer  = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.sql.store", sessionseal.MetricsPrefix), nil)
	loadSQLTimer   = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.sql.load", sessionseal.MetricsPrefix), nil)
	removeSQLTimer = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.sql.remove", sessionseal.MetricsPrefix), nil)
)

// SQLStoreDBType identifies a specific database/sql driver.
type SQLStoreDBType string

const (
	Postgres SQLStoreDBType = "postgres"
	MySQL    SQLStoreDBType = "mysql"

	DefaultDBType = MySQL
)

var qrx = regexp.MustCompile(`\?`)

// q converts "?" characters to $1, $2, $n on postgres.
//
// This function is based on a function of the same name found in the Go
// sql test project: https://github.com/bradfitz/go-sql-test.
func (t SQLStoreDBType) q(sql string) string {
	if t != Postgres {
		return sql
	}

	n := 0

	return qrx.ReplaceAllStringFunc(sql, func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}

// SQLStoreOption is used to configure additional options in a SQLStore.
type SQLStoreOption func(*SQLStore)

// WithSQLStoreDBType configures the SQLStore for use with the specified
// family of database/sql drivers such as Postgres or MySQL (default). The
// store/upsert statement is swapped for the dialect's native form before
// placeholder rewriting.
func WithSQLStoreDBType(t SQLStoreDBType) SQLStoreOption {
	return func(s *SQLStore) {
		s.dbType = t

		if t == Postgres {
			s.storeQuery = postgresStoreQuery
		}

		s.loadQuery = t.q(s.loadQuery)
		s.storeQuery = t.q(s.storeQuery)
		s.removeQuery = t.q(s.removeQuery)
	}
}

// SQLStore implements the Store interface for an RDBMS backend. The expected
// table has an `id` primary key column sized for the fixed-length storage
// key and a binary `data` column for the ciphertext.
type SQLStore struct {
	db *sql.DB

	dbType      SQLStoreDBType
	loadQuery   string
	storeQuery  string
	removeQuery string
}

// NewSQLStore returns a new SQLStore using the provided sql connection.
func NewSQLStore(dbHandle *sql.DB, opts ...SQLStoreOption) *SQLStore {
	store := &SQLStore{
		db: dbHandle,

		dbType:      DefaultDBType,
		loadQuery:   defaultLoadQuery,
		storeQuery:  defaultStoreQuery,
		removeQuery: defaultRemoveQuery,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Load retrieves the record for the given storage key.
// The return value will be nil if not already present.
func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	defer loadSQLTimer.UpdateSince(time.Now())

	var data []byte

	if err := s.db.QueryRowContext(ctx, s.loadQuery, key).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "error loading session record")
	}

	return data, nil
}

// Store persists the record under the given storage key, replacing any
// existing record.
func (s *SQLStore) Store(ctx context.Context, key string, data []byte) error {
	defer storeSQLTimer.UpdateSince(time.Now())

	if _, err := s.db.ExecContext(ctx, s.storeQuery, key, data); err != nil {
		return errors.Wrapf(err, "error storing session record: %s", key)
	}

	return nil
}

// Remove deletes the record for the given storage key, if present.
func (s *SQLStore) Remove(ctx context.Context, key string) error {
	defer removeSQLTimer.UpdateSince(time.Now())

	if _, err := s.db.ExecContext(ctx, s.removeQuery, key); err != nil {
		return errors.Wrapf(err, "error removing session record: %s", key)
	}

	return nil
}
