package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// Dialect selects SQL syntax differences between supported databases.
type Dialect string

const (
	// DialectSQLite is a local SQLite file (github.com/mattn/go-sqlite3).
	DialectSQLite Dialect = "sqlite3"
	// DialectPostgres is a shared Postgres database (github.com/lib/pq).
	DialectPostgres Dialect = "postgres"
)

// DefaultTable is the table SQLStore keeps its keys in.
const DefaultTable = "translation_store"

// SQLStore is a Store on a SQL database. Update runs in a transaction; on
// Postgres the row is locked with SELECT ... FOR UPDATE.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
	now     func() time.Time
}

// OpenSQLStore opens a database with the driver named by dialect, checks the
// connection and creates the table if needed.
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", dialect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", dialect, err)
	}

	s := NewSQLStore(db, dialect)
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		table:   DefaultTable,
		now:     time.Now,
	}
}

// Init creates the store table if it does not exist.
func (s *SQLStore) Init(ctx context.Context) error {
	blob := "BLOB"
	if s.dialect == DialectPostgres {
		blob = "BYTEA"
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	store_key TEXT PRIMARY KEY,
	payload %s NOT NULL,
	updated_at BIGINT NOT NULL
)`, s.table, blob)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating %s table: %w", s.table, err)
	}
	return nil
}

// Load implements Store.
func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE store_key = $1`, s.table)

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", key, err)
	}
	return payload, nil
}

// Update implements Store.
func (s *SQLStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	selectQuery := fmt.Sprintf(`SELECT payload FROM %s WHERE store_key = $1`, s.table)
	if s.dialect == DialectPostgres {
		// FOR UPDATE only locks existing rows, so first writers create an
		// empty one to queue behind each other.
		placeholder := fmt.Sprintf(`INSERT INTO %s (store_key, payload, updated_at) VALUES ($1, '', 0)
ON CONFLICT (store_key) DO NOTHING`, s.table)
		if _, err := tx.ExecContext(ctx, placeholder, key); err != nil {
			return fmt.Errorf("reserving %q: %w", key, err)
		}
		selectQuery += " FOR UPDATE"
	}

	var old []byte
	err = tx.QueryRowContext(ctx, selectQuery, key).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		old = nil
	} else if err != nil {
		return fmt.Errorf("reading %q: %w", key, err)
	}
	if len(old) == 0 {
		old = nil
	}

	next, err := fn(old)
	if err != nil {
		return err
	}

	upsert := fmt.Sprintf(`INSERT INTO %s (store_key, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (store_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`, s.table)

	if _, err := tx.ExecContext(ctx, upsert, key, next, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE store_key = $1`, s.table)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Verify SQLStore implements Store
var _ Store = (*SQLStore)(nil)
