package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Driver names a storage backend.
type Driver string

// Known drivers.
const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverRedis    Driver = "redis"
)

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS nameswap_kv (
  name TEXT PRIMARY KEY,
  payload BLOB NOT NULL,
  updated_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS nameswap_kv (
  name TEXT PRIMARY KEY,
  payload BYTEA NOT NULL,
  updated_at BIGINT NOT NULL
);
`

// DefaultDSN is the data source used when none is configured. It is empty
// for drivers that do not go through database/sql.
func DefaultDSN(driver Driver) string {
	switch driver {
	case DriverSQLite:
		return "file:nameswap.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	case DriverPostgres:
		return "postgres://localhost:5432/nameswap?sslmode=disable"
	default:
		return ""
	}
}

// SQLStore keeps documents in one table of a SQLite or PostgreSQL database.
type SQLStore struct {
	db       *sql.DB
	getQuery string
	putQuery string
}

// OpenSQL opens a database and ensures the table exists.
func OpenSQL(ctx context.Context, driver Driver, dsn string) (*SQLStore, error) {
	var drvName, schema, get, put string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		schema = schemaSQLite
		get = `SELECT payload FROM nameswap_kv WHERE name = ?`
		put = `INSERT INTO nameswap_kv (name, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		schema = schemaPostgres
		get = `SELECT payload FROM nameswap_kv WHERE name = $1`
		put = `INSERT INTO nameswap_kv (name, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	if dsn == "" {
		dsn = DefaultDSN(driver)
	}
	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer; also keeps shared in-memory databases alive
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLStore{db: db, getQuery: get, putQuery: put}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.putQuery, key, value, time.Now().Unix())
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
