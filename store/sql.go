package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQL dialects understood by NewSQL and Migrate
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQL keeps records in a single `records` table, one row per key
type SQL struct {
	db      *sql.DB
	dialect string

	getQuery    string
	upsertQuery string
	deleteQuery string
}

// NewSQL wraps an open database. The schema must already be migrated.
func NewSQL(db *sql.DB, dialect string) (*SQL, error) {
	// Positional placeholders differ between lib/pq and modernc
	var p1, p2, p3 string
	switch dialect {
	case DialectPostgres:
		p1, p2, p3 = "$1", "$2", "$3"
	case DialectSQLite:
		p1, p2, p3 = "?", "?", "?"
	default:
		return nil, fmt.Errorf("unsupported sql dialect: %q", dialect)
	}

	return &SQL{
		db:       db,
		dialect:  dialect,
		getQuery: "SELECT value FROM records WHERE key = " + p1,
		upsertQuery: "INSERT INTO records (key, value, updated_at) VALUES (" + p1 + ", " + p2 + ", " + p3 + ") " +
			"ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		deleteQuery: "DELETE FROM records WHERE key = " + p1,
	}, nil
}

// OpenSQL opens the database for dialect, applies migrations and returns the store
func OpenSQL(ctx context.Context, dialect, dsn string) (*SQL, error) {
	driver := dialect
	if dialect == DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// One writer at a time; extra handles only buy SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}

	return NewSQL(db, dialect)
}

// Migrate applies the embedded goose migrations
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	var gooseDialect goose.Dialect
	switch dialect {
	case DialectPostgres:
		gooseDialect = goose.DialectPostgres
	case DialectSQLite:
		gooseDialect = goose.DialectSQLite3
	default:
		return fmt.Errorf("unsupported sql dialect: %q", dialect)
	}

	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// DB exposes the handle for pool metrics
func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	var value string
	err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}

	err = wrap("get", key, err)
	observe(s.dialect, "get", start, err)
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx, s.upsertQuery, key, string(value), time.Now().UTC())

	err = wrap("put", key, err)
	observe(s.dialect, "put", start, err)
	return err
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx, s.deleteQuery, key)

	err = wrap("delete", key, err)
	observe(s.dialect, "delete", start, err)
	return err
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQL) Close() error {
	return s.db.Close()
}
