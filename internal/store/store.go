package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported database dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// Store persists users, API keys and measurements. It is safe for concurrent
// use; all synchronization is delegated to the underlying database.
type Store struct {
	db      *sqlx.DB
	dialect string
}

// Options tunes the connection pool. Zero values keep the driver defaults.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the database identified by dialect and dsn and applies
// pending migrations. For sqlite an empty dsn opens a private in-memory
// database, which is what the tests use.
func Open(ctx context.Context, dialect, dsn string, opts ...Options) (*Store, error) {
	dialect, err := normalizeDialect(dialect)
	if err != nil {
		return nil, err
	}

	driverName := dialect
	switch dialect {
	case DialectSQLite:
		if dsn == "" {
			dsn = ":memory:"
		}
	case DialectPostgres:
		driverName = "pgx"
	case DialectMySQL:
		if dsn, err = normalizeMySQLDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

		// Enable foreign keys (off by default in SQLite).
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	} else if len(opts) > 0 {
		o := opts[0]
		if o.MaxOpenConns > 0 {
			db.SetMaxOpenConns(o.MaxOpenConns)
		}
		if o.MaxIdleConns > 0 {
			db.SetMaxIdleConns(o.MaxIdleConns)
		}
		if o.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(o.ConnMaxLifetime)
		}
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s database: %w", dialect, err)
	}
	return s, nil
}

// SQLitePath returns the database file used for sqlite inside dataDir,
// creating the directory when needed.
func SQLitePath(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return filepath.Join(dataDir, "phoenix.db"), nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db.DB
}

// Dialect returns the normalized dialect name.
func (s *Store) Dialect() string {
	return s.dialect
}

// insertReturningID runs a named INSERT and returns the generated id.
// Postgres has no LastInsertId so the id is read back with RETURNING.
func (s *Store) insertReturningID(ctx context.Context, q string, arg interface{}) (int64, error) {
	if s.dialect == DialectPostgres {
		rows, err := s.db.NamedQueryContext(ctx, q+" RETURNING id", arg)
		if err != nil {
			return 0, err
		}
		defer rows.Close()

		var id int64
		if rows.Next() {
			if err := rows.Scan(&id); err != nil {
				return 0, err
			}
		}
		return id, rows.Err()
	}

	result, err := s.db.NamedExecContext(ctx, q, arg)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func normalizeDialect(d string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	}
	return "", fmt.Errorf("unsupported database driver %q (want sqlite, postgres or mysql)", d)
}

// normalizeMySQLDSN forces parseTime and UTC so DATETIME columns scan into
// time.Time values, and clientFoundRows so updates report matched rows.
func normalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}
