package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

const (
	// dbDirMode restricts the database directory to owner and group.
	dbDirMode = 0750

	// dbFileMode restricts the database file to owner read/write.
	dbFileMode = 0600

	// millisPerSecond converts the configured busy timeout to the
	// millisecond unit the driver expects.
	millisPerSecond = 1000

	// openPingTimeout bounds the connectivity probe in Open.
	openPingTimeout = 5 * time.Second

	// maxIdleTime recycles the idle connection periodically.
	maxIdleTime = 30 * time.Minute
)

// DB wraps the sql.DB handle with migration support, health checks and
// lifecycle management for Door Core's on-disk store.
type DB struct {
	*sql.DB
	path string
}

// Config mirrors the database section of config.yaml.
type Config struct {
	// Path is the SQLite database file. Parent directories are created
	// on Open when missing.
	Path string

	// WALMode enables write-ahead logging so history reads do not block
	// the transition writer.
	WALMode bool

	// BusyTimeout is how long a statement waits on a locked database,
	// in seconds.
	BusyTimeout int
}

// Open connects to the SQLite database at cfg.Path, creating the file
// and its directory when missing. The connection is verified with a
// ping before it is returned.
func Open(cfg Config) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dbDirMode); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlite handle: %w", err)
	}

	// One writer, kept warm. SQLite serialises writes anyway; a larger
	// pool only manufactures SQLITE_BUSY errors.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(maxIdleTime)

	db := &DB{DB: sqlDB, path: cfg.Path}

	ctx, cancel := context.WithTimeout(context.Background(), openPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // already on the error path
		return nil, fmt.Errorf("ping after open: %w", err)
	}

	// On the very first run the file only appears with the first write,
	// so a chmod failure here is not an error.
	_ = os.Chmod(cfg.Path, dbFileMode) //nolint:errcheck // see above

	return db, nil
}

// dsn builds the go-sqlite3 connection string. Foreign keys are always
// on; WAL and the relaxed sync level are paired because NORMAL is only
// safe under WAL.
// See github.com/mattn/go-sqlite3#connection-string for the parameters.
func dsn(cfg Config) string {
	s := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path, cfg.BusyTimeout*millisPerSecond)
	if cfg.WALMode {
		s += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return s
}

// Close closes the database connection. Safe to call on a DB whose
// handle is already gone.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Path reports where the database file lives on disk.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck verifies the database answers a trivial query. Wired into
// the API health endpoint and the periodic health loop.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	return nil
}

// Stats exposes connection pool statistics for the system info surface.
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// ExecContext runs a statement that returns no rows, wrapping driver
// errors with context.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec statement: %w", err)
	}
	return res, nil
}

// QueryRowContext runs a single-row query.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction. Callers defer tx.Rollback, which is a
// no-op once the transaction commits.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}
