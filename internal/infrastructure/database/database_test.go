package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestDB opens a WAL-mode database in a per-test temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "doorcore.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	return db
}

func TestOpen(t *testing.T) {
	t.Run("creates the database file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "doorcore.db")

		db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer db.Close() //nolint:errcheck // test cleanup

		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("database file missing: %v", err)
		}
	})

	t.Run("creates missing parent directories", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "data", "doors", "doorcore.db")

		db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer db.Close() //nolint:errcheck // test cleanup

		if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
			t.Errorf("parent directory missing: %v", err)
		}
	})

	t.Run("fails when the directory path is a file", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
			t.Fatalf("writing blocker file: %v", err)
		}

		_, err := Open(Config{Path: filepath.Join(blocker, "doorcore.db"), BusyTimeout: 5})
		if err == nil {
			t.Fatal("Open() expected error when directory path is a file")
		}
	})

	t.Run("reports the configured path", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "doorcore.db")

		db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer db.Close() //nolint:errcheck // test cleanup

		if got := db.Path(); got != dbPath {
			t.Errorf("Path() = %q, want %q", got, dbPath)
		}
	})
}

func TestDSN(t *testing.T) {
	t.Run("with WAL", func(t *testing.T) {
		got := dsn(Config{Path: "/data/doorcore.db", WALMode: true, BusyTimeout: 5})
		want := "file:/data/doorcore.db?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL"
		if got != want {
			t.Errorf("dsn() = %q, want %q", got, want)
		}
	})

	t.Run("without WAL", func(t *testing.T) {
		got := dsn(Config{Path: "/data/doorcore.db", BusyTimeout: 2})
		want := "file:/data/doorcore.db?_busy_timeout=2000&_foreign_keys=on"
		if got != want {
			t.Errorf("dsn() = %q, want %q", got, want)
		}
	})
}

func TestHealthCheck(t *testing.T) {
	db := newTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestClose(t *testing.T) {
	db := newTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	// Closing with a released handle must stay quiet; shutdown paths
	// call Close via defer regardless of how startup went.
	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() with nil handle error = %v", err)
	}
}

func TestExecContext(t *testing.T) {
	db := newTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TABLE door_labels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			door_id TEXT NOT NULL,
			label TEXT NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	result, err := db.ExecContext(ctx,
		"INSERT INTO door_labels (door_id, label) VALUES (?, ?)", "front", "Front Entrance")
	if err != nil {
		t.Fatalf("insert rows: %v", err)
	}
	if id, err := result.LastInsertId(); err != nil || id != 1 {
		t.Errorf("LastInsertId() = %v, %v, want 1, nil", id, err)
	}

	// Driver errors come back wrapped.
	if _, err := db.ExecContext(ctx, "INSERT INTO no_such_table VALUES (1)"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestTransactions(t *testing.T) {
	db := newTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	ctx := context.Background()
	_, err := db.ExecContext(ctx,
		"CREATE TABLE tx_probe (id INTEGER PRIMARY KEY, note TEXT NOT NULL)")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	countNotes := func(note string) int {
		t.Helper()
		var n int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM tx_probe WHERE note = ?", note).Scan(&n); err != nil {
			t.Fatalf("counting rows: %v", err)
		}
		return n
	}

	t.Run("commit persists", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx() error = %v", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tx_probe (note) VALUES (?)", "kept"); err != nil {
			t.Fatalf("insert rows: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if n := countNotes("kept"); n != 1 {
			t.Errorf("rows = %d, want 1", n)
		}
	})

	t.Run("rollback discards", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx() error = %v", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tx_probe (note) VALUES (?)", "discarded"); err != nil {
			t.Fatalf("insert rows: %v", err)
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Rollback() error = %v", err)
		}
		if n := countNotes("discarded"); n != 0 {
			t.Errorf("rows = %d, want 0", n)
		}
	})
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1 (single SQLite writer)", got)
	}
}
