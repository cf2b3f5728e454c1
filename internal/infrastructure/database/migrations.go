package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

// MigrationFiles is the embedded filesystem holding the SQL migration
// files. The migrations package sets it from an init function so the
// schema ships inside the binary.
var MigrationFiles embed.FS

// MigrationRoot is the directory within MigrationFiles containing the
// migration files. "." when the files sit at the root of the FS.
var MigrationRoot = "migrations"

// Migration is one schema change, loaded from a pair of SQL files named
// VERSION_name.up.sql / VERSION_name.down.sql where VERSION is
// YYYYMMDD_HHMMSS. The down file is optional; without one the migration
// cannot be rolled back.
type Migration struct {
	Version string // e.g. "20260815_120000"
	Name    string // e.g. "door_transitions"
	UpSQL   string
	DownSQL string
}

// MigrationRecord is one row of the schema_migrations bookkeeping table.
type MigrationRecord struct {
	Version   string
	AppliedAt time.Time
}

// Migrate applies every pending migration in version order.
//
// Each migration runs in its own transaction: when migration N fails,
// 1..N-1 stay committed, N rolls back, and N+1 onwards are not
// attempted. Re-running Migrate after fixing the failure resumes at N.
// Per-migration atomicity suits SQLite's single-writer model and makes
// the failing migration obvious in the returned error.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	available, err := readMigrations()
	if err != nil {
		return fmt.Errorf("load migration files: %w", err)
	}
	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	for _, mig := range pendingMigrations(available, applied) {
		if err := db.runMigration(ctx, mig); err != nil {
			return fmt.Errorf("migration %s (%s): %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

// MigrateDown rolls back the most recently applied migration. Intended
// for development and tests.
func (db *DB) MigrateDown(ctx context.Context) error {
	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}
	if len(applied) == 0 {
		return nil
	}
	version := applied[len(applied)-1].Version

	available, err := readMigrations()
	if err != nil {
		return fmt.Errorf("load migration files: %w", err)
	}
	i := slices.IndexFunc(available, func(mig Migration) bool { return mig.Version == version })
	if i < 0 {
		return fmt.Errorf("migration %s not found in the embedded filesystem", version)
	}
	target := available[i]
	if target.DownSQL == "" {
		return fmt.Errorf("migration %s cannot be rolled back: no down file", version)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, target.DownSQL); err != nil {
		return fmt.Errorf("run down SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", version); err != nil {
		return fmt.Errorf("delete migration record: %w", err)
	}
	return tx.Commit()
}

// GetMigrationStatus reports applied and pending migrations, for health
// surfaces and debugging.
func (db *DB) GetMigrationStatus(ctx context.Context) (applied []MigrationRecord, pending []Migration, err error) {
	applied, err = db.appliedMigrations(ctx)
	if err != nil {
		return nil, nil, err
	}
	available, err := readMigrations()
	if err != nil {
		return nil, nil, err
	}
	return applied, pendingMigrations(available, applied), nil
}

// pendingMigrations filters available down to the versions absent from
// applied, preserving order.
func pendingMigrations(available []Migration, applied []MigrationRecord) []Migration {
	done := make(map[string]struct{}, len(applied))
	for _, rec := range applied {
		done[rec.Version] = struct{}{}
	}

	var pending []Migration
	for _, mig := range available {
		if _, ok := done[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}
	return pending
}

func (db *DB) ensureMigrationsTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	return err
}

// appliedMigrations returns the applied migrations, oldest first.
func (db *DB) appliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := db.DB.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	var recs []MigrationRecord
	for rows.Next() {
		var rec MigrationRecord
		var at string
		if err := rows.Scan(&rec.Version, &at); err != nil {
			return nil, fmt.Errorf("decode migration row: %w", err)
		}
		rec.AppliedAt, _ = time.Parse(time.RFC3339, at) //nolint:errcheck // written by us in RFC3339
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// runMigration applies one migration and records it, atomically.
func (db *DB) runMigration(ctx context.Context, mig Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, mig.UpSQL); err != nil {
		return fmt.Errorf("run up SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		mig.Version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("mark migration applied: %w", err)
	}
	return tx.Commit()
}

// readMigrations reads all migration pairs from the embedded filesystem
// and returns them sorted oldest first. An unset filesystem or a missing
// directory yields no migrations rather than an error.
func readMigrations() ([]Migration, error) {
	if MigrationFiles == (embed.FS{}) {
		return nil, nil
	}

	entries, err := fs.ReadDir(MigrationFiles, MigrationRoot)
	if err != nil {
		return nil, nil
	}

	byVersion := make(map[string]*Migration)
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		version, name, up, ok := parseMigrationFile(ent.Name())
		if !ok {
			continue
		}

		sqlBytes, err := fs.ReadFile(MigrationFiles, path.Join(MigrationRoot, ent.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", ent.Name(), err)
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &Migration{Version: version}
			byVersion[version] = mig
		}
		if up {
			mig.Name = name
			mig.UpSQL = string(sqlBytes)
		} else {
			mig.DownSQL = string(sqlBytes)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		// A down file without a matching up file is ignored
		if mig.UpSQL == "" {
			continue
		}
		migrations = append(migrations, *mig)
	}

	slices.SortFunc(migrations, func(a, b Migration) int {
		return strings.Compare(a.Version, b.Version)
	})
	return migrations, nil
}

// parseMigrationFile splits a migration filename into version, name and
// direction. Files that do not match the VERSION_name.up.sql /
// VERSION_name.down.sql convention are skipped.
func parseMigrationFile(filename string) (version, name string, up, ok bool) {
	base, found := strings.CutSuffix(filename, ".sql")
	if !found {
		return "", "", false, false
	}

	if stem, isUp := strings.CutSuffix(base, ".up"); isUp {
		base, up = stem, true
	} else if stem, isDown := strings.CutSuffix(base, ".down"); isDown {
		base = stem
	} else {
		return "", "", false, false
	}

	// The version is the YYYYMMDD_HHMMSS prefix; the rest is the name.
	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 2 {
		return "", "", false, false
	}
	version = strings.Join(parts[:2], "_")
	name = base
	if len(parts) == 3 {
		name = parts[2]
	}
	return version, name, up, true
}
