// Package database provides the SQLite store backing Door Core's
// transition history.
//
// The database holds the append-only audit trail of door state
// transitions. It is opened in WAL mode so history queries from the API
// do not block the controller writing transitions, with a busy timeout
// to ride out short lock contention and a single pooled connection
// because SQLite serialises writes regardless.
//
// Schema migrations are embedded in the binary (see the migrations
// package) as pairs of SQL files named
// VERSION_name.up.sql / VERSION_name.down.sql, where VERSION is a
// YYYYMMDD_HHMMSS timestamp. Migrate applies pending versions in order,
// each in its own transaction, and records them in schema_migrations.
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// All queries use parameterised statements, and the database file is
// restricted to owner read/write.
package database
