package door

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite.
//
// It stores transitions in the door_transitions table; created_at is
// assigned by the database.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteHistoryRepository creates a new SQLite transition repository.
func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

// RecordTransition appends one transition record.
func (r *SQLiteHistoryRepository) RecordTransition(ctx context.Context, rec TransitionRecord) error {
	if rec.DoorID == "" {
		return fmt.Errorf("door id is required")
	}
	if rec.Op == "" {
		return fmt.Errorf("op is required")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO door_transitions (door_id, from_state, to_state, op, fault) VALUES (?, ?, ?, ?, ?)",
		rec.DoorID,
		rec.FromState,
		rec.ToState,
		rec.Op,
		rec.Fault,
	)
	if err != nil {
		return fmt.Errorf("inserting door transition: %w", err)
	}

	return nil
}

// GetHistory returns recent transitions for a door, ordered newest first.
// Limit defaults to 50 and is capped at 200.
func (r *SQLiteHistoryRepository) GetHistory(ctx context.Context, doorID string, limit int) ([]TransitionRecord, error) {
	if doorID == "" {
		return nil, fmt.Errorf("door id is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, door_id, from_state, to_state, op, fault, created_at
		 FROM door_transitions
		 WHERE door_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		doorID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying door transitions: %w", err)
	}
	defer rows.Close()

	records := make([]TransitionRecord, 0, limit)
	for rows.Next() {
		var rec TransitionRecord
		var createdAt string

		if err := rows.Scan(&rec.ID, &rec.DoorID, &rec.FromState, &rec.ToState, &rec.Op, &rec.Fault, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning door transition: %w", err)
		}

		timestamp, err := parseHistoryTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = timestamp

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating door transitions: %w", err)
	}

	return records, nil
}

// Prune deletes transitions older than the given duration.
// Returns the number of rows deleted.
func (r *SQLiteHistoryRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM door_transitions WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting door transitions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseHistoryTimestamp parses a timestamp stored in SQLite.
func parseHistoryTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02 15:04:05", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}
