package door

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupHistoryTestDB creates an in-memory SQLite database with the
// door_transitions table.
func setupHistoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE door_transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			door_id TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			op TEXT NOT NULL,
			fault TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE INDEX idx_door_transitions_door ON door_transitions(door_id, created_at DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// insertTransitionRow inserts a transition with a specific timestamp.
func insertTransitionRow(t *testing.T, db *sql.DB, doorID, from, to, op string, createdAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO door_transitions (door_id, from_state, to_state, op, fault, created_at) VALUES (?, ?, ?, ?, '', ?)",
		doorID,
		from,
		to,
		op,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("failed to insert transition row: %v", err)
	}
}

func TestRecordTransition(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteHistoryRepository(db)
	ctx := context.Background()

	rec := TransitionRecord{
		DoorID:    "front",
		FromState: "closed_locked",
		ToState:   "opening",
		Op:        OpOpen,
	}
	if err := repo.RecordTransition(ctx, rec); err != nil {
		t.Fatalf("RecordTransition() error = %v", err)
	}

	records, err := repo.GetHistory(ctx, "front", 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records length = %d, want 1", len(records))
	}

	got := records[0]
	if got.DoorID != "front" {
		t.Errorf("DoorID = %q, want %q", got.DoorID, "front")
	}
	if got.FromState != "closed_locked" {
		t.Errorf("FromState = %q, want %q", got.FromState, "closed_locked")
	}
	if got.ToState != "opening" {
		t.Errorf("ToState = %q, want %q", got.ToState, "opening")
	}
	if got.Op != OpOpen {
		t.Errorf("Op = %q, want %q", got.Op, OpOpen)
	}
	if got.Fault != "" {
		t.Errorf("Fault = %q, want empty", got.Fault)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, want non-zero")
	}
}

func TestRecordTransition_Validation(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteHistoryRepository(db)
	ctx := context.Background()

	if err := repo.RecordTransition(ctx, TransitionRecord{Op: OpOpen}); err == nil {
		t.Error("RecordTransition() without door id error = nil, want error")
	}
	if err := repo.RecordTransition(ctx, TransitionRecord{DoorID: "front"}); err == nil {
		t.Error("RecordTransition() without op error = nil, want error")
	}
}

func TestRecordTransition_Fault(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteHistoryRepository(db)
	ctx := context.Background()

	rec := TransitionRecord{
		DoorID:    "front",
		FromState: "closed_unlocked",
		ToState:   "error",
		Op:        OpOpen,
		Fault:     "door: hardware fault: extend: ram stuck",
	}
	if err := repo.RecordTransition(ctx, rec); err != nil {
		t.Fatalf("RecordTransition() error = %v", err)
	}

	records, err := repo.GetHistory(ctx, "front", 1)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records length = %d, want 1", len(records))
	}
	if records[0].Fault != rec.Fault {
		t.Errorf("Fault = %q, want %q", records[0].Fault, rec.Fault)
	}
}

func TestGetHistory_OrderAndLimit(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteHistoryRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertTransitionRow(t, db, "front", "closed_locked", "opening", OpOpen, now.Add(-2*time.Hour))
	insertTransitionRow(t, db, "front", "opening", "closed_unlocked", OpOpen, now.Add(-1*time.Hour))
	insertTransitionRow(t, db, "front", "closed_unlocked", "open", OpOpen, now)
	insertTransitionRow(t, db, "rear", "closed_locked", "opening", OpOpen, now)

	records, err := repo.GetHistory(ctx, "front", 2)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records length = %d, want 2", len(records))
	}
	if !records[0].CreatedAt.Equal(now) {
		t.Errorf("records[0].CreatedAt = %s, want %s", records[0].CreatedAt, now)
	}
	if !records[1].CreatedAt.Equal(now.Add(-1 * time.Hour)) {
		t.Errorf("records[1].CreatedAt = %s, want %s", records[1].CreatedAt, now.Add(-1*time.Hour))
	}
}

func TestGetHistory_DefaultLimit(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteHistoryRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		insertTransitionRow(t, db, "front", "closed_locked", "opening", OpOpen, now.Add(time.Duration(-i)*time.Minute))
	}

	records, err := repo.GetHistory(ctx, "front", 0)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("records length = %d, want 3", len(records))
	}

	if _, err := repo.GetHistory(ctx, "", 10); err == nil {
		t.Error("GetHistory() without door id error = nil, want error")
	}
}

func TestPrune(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteHistoryRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertTransitionRow(t, db, "front", "closed_locked", "opening", OpOpen, now.Add(-40*24*time.Hour))
	insertTransitionRow(t, db, "front", "opening", "open", OpOpen, now.Add(-12*time.Hour))

	deleted, err := repo.Prune(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	records, err := repo.GetHistory(ctx, "front", 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records length = %d, want 1", len(records))
	}

	if _, err := repo.Prune(ctx, 0); err == nil {
		t.Error("Prune(0) error = nil, want error")
	}
}
