package door

import (
	"context"
	"time"
)

// TransitionRecord is one audited state transition or fault.
type TransitionRecord struct {
	ID        int64     `json:"id"`
	DoorID    string    `json:"door_id"`
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	Op        string    `json:"op"`
	Fault     string    `json:"fault,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRepository persists door transitions for audit. The audit trail
// is append-only; controller state is never restored from it.
type HistoryRepository interface {
	// RecordTransition appends one transition record.
	RecordTransition(ctx context.Context, rec TransitionRecord) error

	// GetHistory returns recent records for a door, newest first
	// (default 50, max 200).
	GetHistory(ctx context.Context, doorID string, limit int) ([]TransitionRecord, error)

	// Prune deletes records older than the given duration and returns
	// the number removed.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

const historyWriteTimeout = 5 * time.Second

// HistorySink records transition and fault events to a HistoryRepository.
// Warnings are not recorded. Write failures are logged and never
// propagate into the controller.
type HistorySink struct {
	repo   HistoryRepository
	logger Logger
}

// NewHistorySink creates a history sink backed by the given repository.
func NewHistorySink(repo HistoryRepository) *HistorySink {
	return &HistorySink{repo: repo, logger: noopLogger{}}
}

// SetLogger sets the logger for write-failure reporting.
func (s *HistorySink) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Emit appends the event to the audit trail.
func (s *HistorySink) Emit(ev Event) {
	if ev.Type == EventWarning {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	rec := TransitionRecord{
		DoorID:    ev.DoorID,
		FromState: ev.From.String(),
		ToState:   ev.To.String(),
		Op:        ev.Op,
		Fault:     ev.Err,
		CreatedAt: ev.At,
	}
	if err := s.repo.RecordTransition(ctx, rec); err != nil {
		s.logger.Error("recording door transition", "door_id", ev.DoorID, "op", ev.Op, "error", err)
	}
}
