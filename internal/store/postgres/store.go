package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/api"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/dispatcher"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/domain"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/janitor"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/scheduler"
)

// Store implements the schedule store and history log on PostgreSQL.
// Both collections live in this one store because every consumer shares the
// same database; per-id atomicity comes from Postgres row locking.
type Store struct {
	db        *sql.DB
	opTimeout time.Duration
}

// New creates a store. opTimeout bounds every individual operation;
// zero disables the bound.
func New(db *sql.DB, opTimeout time.Duration) *Store {
	return &Store{db: db, opTimeout: opTimeout}
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// CreateSchedule inserts a new schedule record.
func (s *Store) CreateSchedule(ctx context.Context, sched domain.Schedule) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, queryInsertSchedule,
		sched.ID,
		sched.Title,
		sched.Body,
		sched.Topic,
		sched.Image,
		sched.SendAt,
		sched.Sent,
		sched.CreatedAt,
		sched.UpdatedAt,
	)
	return err
}

// GetSchedule returns a schedule by id. Returns sql.ErrNoRows when absent.
func (s *Store) GetSchedule(ctx context.Context, id uuid.UUID) (domain.Schedule, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var sched domain.Schedule
	err := s.db.QueryRowContext(ctx, queryGetSchedule, id).Scan(
		&sched.ID,
		&sched.Title,
		&sched.Body,
		&sched.Topic,
		&sched.Image,
		&sched.SendAt,
		&sched.Sent,
		&sched.CreatedAt,
		&sched.UpdatedAt,
	)
	if err != nil {
		return domain.Schedule{}, err
	}
	sched.SendAt = sched.SendAt.UTC()
	return sched, nil
}

// ListSchedules returns every schedule record.
func (s *Store) ListSchedules(ctx context.Context) ([]domain.Schedule, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryListSchedules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Schedule
	for rows.Next() {
		var sched domain.Schedule
		err := rows.Scan(
			&sched.ID,
			&sched.Title,
			&sched.Body,
			&sched.Topic,
			&sched.Image,
			&sched.SendAt,
			&sched.Sent,
			&sched.CreatedAt,
			&sched.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		sched.SendAt = sched.SendAt.UTC()
		result = append(result, sched)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateSchedule replaces the mutable fields of a schedule and resets its
// sent flag. Returns sql.ErrNoRows when the id does not exist.
func (s *Store) UpdateSchedule(ctx context.Context, sched domain.Schedule) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, queryUpdateSchedule,
		sched.ID,
		sched.Title,
		sched.Body,
		sched.Topic,
		sched.Image,
		sched.SendAt,
		sched.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteSchedule removes a schedule by id.
// Returns sql.ErrNoRows when nothing was deleted; callers that need
// idempotent semantics treat that as success.
func (s *Store) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var deletedID uuid.UUID
	err := s.db.QueryRowContext(ctx, queryDeleteSchedule, id).Scan(&deletedID)
	if err != nil {
		return err
	}
	return nil
}

// MarkSent flips sent=true exactly once. The WHERE sent=false guard makes
// the write a compare-and-swap: a schedule that an API edit just reset is
// not flipped by a stale dispatch, and a second dispatch of the same
// schedule is impossible. Postgres acquires the row lock before evaluating
// the WHERE clause, so concurrent callers serialize.
func (s *Store) MarkSent(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, queryMarkSent, id, time.Now().UTC())
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Either: (a) schedule not found, or (b) already sent.
		// Distinguish by checking if the row exists.
		var sent bool
		err := s.db.QueryRowContext(ctx, queryGetSentFlag, id).Scan(&sent)
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		if err != nil {
			return err
		}
		return scheduler.ErrAlreadySent
	}

	return nil
}

// AppendHistory inserts an immutable history entry. There is no update or
// delete path for history anywhere in this store.
func (s *Store) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, queryInsertHistory,
		entry.ID,
		entry.Title,
		entry.Body,
		entry.Topic,
		entry.Image,
		string(entry.Type),
		entry.OccurredAt,
		entry.CreatedAt,
	)
	return err
}

// ListHistory returns up to limit entries, most recently appended first.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryListHistory, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		var typ string
		err := rows.Scan(
			&entry.ID,
			&entry.Title,
			&entry.Body,
			&entry.Topic,
			&entry.Image,
			&typ,
			&entry.OccurredAt,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entry.Type = domain.HistoryType(typ)
		entry.OccurredAt = entry.OccurredAt.UTC()
		result = append(result, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteSentBefore removes at most limit sent schedules whose terminal write
// is older than cutoff. History entries are untouched.
func (s *Store) DeleteSentBefore(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, queryDeleteSentBefore, cutoff, limit)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

// Compile-time interface assertions
var (
	_ scheduler.Store         = (*Store)(nil)
	_ dispatcher.HistoryStore = (*Store)(nil)
	_ api.Store               = (*Store)(nil)
	_ janitor.Store           = (*Store)(nil)
)
