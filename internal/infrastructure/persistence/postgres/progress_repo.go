package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/classpulse/insight-engine/internal/domain/progress"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const progressColumns = `student_id, assignment_id, attempts, current_attempt,
	score, highest_score, total_time_spent_seconds, hints_used,
	coach_session_count, started_at, first_completed_at, last_completed_at`

// ProgressRepository implements progress.Repository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// Load returns the progress record of the pair.
func (r *ProgressRepository) Load(ctx context.Context, studentID, assignmentID string) (*progress.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM progress_records
		WHERE student_id = $1 AND assignment_id = $2
	`, progressColumns)

	rec, err := scanProgress(r.conn.QueryRow(ctx, query, studentID, assignmentID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Save upserts a record by its composite key.
func (r *ProgressRepository) Save(ctx context.Context, rec *progress.Record) error {
	if rec == nil {
		return shared.NewDomainError("progress", "Save", shared.ErrInvalidInput, "progress record is nil")
	}

	query := `
		INSERT INTO progress_records (
			student_id, assignment_id, attempts, current_attempt, score,
			highest_score, total_time_spent_seconds, hints_used,
			coach_session_count, started_at, first_completed_at, last_completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (student_id, assignment_id) DO UPDATE SET
			attempts = EXCLUDED.attempts,
			current_attempt = EXCLUDED.current_attempt,
			score = EXCLUDED.score,
			highest_score = EXCLUDED.highest_score,
			total_time_spent_seconds = EXCLUDED.total_time_spent_seconds,
			hints_used = EXCLUDED.hints_used,
			coach_session_count = EXCLUDED.coach_session_count,
			started_at = EXCLUDED.started_at,
			first_completed_at = EXCLUDED.first_completed_at,
			last_completed_at = EXCLUDED.last_completed_at
	`

	_, err := r.conn.Exec(ctx, query,
		rec.StudentID,
		rec.AssignmentID,
		rec.Attempts,
		rec.CurrentAttempt,
		rec.Score,
		rec.HighestScore,
		rec.TotalTimeSpentSeconds,
		rec.HintsUsed,
		rec.CoachSessionCount,
		rec.StartedAt,
		rec.FirstCompletedAt,
		rec.LastCompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress record: %w", err)
	}

	return nil
}

// ListByAssignment returns all progress records of the assignment.
func (r *ProgressRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]*progress.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM progress_records
		WHERE assignment_id = $1
		ORDER BY student_id
	`, progressColumns)

	return r.queryProgress(ctx, query, assignmentID)
}

// ListByStudent returns all progress records of the student.
func (r *ProgressRepository) ListByStudent(ctx context.Context, studentID string) ([]*progress.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM progress_records
		WHERE student_id = $1
		ORDER BY assignment_id
	`, progressColumns)

	return r.queryProgress(ctx, query, studentID)
}

func (r *ProgressRepository) queryProgress(ctx context.Context, query string, args ...interface{}) ([]*progress.Record, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress records: %w", err)
	}
	defer rows.Close()

	records := make([]*progress.Record, 0)
	for rows.Next() {
		rec, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanProgress(row pgx.Row) (*progress.Record, error) {
	var rec progress.Record

	err := row.Scan(
		&rec.StudentID,
		&rec.AssignmentID,
		&rec.Attempts,
		&rec.CurrentAttempt,
		&rec.Score,
		&rec.HighestScore,
		&rec.TotalTimeSpentSeconds,
		&rec.HintsUsed,
		&rec.CoachSessionCount,
		&rec.StartedAt,
		&rec.FirstCompletedAt,
		&rec.LastCompletedAt,
	)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}
