package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/classpulse/insight-engine/internal/domain/action"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEACHER ACTION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const actionColumns = `id, insight_id, teacher_id, action_type, note,
	message_to_student, created_at`

// ActionRepository implements action.Repository for PostgreSQL.
type ActionRepository struct {
	conn   *Connection
	logger *slog.Logger
}

// NewActionRepository creates a new ActionRepository.
func NewActionRepository(conn *Connection, logger *slog.Logger) *ActionRepository {
	return &ActionRepository{
		conn:   conn,
		logger: logger.With("component", "postgres_action_repo"),
	}
}

// Save upserts a teacher action by ID.
func (r *ActionRepository) Save(ctx context.Context, act *action.TeacherAction) error {
	if act == nil {
		return shared.NewDomainError("action", "Save", shared.ErrInvalidInput, "teacher action is nil")
	}

	query := `
		INSERT INTO teacher_actions (
			id, insight_id, teacher_id, action_type, note, message_to_student, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			note = EXCLUDED.note,
			message_to_student = EXCLUDED.message_to_student
	`

	_, err := r.conn.Exec(ctx, query,
		act.ID,
		act.InsightID,
		act.TeacherID,
		string(act.Type),
		act.Note,
		act.MessageToStudent,
		act.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save teacher action: %w", err)
	}

	return nil
}

// GetByID returns the action with the given ID.
func (r *ActionRepository) GetByID(ctx context.Context, id string) (*action.TeacherAction, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_actions WHERE id = $1", actionColumns)

	act, err := scanAction(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrActionNotFound
		}
		return nil, err
	}
	return act, nil
}

// GetByInsight returns actions anchored to the insight, newest first.
func (r *ActionRepository) GetByInsight(ctx context.Context, insightID string) ([]*action.TeacherAction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM teacher_actions
		WHERE insight_id = $1
		ORDER BY created_at DESC
	`, actionColumns)

	return r.queryActions(ctx, query, insightID)
}

// GetByTeacher returns actions of the teacher, newest first.
func (r *ActionRepository) GetByTeacher(ctx context.Context, teacherID string) ([]*action.TeacherAction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM teacher_actions
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`, actionColumns)

	return r.queryActions(ctx, query, teacherID)
}

// GetRecent returns the latest actions across all teachers, newest first.
func (r *ActionRepository) GetRecent(ctx context.Context, limit int) ([]*action.TeacherAction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s FROM teacher_actions
		ORDER BY created_at DESC
		LIMIT $1
	`, actionColumns)

	return r.queryActions(ctx, query, limit)
}

func (r *ActionRepository) queryActions(ctx context.Context, query string, args ...interface{}) ([]*action.TeacherAction, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teacher actions: %w", err)
	}
	defer rows.Close()

	actions := make([]*action.TeacherAction, 0)
	for rows.Next() {
		act, err := scanAction(rows)
		if err != nil {
			if shared.IsCorrupt(err) {
				r.logger.Warn("skipping corrupt teacher action row", "error", err)
				continue
			}
			return nil, err
		}
		actions = append(actions, act)
	}
	return actions, rows.Err()
}

func scanAction(row pgx.Row) (*action.TeacherAction, error) {
	var (
		act        action.TeacherAction
		actionType string
	)

	err := row.Scan(
		&act.ID,
		&act.InsightID,
		&act.TeacherID,
		&actionType,
		&act.Note,
		&act.MessageToStudent,
		&act.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	act.Type = action.Type(actionType)
	if !act.Type.IsValid() {
		return nil, shared.WrapError("action", "Scan", shared.ErrCorruptRecord,
			fmt.Sprintf("teacher action %s has invalid type %q", act.ID, actionType), nil)
	}

	return &act, nil
}
