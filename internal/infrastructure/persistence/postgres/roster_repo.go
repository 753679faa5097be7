package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/classpulse/insight-engine/internal/domain/roster"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER REPOSITORY IMPLEMENTATION
// Students, assignments and classes share one repository: the engine reads
// them together and only ever writes student note appends.
// ══════════════════════════════════════════════════════════════════════════════

// RosterRepository implements roster.Repository for PostgreSQL.
type RosterRepository struct {
	conn *Connection
}

// NewRosterRepository creates a new RosterRepository.
func NewRosterRepository(conn *Connection) *RosterRepository {
	return &RosterRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

// GetStudent returns the student with the given ID.
func (r *RosterRepository) GetStudent(ctx context.Context, id string) (*roster.Student, error) {
	query := `
		SELECT id, display_name, class_id, notes, active, created_at, updated_at
		FROM students
		WHERE id = $1
	`

	s, err := scanStudent(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, err
	}
	return s, nil
}

// SaveStudent upserts a student by ID.
func (r *RosterRepository) SaveStudent(ctx context.Context, s *roster.Student) error {
	if s == nil {
		return shared.NewDomainError("roster", "SaveStudent", shared.ErrInvalidInput, "student is nil")
	}

	query := `
		INSERT INTO students (id, display_name, class_id, notes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			class_id = EXCLUDED.class_id,
			notes = EXCLUDED.notes,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID, s.DisplayName, s.ClassID, s.Notes, s.Active, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save student: %w", err)
	}
	return nil
}

// ListStudentsByClass returns the students of the class ordered by name.
func (r *RosterRepository) ListStudentsByClass(ctx context.Context, classID string) ([]*roster.Student, error) {
	query := `
		SELECT id, display_name, class_id, notes, active, created_at, updated_at
		FROM students
		WHERE class_id = $1
		ORDER BY display_name
	`

	rows, err := r.conn.Query(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := make([]*roster.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Assignments
// ─────────────────────────────────────────────────────────────────────────────

// GetAssignment returns the assignment with the given ID.
func (r *RosterRepository) GetAssignment(ctx context.Context, id string) (*roster.Assignment, error) {
	query := `
		SELECT id, class_id, title, subject, question_count, archived, created_at
		FROM assignments
		WHERE id = $1
	`

	var a roster.Assignment
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.ClassID, &a.Title, &a.Subject, &a.QuestionCount, &a.Archived, &a.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

// SaveAssignment upserts an assignment by ID.
func (r *RosterRepository) SaveAssignment(ctx context.Context, a *roster.Assignment) error {
	if a == nil {
		return shared.NewDomainError("roster", "SaveAssignment", shared.ErrInvalidInput, "assignment is nil")
	}

	query := `
		INSERT INTO assignments (id, class_id, title, subject, question_count, archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			class_id = EXCLUDED.class_id,
			title = EXCLUDED.title,
			subject = EXCLUDED.subject,
			question_count = EXCLUDED.question_count,
			archived = EXCLUDED.archived
	`

	_, err := r.conn.Exec(ctx, query,
		a.ID, a.ClassID, a.Title, a.Subject, a.QuestionCount, a.Archived, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Classes
// ─────────────────────────────────────────────────────────────────────────────

// GetClass returns the class with the given ID.
func (r *RosterRepository) GetClass(ctx context.Context, id string) (*roster.Class, error) {
	query := `SELECT id, name, teacher_id FROM classes WHERE id = $1`

	var c roster.Class
	err := r.conn.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.TeacherID)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrClassNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SaveClass upserts a class by ID.
func (r *RosterRepository) SaveClass(ctx context.Context, c *roster.Class) error {
	if c == nil {
		return shared.NewDomainError("roster", "SaveClass", shared.ErrInvalidInput, "class is nil")
	}

	query := `
		INSERT INTO classes (id, name, teacher_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			teacher_id = EXCLUDED.teacher_id
	`

	_, err := r.conn.Exec(ctx, query, c.ID, c.Name, c.TeacherID)
	if err != nil {
		return fmt.Errorf("failed to save class: %w", err)
	}
	return nil
}

func scanStudent(row pgx.Row) (*roster.Student, error) {
	var s roster.Student
	err := row.Scan(
		&s.ID, &s.DisplayName, &s.ClassID, &s.Notes, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
