package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/classpulse/insight-engine/internal/domain/badge"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const badgeColumns = `id, student_id, badge_type, message, assignment_id, issued_at`

// BadgeRepository implements badge.Repository for PostgreSQL.
type BadgeRepository struct {
	conn *Connection
}

// NewBadgeRepository creates a new BadgeRepository.
func NewBadgeRepository(conn *Connection) *BadgeRepository {
	return &BadgeRepository{conn: conn}
}

// Save upserts a badge by ID.
func (r *BadgeRepository) Save(ctx context.Context, b *badge.Badge) error {
	if b == nil {
		return shared.NewDomainError("badge", "Save", shared.ErrInvalidInput, "badge is nil")
	}

	query := `
		INSERT INTO badges (id, student_id, badge_type, message, assignment_id, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			message = EXCLUDED.message
	`

	_, err := r.conn.Exec(ctx, query,
		b.ID, b.StudentID, string(b.Type), b.Message, b.AssignmentID, b.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save badge: %w", err)
	}
	return nil
}

// GetByID returns the badge with the given ID.
func (r *BadgeRepository) GetByID(ctx context.Context, id string) (*badge.Badge, error) {
	query := fmt.Sprintf("SELECT %s FROM badges WHERE id = $1", badgeColumns)

	b, err := scanBadge(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrBadgeNotFound
		}
		return nil, err
	}
	return b, nil
}

// GetByStudent returns the badges of the student, newest first.
func (r *BadgeRepository) GetByStudent(ctx context.Context, studentID string) ([]*badge.Badge, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM badges
		WHERE student_id = $1
		ORDER BY issued_at DESC
	`, badgeColumns)

	return r.queryBadges(ctx, query, studentID)
}

// GetRecent returns the latest issued badges, newest first.
func (r *BadgeRepository) GetRecent(ctx context.Context, limit int) ([]*badge.Badge, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s FROM badges
		ORDER BY issued_at DESC
		LIMIT $1
	`, badgeColumns)

	return r.queryBadges(ctx, query, limit)
}

func (r *BadgeRepository) queryBadges(ctx context.Context, query string, args ...interface{}) ([]*badge.Badge, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	badges := make([]*badge.Badge, 0)
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func scanBadge(row pgx.Row) (*badge.Badge, error) {
	var (
		b         badge.Badge
		badgeType string
	)

	err := row.Scan(
		&b.ID, &b.StudentID, &badgeType, &b.Message, &b.AssignmentID, &b.IssuedAt,
	)
	if err != nil {
		return nil, err
	}

	// Unknown stored types degrade to the default rather than fail the read.
	b.Type = badge.CoerceType(badgeType)
	return &b, nil
}
