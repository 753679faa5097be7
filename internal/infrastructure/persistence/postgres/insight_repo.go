package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INSIGHT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const insightColumns = `id, student_id, assignment_id, class_id, subject,
	insight_type, priority, confidence, summary, evidence, suggested_actions,
	status, created_at, reviewed_at, reviewed_by`

// InsightRepository implements insight.Repository for PostgreSQL.
// List queries skip rows that fail rehydration and log them, so one
// corrupt record never takes down a whole dashboard read.
type InsightRepository struct {
	conn   *Connection
	logger *slog.Logger
}

// NewInsightRepository creates a new InsightRepository.
func NewInsightRepository(conn *Connection, logger *slog.Logger) *InsightRepository {
	return &InsightRepository{
		conn:   conn,
		logger: logger.With("component", "postgres_insight_repo"),
	}
}

// Save upserts an insight by ID.
func (r *InsightRepository) Save(ctx context.Context, ins *insight.Insight) error {
	if ins == nil {
		return shared.NewDomainError("insight", "Save", shared.ErrInvalidInput, "insight is nil")
	}

	evidenceJSON, err := json.Marshal(stringList(ins.Evidence))
	if err != nil {
		return fmt.Errorf("failed to marshal evidence: %w", err)
	}
	actionsJSON, err := json.Marshal(stringList(ins.SuggestedActions))
	if err != nil {
		return fmt.Errorf("failed to marshal suggested actions: %w", err)
	}

	query := `
		INSERT INTO insights (
			id, student_id, assignment_id, class_id, subject,
			insight_type, priority, confidence, summary, evidence,
			suggested_actions, status, created_at, reviewed_at, reviewed_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			reviewed_at = EXCLUDED.reviewed_at,
			reviewed_by = EXCLUDED.reviewed_by,
			summary = EXCLUDED.summary,
			evidence = EXCLUDED.evidence,
			suggested_actions = EXCLUDED.suggested_actions,
			priority = EXCLUDED.priority,
			confidence = EXCLUDED.confidence
	`

	_, err = r.conn.Exec(ctx, query,
		string(ins.ID),
		ins.StudentID,
		ins.AssignmentID,
		ins.ClassID,
		ins.Subject,
		string(ins.Type),
		string(ins.Priority),
		ins.Confidence,
		ins.Summary,
		evidenceJSON,
		actionsJSON,
		string(ins.Status),
		ins.CreatedAt,
		ins.ReviewedAt,
		ins.ReviewedBy,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrDuplicateActiveInsight
		}
		return fmt.Errorf("failed to save insight: %w", err)
	}

	return nil
}

// Load returns the insight with the given ID.
func (r *InsightRepository) Load(ctx context.Context, id insight.InsightID) (*insight.Insight, error) {
	query := fmt.Sprintf("SELECT %s FROM insights WHERE id = $1", insightColumns)

	row := r.conn.QueryRow(ctx, query, string(id))
	ins, err := scanInsight(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrInsightNotFound
		}
		return nil, err
	}
	return ins, nil
}

// Query returns insights matching the filter in default order.
func (r *InsightRepository) Query(ctx context.Context, filter insight.Filter) ([]*insight.Insight, error) {
	query, args := buildInsightQuery(filter)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	return r.collectRows(rows)
}

// FindActiveByTriple returns the active insight for (student, assignment, type),
// or nil when none exists.
func (r *InsightRepository) FindActiveByTriple(
	ctx context.Context,
	studentID, assignmentID string,
	t insight.Type,
) (*insight.Insight, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM insights
		WHERE student_id = $1 AND assignment_id = $2 AND insight_type = $3
		  AND status IN ('pending_review', 'monitoring')
		LIMIT 1
	`, insightColumns)

	row := r.conn.QueryRow(ctx, query, studentID, assignmentID, string(t))
	ins, err := scanInsight(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return ins, nil
}

// FindActiveByStudentAssignment returns all active insights of the pair.
func (r *InsightRepository) FindActiveByStudentAssignment(
	ctx context.Context,
	studentID, assignmentID string,
) ([]*insight.Insight, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM insights
		WHERE student_id = $1 AND assignment_id = $2
		  AND status IN ('pending_review', 'monitoring')
		ORDER BY %s
	`, insightColumns, insightDefaultOrder)

	rows, err := r.conn.Query(ctx, query, studentID, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active insights: %w", err)
	}
	defer rows.Close()

	return r.collectRows(rows)
}

func (r *InsightRepository) collectRows(rows pgx.Rows) ([]*insight.Insight, error) {
	insights := make([]*insight.Insight, 0)
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			if shared.IsCorrupt(err) {
				r.logger.Warn("skipping corrupt insight row", "error", err)
				continue
			}
			return nil, err
		}
		insights = append(insights, ins)
	}
	return insights, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Query building
// ─────────────────────────────────────────────────────────────────────────────

// insightDefaultOrder mirrors insight.SortDefault: priority rank desc,
// type rank desc, confidence desc.
const insightDefaultOrder = `
	CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC,
	CASE insight_type
		WHEN 'check_in' THEN 4
		WHEN 'celebrate_progress' THEN 3
		WHEN 'challenge_opportunity' THEN 2
		ELSE 1
	END DESC,
	confidence DESC,
	created_at ASC`

func buildInsightQuery(filter insight.Filter) (string, []interface{}) {
	conditions := make([]string, 0)
	args := make([]interface{}, 0)

	addCondition := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.StudentID != "" {
		addCondition("student_id = $%d", filter.StudentID)
	}
	if filter.ClassID != "" {
		addCondition("class_id = $%d", filter.ClassID)
	}
	if filter.AssignmentID != "" {
		addCondition("assignment_id = $%d", filter.AssignmentID)
	}
	if filter.Subject != "" {
		addCondition("subject = $%d", filter.Subject)
	}
	if len(filter.Types) > 0 {
		addCondition("insight_type = ANY($%d)", typeStrings(filter.Types))
	}
	if len(filter.Priorities) > 0 {
		addCondition("priority = ANY($%d)", priorityStrings(filter.Priorities))
	}
	if len(filter.Statuses) > 0 {
		addCondition("status = ANY($%d)", statusStrings(filter.Statuses))
	}
	if filter.MinConfidence > 0 {
		addCondition("confidence >= $%d", filter.MinConfidence)
	}
	if !filter.CreatedAfter.IsZero() {
		addCondition("created_at >= $%d", filter.CreatedAfter)
	}
	if !filter.CreatedBefore.IsZero() {
		addCondition("created_at <= $%d", filter.CreatedBefore)
	}
	if filter.ReviewedBy != "" {
		addCondition("reviewed_by = $%d", filter.ReviewedBy)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("SELECT %s FROM insights", insightColumns))
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(insightDefaultOrder)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	return sb.String(), args
}

// ─────────────────────────────────────────────────────────────────────────────
// Row scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanInsight(row pgx.Row) (*insight.Insight, error) {
	var (
		ins          insight.Insight
		id           string
		insightType  string
		priority     string
		status       string
		evidenceJSON []byte
		actionsJSON  []byte
		reviewedAt   *time.Time
	)

	err := row.Scan(
		&id,
		&ins.StudentID,
		&ins.AssignmentID,
		&ins.ClassID,
		&ins.Subject,
		&insightType,
		&priority,
		&ins.Confidence,
		&ins.Summary,
		&evidenceJSON,
		&actionsJSON,
		&status,
		&ins.CreatedAt,
		&reviewedAt,
		&ins.ReviewedBy,
	)
	if err != nil {
		return nil, err
	}

	ins.ID = insight.InsightID(id)
	ins.Type = insight.Type(insightType)
	ins.Priority = insight.Priority(priority)
	ins.Status = insight.Status(status)
	ins.ReviewedAt = reviewedAt

	if !ins.Type.IsValid() || !ins.Priority.IsValid() || !ins.Status.IsValid() {
		return nil, shared.WrapError("insight", "Scan", shared.ErrCorruptRecord,
			fmt.Sprintf("insight %s has invalid enum values", id), nil)
	}
	if err := json.Unmarshal(evidenceJSON, &ins.Evidence); err != nil {
		return nil, shared.WrapError("insight", "Scan", shared.ErrCorruptRecord,
			fmt.Sprintf("insight %s has malformed evidence", id), err)
	}
	if err := json.Unmarshal(actionsJSON, &ins.SuggestedActions); err != nil {
		return nil, shared.WrapError("insight", "Scan", shared.ErrCorruptRecord,
			fmt.Sprintf("insight %s has malformed suggested actions", id), err)
	}

	return &ins, nil
}

// stringList normalizes a nil slice to an empty one so the stored JSON is
// always an array.
func stringList(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func typeStrings(list []insight.Type) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = string(v)
	}
	return out
}

func priorityStrings(list []insight.Priority) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = string(v)
	}
	return out
}

func statusStrings(list []insight.Status) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = string(v)
	}
	return out
}
