package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classpulse/insight-engine/internal/domain/insight"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ARCHIVE READINESS QUERY
// Задание можно убрать в архив только когда по нему не осталось работы:
// ни одного pending_review инсайта, и у каждого завершившего задание
// студента уровня needs_support есть хотя бы один разрешённый инсайт.
// Иначе возвращается список человекочитаемых блокировок.
// ══════════════════════════════════════════════════════════════════════════════

// GetArchiveReadinessQuery содержит параметры проверки.
type GetArchiveReadinessQuery struct {
	// AssignmentID - ID задания.
	AssignmentID string
}

// Validate проверяет корректность запроса.
func (q GetArchiveReadinessQuery) Validate() error {
	if q.AssignmentID == "" {
		return errors.New("get_archive_readiness: assignment_id is required")
	}
	return nil
}

// GetArchiveReadinessResult содержит результат проверки.
type GetArchiveReadinessResult struct {
	// AssignmentID - ID задания.
	AssignmentID string `json:"assignment_id"`

	// Eligible - задание готово к архиву.
	Eligible bool `json:"eligible"`

	// Blockers - человекочитаемые причины, мешающие архивированию.
	Blockers []string `json:"blockers,omitempty"`

	// CheckedAt - время проверки.
	CheckedAt time.Time `json:"checked_at"`
}

// GetArchiveReadinessHandler обрабатывает проверку готовности к архиву.
type GetArchiveReadinessHandler struct {
	rosterHandler *GetAssignmentRosterHandler
	insightRepo   insight.Repository
}

// NewGetArchiveReadinessHandler создаёт обработчик.
func NewGetArchiveReadinessHandler(
	rosterHandler *GetAssignmentRosterHandler,
	insightRepo insight.Repository,
) *GetArchiveReadinessHandler {
	return &GetArchiveReadinessHandler{
		rosterHandler: rosterHandler,
		insightRepo:   insightRepo,
	}
}

// Handle выполняет проверку готовности задания к архиву.
func (h *GetArchiveReadinessHandler) Handle(ctx context.Context, q GetArchiveReadinessQuery) (*GetArchiveReadinessResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_archive_readiness: validation failed: %w", err)
	}

	result := &GetArchiveReadinessResult{
		AssignmentID: q.AssignmentID,
		CheckedAt:    time.Now().UTC(),
	}

	// Блокировка 1: непросмотренные инсайты.
	pending, err := h.insightRepo.Query(ctx, insight.Filter{
		AssignmentID: q.AssignmentID,
		Statuses:     []insight.Status{insight.StatusPendingReview},
	})
	if err != nil {
		return nil, fmt.Errorf("get_archive_readiness: query pending insights: %w", err)
	}
	if len(pending) > 0 {
		result.Blockers = append(result.Blockers,
			fmt.Sprintf("%d insight(s) still awaiting review", len(pending)))
	}

	// Блокировка 2: завершившие студенты needs_support без разрешённого
	// инсайта. "Завершил" здесь — firstCompletedAt: признак переживает
	// переназначение.
	rosterResult, err := h.rosterHandler.Handle(ctx, GetAssignmentRosterQuery{AssignmentID: q.AssignmentID})
	if err != nil {
		return nil, fmt.Errorf("get_archive_readiness: %w", err)
	}

	resolved, err := h.insightRepo.Query(ctx, insight.Filter{
		AssignmentID: q.AssignmentID,
		Statuses:     insight.ResolvedStatuses(),
	})
	if err != nil {
		return nil, fmt.Errorf("get_archive_readiness: query resolved insights: %w", err)
	}
	resolvedByStudent := make(map[string]bool, len(resolved))
	for _, ins := range resolved {
		resolvedByStudent[ins.StudentID] = true
	}

	for _, row := range rosterResult.Rows {
		if row.Understanding != insight.UnderstandingNeedsSupport || !row.EverCompleted {
			continue
		}
		if !resolvedByStudent[row.StudentID] {
			result.Blockers = append(result.Blockers,
				fmt.Sprintf("%s needs support but has no resolved insight", row.DisplayName))
		}
	}

	result.Eligible = len(result.Blockers) == 0
	return result, nil
}
