// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/progress"
	"github.com/classpulse/insight-engine/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ASSIGNMENT ROSTER QUERY
// Ростер задания для дашборда учителя: уровень понимания каждого студента,
// выведенный совместно из балла и доли подсказок. Презентационная
// классификация — инсайтов не создаёт и не мутирует.
// ══════════════════════════════════════════════════════════════════════════════

// GetAssignmentRosterQuery содержит параметры запроса ростера.
type GetAssignmentRosterQuery struct {
	// AssignmentID - ID задания.
	AssignmentID string
}

// Validate проверяет корректность запроса.
func (q GetAssignmentRosterQuery) Validate() error {
	if q.AssignmentID == "" {
		return errors.New("get_assignment_roster: assignment_id is required")
	}
	return nil
}

// RosterRow представляет одну строку ростера.
type RosterRow struct {
	// StudentID - ID студента.
	StudentID string `json:"student_id"`

	// DisplayName - отображаемое имя студента.
	DisplayName string `json:"display_name"`

	// Understanding - уровень понимания (strong/developing/needs_support).
	Understanding insight.UnderstandingLevel `json:"understanding"`

	// Completed - текущий цикл задания завершён.
	Completed bool `json:"completed"`

	// EverCompleted - студент хоть раз завершал задание (признак
	// переживает переназначение; им пользуется проверка архива).
	EverCompleted bool `json:"ever_completed"`

	// Attempts - количество попыток.
	Attempts int `json:"attempts"`

	// Score - балл текущего цикла (nil до завершения).
	Score *float64 `json:"score,omitempty"`

	// HighestScore - лучший балл за всё время.
	HighestScore *float64 `json:"highest_score,omitempty"`

	// HintUsageRate - доля вопросов с подсказками (0-1).
	HintUsageRate float64 `json:"hint_usage_rate"`

	// ActiveInsightCount - количество активных инсайтов по паре.
	ActiveInsightCount int `json:"active_insight_count"`
}

// GetAssignmentRosterResult содержит результат запроса.
type GetAssignmentRosterResult struct {
	// AssignmentID - ID задания.
	AssignmentID string `json:"assignment_id"`

	// AssignmentTitle - название задания.
	AssignmentTitle string `json:"assignment_title"`

	// Rows - строки ростера: needs_support, затем developing, затем strong,
	// внутри уровня по имени.
	Rows []RosterRow `json:"rows"`

	// GeneratedAt - время построения.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetAssignmentRosterHandler обрабатывает запрос ростера.
type GetAssignmentRosterHandler struct {
	progressRepo progress.Repository
	insightRepo  insight.Repository
	rosterRepo   roster.Repository
	thresholds   insight.Thresholds
}

// NewGetAssignmentRosterHandler создаёт обработчик.
func NewGetAssignmentRosterHandler(
	progressRepo progress.Repository,
	insightRepo insight.Repository,
	rosterRepo roster.Repository,
	thresholds insight.Thresholds,
) *GetAssignmentRosterHandler {
	return &GetAssignmentRosterHandler{
		progressRepo: progressRepo,
		insightRepo:  insightRepo,
		rosterRepo:   rosterRepo,
		thresholds:   thresholds,
	}
}

// Handle выполняет запрос ростера.
func (h *GetAssignmentRosterHandler) Handle(ctx context.Context, q GetAssignmentRosterQuery) (*GetAssignmentRosterResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_assignment_roster: validation failed: %w", err)
	}

	assignment, err := h.rosterRepo.GetAssignment(ctx, q.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("get_assignment_roster: %w", err)
	}

	records, err := h.progressRepo.ListByAssignment(ctx, q.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("get_assignment_roster: list progress: %w", err)
	}

	active, err := h.insightRepo.Query(ctx, insight.Filter{
		AssignmentID: q.AssignmentID,
		Statuses:     insight.ActiveStatuses(),
	})
	if err != nil {
		return nil, fmt.Errorf("get_assignment_roster: query active insights: %w", err)
	}
	activeByStudent := make(map[string]int, len(active))
	for _, ins := range active {
		activeByStudent[ins.StudentID]++
	}

	rows := make([]RosterRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, h.buildRow(ctx, rec, assignment.QuestionCount, activeByStudent[rec.StudentID]))
	}

	sortRoster(rows)

	return &GetAssignmentRosterResult{
		AssignmentID:    assignment.ID,
		AssignmentTitle: assignment.Title,
		Rows:            rows,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

func (h *GetAssignmentRosterHandler) buildRow(ctx context.Context, rec *progress.Record, questionCount, activeCount int) RosterRow {
	row := RosterRow{
		StudentID:          rec.StudentID,
		DisplayName:        roster.UnknownStudentName,
		Attempts:           rec.Attempts,
		Score:              rec.Score,
		HighestScore:       rec.HighestScore,
		HintUsageRate:      rec.HintUsageRate(questionCount).Float(),
		ActiveInsightCount: activeCount,
		EverCompleted:      rec.HasEverCompleted(),
	}

	if stud, err := h.rosterRepo.GetStudent(ctx, rec.StudentID); err == nil {
		row.DisplayName = stud.DisplayName
	}

	// Уровень выводится совместно из балла и доли подсказок — никогда
	// из одного измерения. Без завершённого балла студент числится
	// developing с completed=false.
	if rec.IsCompleted() && rec.Score != nil {
		row.Completed = true
		row.Understanding = h.thresholds.ClassifyUnderstanding(*rec.Score, row.HintUsageRate)
	} else {
		row.Understanding = insight.UnderstandingDeveloping
	}

	return row
}

// sortRoster сортирует строки: нуждающиеся в поддержке первыми, внутри
// уровня по имени.
func sortRoster(rows []RosterRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Understanding.Rank() != rows[j].Understanding.Rank() {
			return rows[i].Understanding.Rank() < rows[j].Understanding.Rank()
		}
		return rows[i].DisplayName < rows[j].DisplayName
	})
}
