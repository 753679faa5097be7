package workqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/progress"
	"github.com/classpulse/insight-engine/internal/domain/roster"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUEUE BUILDER
// Кандидаты — все pending_review инсайты системы либо срез по студенту,
// заданию или классу. Каждый инсайт обогащается отображаемыми именами и
// контекстом прогресса, затем очередь сортируется: срочность по
// возрастанию, приоритет по убыванию, далее стабильно.
// ══════════════════════════════════════════════════════════════════════════════

// Scope ограничивает набор кандидатов очереди. Нулевые поля не ограничивают.
type Scope struct {
	// StudentID - очередь одного студента.
	StudentID string

	// AssignmentID - очередь одного задания.
	AssignmentID string

	// ClassID - очередь одного класса.
	ClassID string

	// IncludeResolved - включать завершённые/отклонённые/истёкшие элементы
	// (для аналитики; очередь по умолчанию отдаёт только pending).
	IncludeResolved bool
}

// MinSupportGroupSize - сколько студентов с активными check_in/monitor
// инсайтами по одному заданию означают групповую, а не личную проблему.
const MinSupportGroupSize = 3

// Builder строит рабочую очередь учителя.
type Builder struct {
	insightRepo  insight.Repository
	progressRepo progress.Repository
	rosterRepo   roster.Repository
	thresholds   insight.Thresholds
	logger       *slog.Logger
}

// NewBuilder создаёт построитель очереди.
func NewBuilder(
	insightRepo insight.Repository,
	progressRepo progress.Repository,
	rosterRepo roster.Repository,
	thresholds insight.Thresholds,
	logger *slog.Logger,
) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		insightRepo:  insightRepo,
		progressRepo: progressRepo,
		rosterRepo:   rosterRepo,
		thresholds:   thresholds,
		logger:       logger,
	}
}

// Build возвращает отсортированную очередь элементов для среза.
func (b *Builder) Build(ctx context.Context, scope Scope) ([]*ActionableItem, error) {
	filter := insight.Filter{
		StudentID:    scope.StudentID,
		AssignmentID: scope.AssignmentID,
		ClassID:      scope.ClassID,
	}
	if !scope.IncludeResolved {
		filter.Statuses = []insight.Status{insight.StatusPendingReview}
	}

	candidates, err := b.insightRepo.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("workqueue: query candidates: %w", err)
	}

	items := make([]*ActionableItem, 0, len(candidates))
	for _, ins := range candidates {
		item, err := b.buildItem(ctx, ins)
		if err != nil {
			return nil, err
		}
		if !scope.IncludeResolved && !item.IsPending() {
			continue
		}
		items = append(items, item)
	}

	SortItems(items)
	return items, nil
}

// BuildItem строит один элемент очереди для инсайта.
func (b *Builder) BuildItem(ctx context.Context, id insight.InsightID) (*ActionableItem, error) {
	ins, err := b.insightRepo.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("workqueue: load insight: %w", err)
	}
	return b.buildItem(ctx, ins)
}

func (b *Builder) buildItem(ctx context.Context, ins *insight.Insight) (*ActionableItem, error) {
	item := &ActionableItem{
		InsightID:        ins.ID.String(),
		StudentID:        ins.StudentID,
		AssignmentID:     ins.AssignmentID,
		ClassID:          ins.ClassID,
		Type:             ins.Type,
		Priority:         ins.Priority,
		Urgency:          ins.Urgency(),
		Summary:          ins.Summary,
		Evidence:         ins.Evidence,
		SuggestedActions: ins.SuggestedActions,
		Status:           ItemStatusOf(ins.Status),
		CreatedAt:        ins.CreatedAt,
		ExpiresAt:        ins.ExpiryDeadline(),
	}

	b.joinDisplayNames(ctx, item)

	suggestion, err := b.refineSuggestion(ctx, ins)
	if err != nil {
		return nil, err
	}
	item.SuggestedActionType = suggestion

	return item, nil
}

// joinDisplayNames подставляет отображаемые имена; недоступные справочные
// записи заменяются фиксированными подстановками, элемент не пропадает.
func (b *Builder) joinDisplayNames(ctx context.Context, item *ActionableItem) {
	item.StudentName = roster.UnknownStudentName
	if stud, err := b.rosterRepo.GetStudent(ctx, item.StudentID); err == nil {
		item.StudentName = stud.DisplayName
	}

	item.AssignmentTitle = roster.GeneralPracticeTitle
	if item.AssignmentID != "" {
		if a, err := b.rosterRepo.GetAssignment(ctx, item.AssignmentID); err == nil {
			item.AssignmentTitle = a.Title
		}
	}

	item.ClassName = roster.UnassignedClassName
	if item.ClassID != "" {
		if c, err := b.rosterRepo.GetClass(ctx, item.ClassID); err == nil {
			item.ClassName = c.Name
		}
	}
}

// refineSuggestion уточняет рекомендуемый класс реакции. Порядок
// старшинства: переназначение при затяжном провале, групповая поддержка
// при массовой проблеме, иначе прямое соответствие типу.
func (b *Builder) refineSuggestion(ctx context.Context, ins *insight.Insight) (SuggestedActionType, error) {
	rec := b.loadProgress(ctx, ins)

	if ins.Type == insight.TypeCheckIn && rec != nil &&
		rec.Attempts > 2 && rec.Score != nil && *rec.Score < b.thresholds.StrugglingScore {
		return SuggestReassign, nil
	}

	if ins.Type == insight.TypeCheckIn || ins.Type == insight.TypeMonitor {
		struggling, err := b.countStrugglingStudents(ctx, ins.AssignmentID)
		if err != nil {
			return "", err
		}
		if struggling >= MinSupportGroupSize {
			return SuggestSupportGroup, nil
		}
	}

	return directSuggestion(ins.Type), nil
}

func (b *Builder) loadProgress(ctx context.Context, ins *insight.Insight) *progress.Record {
	if ins.AssignmentID == "" {
		return nil
	}
	rec, err := b.progressRepo.Load(ctx, ins.StudentID, ins.AssignmentID)
	if err != nil {
		if !shared.IsNotFound(err) {
			b.logger.Warn("failed to load progress for queue item",
				"student_id", ins.StudentID, "assignment_id", ins.AssignmentID, "error", err)
		}
		return nil
	}
	return rec
}

// countStrugglingStudents считает студентов с активными check_in/monitor
// инсайтами по заданию.
func (b *Builder) countStrugglingStudents(ctx context.Context, assignmentID string) (int, error) {
	if assignmentID == "" {
		return 0, nil
	}

	active, err := b.insightRepo.Query(ctx, insight.Filter{
		AssignmentID: assignmentID,
		Types:        []insight.Type{insight.TypeCheckIn, insight.TypeMonitor},
		Statuses:     insight.ActiveStatuses(),
	})
	if err != nil {
		return 0, fmt.Errorf("workqueue: count struggling students: %w", err)
	}

	students := make(map[string]struct{}, len(active))
	for _, ins := range active {
		students[ins.StudentID] = struct{}{}
	}
	return len(students), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SORTING
// ══════════════════════════════════════════════════════════════════════════════

// SortItems сортирует элементы очереди: срочность по возрастанию
// (immediate первыми), затем приоритет по убыванию, далее стабильно.
func SortItems(items []*ActionableItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Urgency.Rank() != items[j].Urgency.Rank() {
			return items[i].Urgency.Rank() < items[j].Urgency.Rank()
		}
		return items[i].Priority.Rank() > items[j].Priority.Rank()
	})
}
