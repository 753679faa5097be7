package workqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/classpulse/insight-engine/internal/application/command"
	"github.com/classpulse/insight-engine/internal/application/lifecycle"
	"github.com/classpulse/insight-engine/internal/domain/action"
	"github.com/classpulse/insight-engine/internal/domain/insight"
)

// ══════════════════════════════════════════════════════════════════════════════
// ITEM OPERATIONS
// Одобрить, изменить, отклонить. Все три работают по living-инсайту:
// если он уже исчез или закрыт параллельным вызовом, возвращается
// NotFound — сообщается, не повторяется.
// ══════════════════════════════════════════════════════════════════════════════

// DismissedNote - заметка, фиксирующая отклонение элемента очереди.
const DismissedNote = "Dismissed from review queue"

// Operations выполняет действия над элементами очереди.
type Operations struct {
	builder   *Builder
	recorder  *command.RecordTeacherActionHandler
	lifecycle *lifecycle.Manager
	logger    *slog.Logger
}

// NewOperations создаёт исполнителя операций очереди.
func NewOperations(
	builder *Builder,
	recorder *command.RecordTeacherActionHandler,
	lifecycleManager *lifecycle.Manager,
	logger *slog.Logger,
) *Operations {
	if logger == nil {
		logger = slog.Default()
	}
	return &Operations{
		builder:   builder,
		recorder:  recorder,
		lifecycle: lifecycleManager,
		logger:    logger,
	}
}

// ApproveOverrides содержит переопределения для операции modify.
type ApproveOverrides struct {
	// ActionType - переопределение типа действия (пустой = из таблицы).
	ActionType string

	// Note - заметка учителя.
	Note string

	// MessageToStudent - сообщение студенту.
	MessageToStudent string

	// BadgeType - тип значка для award_badge.
	BadgeType string

	// BadgeMessage - сообщение значка.
	BadgeMessage string
}

// Approve одобряет элемент: рекомендуемый класс реакции отображается в
// тип действия по фиксированной таблице, действие записывается, инсайт
// помечается action_taken — кроме случая, когда регистратор уже перевёл
// его (переназначение оставляет повторно использованный check_in в
// monitoring).
func (o *Operations) Approve(ctx context.Context, insightID, teacherID string) (*command.RecordTeacherActionResult, error) {
	return o.Modify(ctx, insightID, teacherID, ApproveOverrides{})
}

// Modify — то же, что Approve, но с переопределениями вызывающего.
func (o *Operations) Modify(ctx context.Context, insightID, teacherID string, overrides ApproveOverrides) (*command.RecordTeacherActionResult, error) {
	item, err := o.builder.BuildItem(ctx, insight.InsightID(insightID))
	if err != nil {
		return nil, fmt.Errorf("workqueue: approve: %w", err)
	}

	actionType := item.SuggestedActionType.ActionType()
	if overrides.ActionType != "" {
		actionType = action.CoerceType(overrides.ActionType)
	}

	note := overrides.Note
	if note == "" && actionType == action.TypeAddNote {
		// add_note требует текста; по умолчанию фиксируем само наблюдение.
		note = item.Summary
	}

	result, err := o.recorder.Handle(ctx, command.RecordTeacherActionCommand{
		TeacherID:        teacherID,
		ActionType:       actionType.String(),
		InsightID:        insightID,
		Note:             note,
		MessageToStudent: overrides.MessageToStudent,
		BadgeType:        overrides.BadgeType,
		BadgeMessage:     overrides.BadgeMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("workqueue: approve: %w", err)
	}

	// Переназначение повторно использованного якоря регистратор уже
	// перевёл в monitoring — не затираем его принудительным action_taken.
	recorderDroveLifecycle := actionType == action.TypeReassign && !result.SynthesizedInsight
	if result.Insight.IsActive() && !recorderDroveLifecycle {
		updated, err := o.lifecycle.MarkActionTaken(ctx, insight.InsightID(insightID), teacherID)
		if err != nil {
			return nil, fmt.Errorf("workqueue: approve: %w", err)
		}
		result.Insight = updated
	}

	return result, nil
}

// Dismiss отклоняет элемент: записывается действие mark_reviewed с
// заметкой об отклонении, инсайт переводится в dismissed.
func (o *Operations) Dismiss(ctx context.Context, insightID, teacherID, reason string) (*command.RecordTeacherActionResult, error) {
	note := DismissedNote
	if reason != "" {
		note = fmt.Sprintf("%s: %s", DismissedNote, reason)
	}

	result, err := o.recorder.Handle(ctx, command.RecordTeacherActionCommand{
		TeacherID:  teacherID,
		ActionType: action.TypeMarkReviewed.String(),
		InsightID:  insightID,
		Note:       note,
	})
	if err != nil {
		return nil, fmt.Errorf("workqueue: dismiss: %w", err)
	}

	updated, err := o.lifecycle.Dismiss(ctx, insight.InsightID(insightID), teacherID, reason)
	if err != nil {
		return nil, fmt.Errorf("workqueue: dismiss: %w", err)
	}
	result.Insight = updated

	return result, nil
}
