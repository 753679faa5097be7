// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ATTEMPT COMPLETED HANDLER
// Единственная производственная точка вызова генератора инсайтов.
//
// Последовательность:
// 1. Снимок измерений берётся из события (балл, подсказки, попытки,
//    лучший предыдущий балл) — запись прогресса повторно не читается.
// 2. Индекс дедупликации отдаёт активные инсайты пары (студент, задание).
// 3. Генератор оценивает правила; сработавшие создают инсайты.
// 4. Каждый инсайт сохраняется и публикуется insight.created.
//
// Никакая другая точка кода правила не переопределяет: расхождение
// порогов между точками вызова — дефект, а не вариант.
// ═══════════════════════════════════════════════════════════════════════════

// OnAttemptCompleted обрабатывает событие завершения попытки.
type OnAttemptCompleted struct {
	generator   *insight.Generator
	dedup       *insight.DedupIndex
	insightRepo insight.Repository
	publisher   shared.EventPublisher
	logger      *slog.Logger
}

// NewOnAttemptCompleted создаёт обработчик.
func NewOnAttemptCompleted(
	generator *insight.Generator,
	dedup *insight.DedupIndex,
	insightRepo insight.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *OnAttemptCompleted {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnAttemptCompleted{
		generator:   generator,
		dedup:       dedup,
		insightRepo: insightRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// EventHandler возвращает функцию-подписчик для шины событий.
func (h *OnAttemptCompleted) EventHandler() shared.EventHandler {
	return func(event shared.Event) error {
		completed, ok := event.(shared.AttemptCompletedEvent)
		if !ok {
			return fmt.Errorf("on_attempt_completed: unexpected event type %T", event)
		}
		_, err := h.Handle(context.Background(), completed)
		return err
	}
}

// Handle оценивает правила для одного события завершения попытки.
// Возвращает созданные инсайты.
func (h *OnAttemptCompleted) Handle(ctx context.Context, event shared.AttemptCompletedEvent) ([]*insight.Insight, error) {
	// Доля подсказок выводится из снимка события; ноль вопросов — нулевая доля.
	hintRate := shared.HintRateOf(event.HintsUsed, event.QuestionCount)

	input := insight.RuleInput{
		StudentID:            event.StudentID,
		AssignmentID:         event.AssignmentID,
		ClassID:              event.ClassID,
		Subject:              event.Subject,
		QuestionCount:        event.QuestionCount,
		Score:                event.Score,
		HintUsageRate:        hintRate.Float(),
		CoachSessionsUsed:    event.CoachSessionsUsed,
		Attempts:             event.Attempts,
		PreviousHighestScore: event.PreviousHighestScore,
	}

	active, err := h.dedup.ActiveSet(ctx, event.StudentID, event.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("on_attempt_completed: %w", err)
	}

	created, err := h.generator.Evaluate(input, active)
	if err != nil {
		return nil, fmt.Errorf("on_attempt_completed: evaluate rules: %w", err)
	}

	for _, ins := range created {
		if err := h.insightRepo.Save(ctx, ins); err != nil {
			return nil, fmt.Errorf("on_attempt_completed: save insight: %w", err)
		}

		h.logger.Info("insight generated",
			"insight_id", ins.ID.String(),
			"student_id", ins.StudentID,
			"assignment_id", ins.AssignmentID,
			"type", ins.Type.String(),
			"priority", ins.Priority.String(),
		)

		if h.publisher != nil {
			_ = h.publisher.Publish(shared.NewInsightCreatedEvent(
				ins.ID.String(),
				ins.StudentID,
				ins.AssignmentID,
				ins.Type.String(),
				ins.Priority.String(),
				ins.Confidence,
			))
		}
	}

	return created, nil
}
