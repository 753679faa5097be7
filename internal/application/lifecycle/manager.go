// Package lifecycle содержит менеджер жизненного цикла инсайтов.
// Все изменения статуса инсайта проходят через этот сервис: он загружает
// запись, применяет переход через доменные методы, сохраняет и публикует
// событие. Прямых мутаций статуса в других местах нет.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE MANAGER
// Единственная ошибка публичной поверхности — NotFound: недопустимый
// переход не ошибка, а логируемый no-op, поэтому терминальные записи
// никогда не возвращаются в очередь (монотонность статуса).
// ══════════════════════════════════════════════════════════════════════════════

// Manager управляет переходами статуса инсайтов.
type Manager struct {
	repo      insight.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewManager создаёт менеджер жизненного цикла.
func NewManager(repo insight.Repository, publisher shared.EventPublisher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// MarkActionTaken помечает, что учитель отреагировал на инсайт.
func (m *Manager) MarkActionTaken(ctx context.Context, id insight.InsightID, actorID string) (*insight.Insight, error) {
	return m.UpdateStatus(ctx, id, insight.StatusActionTaken, actorID, "")
}

// Dismiss отклоняет инсайт. Причина попадает в событие перехода,
// сама запись причину не хранит.
func (m *Manager) Dismiss(ctx context.Context, id insight.InsightID, actorID, reason string) (*insight.Insight, error) {
	return m.UpdateStatus(ctx, id, insight.StatusDismissed, actorID, reason)
}

// SetMonitoring переводит инсайт в режим наблюдения.
func (m *Manager) SetMonitoring(ctx context.Context, id insight.InsightID, actorID string) (*insight.Insight, error) {
	return m.UpdateStatus(ctx, id, insight.StatusMonitoring, actorID, "")
}

// UpdateStatus выполняет переход инсайта в целевой статус. Общая форма,
// используемая именованными операциями. Недопустимый переход логируется
// и возвращает запись без изменений.
func (m *Manager) UpdateStatus(ctx context.Context, id insight.InsightID, target insight.Status, actorID, reason string) (*insight.Insight, error) {
	ins, err := m.repo.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: load insight %s: %w", id, err)
	}

	oldStatus := ins.Status
	if err := ins.TransitionTo(target, actorID); err != nil {
		if errors.Is(err, insight.ErrInvalidStatusTransition) {
			m.logger.Warn("ignoring illegal insight transition",
				"insight_id", id.String(),
				"from", oldStatus.String(),
				"to", target.String(),
				"actor", actorID,
			)
			return ins, nil
		}
		return nil, fmt.Errorf("lifecycle: transition %s: %w", id, err)
	}

	if err := m.repo.Save(ctx, ins); err != nil {
		return nil, fmt.Errorf("lifecycle: save insight %s: %w", id, err)
	}

	m.publishStatusChanged(ins, oldStatus, actorID, reason)
	return ins, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRY SWEEP
// Истечение не вызывается напрямую: плановая уборка сравнивает дедлайн
// каждой непросмотренной записи с текущим моментом. Истёкшие инсайты
// исчезают из очереди, но остаются в хранилище для аудита.
// ══════════════════════════════════════════════════════════════════════════════

// ExpireOverdue переводит просроченные pending_review инсайты в expired.
// Возвращает количество обработанных записей.
func (m *Manager) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	pending, err := m.repo.Query(ctx, insight.PendingFilter())
	if err != nil {
		return 0, fmt.Errorf("lifecycle: query pending insights: %w", err)
	}

	expired := 0
	for _, ins := range pending {
		if !ins.IsOverdue(now) {
			continue
		}

		oldStatus := ins.Status
		if err := ins.MarkExpired(); err != nil {
			// Гонка с параллельной реакцией учителя: запись уже ушла
			// из pending_review, пропускаем.
			m.logger.Warn("skipping insight during expiry sweep",
				"insight_id", ins.ID.String(), "error", err)
			continue
		}
		if err := m.repo.Save(ctx, ins); err != nil {
			return expired, fmt.Errorf("lifecycle: save expired insight %s: %w", ins.ID, err)
		}

		m.publishStatusChanged(ins, oldStatus, "", "review window elapsed")
		expired++
	}

	if expired > 0 {
		m.logger.Info("expired overdue insights", "count", expired)
	}
	return expired, nil
}

// publishStatusChanged публикует событие перехода. Сбой публикации
// не отменяет уже сохранённый переход.
func (m *Manager) publishStatusChanged(ins *insight.Insight, oldStatus insight.Status, actorID, reason string) {
	if m.publisher == nil {
		return
	}

	event := shared.NewInsightStatusChangedEvent(
		ins.ID.String(),
		ins.StudentID,
		oldStatus.String(),
		ins.Status.String(),
		actorID,
	)
	if reason != "" {
		event = event.WithReason(reason)
	}

	if err := m.publisher.Publish(event); err != nil {
		m.logger.Error("failed to publish insight status change",
			"insight_id", ins.ID.String(), "error", err)
	}
}
