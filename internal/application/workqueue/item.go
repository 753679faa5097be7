// Package workqueue строит рабочую очередь учителя: проекцию ожидающих
// инсайтов в приоритизированные, готовые к действию элементы. Элементы
// эфемерны — пересобираются на каждый запрос и никогда не сохраняются.
package workqueue

import (
	"time"

	"github.com/classpulse/insight-engine/internal/domain/action"
	"github.com/classpulse/insight-engine/internal/domain/insight"
)

// ══════════════════════════════════════════════════════════════════════════════
// ITEM STATUS
// ══════════════════════════════════════════════════════════════════════════════

// ItemStatus определяет статус элемента очереди, производный от статуса
// инсайта.
type ItemStatus string

const (
	// ItemPending - элемент ждёт реакции.
	ItemPending ItemStatus = "pending"

	// ItemCompleted - учитель отреагировал.
	ItemCompleted ItemStatus = "completed"

	// ItemDismissed - элемент отклонён.
	ItemDismissed ItemStatus = "dismissed"

	// ItemExpired - инсайт истёк без реакции.
	ItemExpired ItemStatus = "expired"
)

// ItemStatusOf выводит статус элемента из статуса инсайта.
func ItemStatusOf(s insight.Status) ItemStatus {
	switch s {
	case insight.StatusActionTaken:
		return ItemCompleted
	case insight.StatusDismissed:
		return ItemDismissed
	case insight.StatusExpired:
		return ItemExpired
	default:
		return ItemPending
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SUGGESTED ACTION TYPE
// Рекомендуемый класс реакции элемента. Уточняется из типа инсайта и
// контекста прогресса: переназначение сильнее очередного напоминания,
// групповая поддержка сильнее личной, когда бьётся вся группа.
// ══════════════════════════════════════════════════════════════════════════════

// SuggestedActionType определяет рекомендуемое действие элемента очереди.
type SuggestedActionType string

const (
	// SuggestCheckIn - личная встреча со студентом.
	SuggestCheckIn SuggestedActionType = "check_in"

	// SuggestCelebrate - отметить успех.
	SuggestCelebrate SuggestedActionType = "celebrate"

	// SuggestChallenge - предложить задание посложнее.
	SuggestChallenge SuggestedActionType = "challenge"

	// SuggestReassign - назначить задание заново.
	SuggestReassign SuggestedActionType = "reassign"

	// SuggestMonitor - наблюдать за прогрессом.
	SuggestMonitor SuggestedActionType = "monitor"

	// SuggestSupportGroup - организовать групповую поддержку.
	SuggestSupportGroup SuggestedActionType = "support_group"
)

// ActionType возвращает тип действия учителя для одобренного элемента —
// фиксированная таблица соответствия.
func (s SuggestedActionType) ActionType() action.Type {
	switch s {
	case SuggestCheckIn:
		return action.TypeScheduleCheckin
	case SuggestChallenge:
		return action.TypeDraftMessage
	case SuggestCelebrate:
		return action.TypeAwardBadge
	case SuggestReassign:
		return action.TypeReassign
	case SuggestMonitor, SuggestSupportGroup:
		return action.TypeAddNote
	default:
		return action.TypeMarkReviewed
	}
}

// directSuggestion возвращает прямое соответствие тип инсайта → рекомендация.
func directSuggestion(t insight.Type) SuggestedActionType {
	switch t {
	case insight.TypeCheckIn:
		return SuggestCheckIn
	case insight.TypeCelebrateProgress:
		return SuggestCelebrate
	case insight.TypeChallengeOpportunity:
		return SuggestChallenge
	default:
		return SuggestMonitor
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIONABLE ITEM
// ══════════════════════════════════════════════════════════════════════════════

// ActionableItem представляет один элемент рабочей очереди учителя.
type ActionableItem struct {
	// InsightID - инсайт, который представляет элемент.
	InsightID string `json:"insight_id"`

	// StudentID - ID студента.
	StudentID string `json:"student_id"`

	// StudentName - отображаемое имя студента.
	StudentName string `json:"student_name"`

	// AssignmentID - ID задания (пустой для свободной практики).
	AssignmentID string `json:"assignment_id,omitempty"`

	// AssignmentTitle - название задания.
	AssignmentTitle string `json:"assignment_title"`

	// ClassID - ID класса.
	ClassID string `json:"class_id,omitempty"`

	// ClassName - название класса.
	ClassName string `json:"class_name"`

	// Type - тип инсайта.
	Type insight.Type `json:"type"`

	// Priority - приоритет инсайта.
	Priority insight.Priority `json:"priority"`

	// Urgency - срочность реакции из таблицы (тип, приоритет).
	Urgency insight.Urgency `json:"urgency"`

	// Summary - краткое описание наблюдения.
	Summary string `json:"summary"`

	// Evidence - факты, на которых основано наблюдение.
	Evidence []string `json:"evidence,omitempty"`

	// SuggestedActions - рекомендуемые шаги в человекочитаемой форме.
	SuggestedActions []string `json:"suggested_actions,omitempty"`

	// SuggestedActionType - уточнённый рекомендуемый класс реакции.
	SuggestedActionType SuggestedActionType `json:"suggested_action_type"`

	// Status - статус элемента.
	Status ItemStatus `json:"status"`

	// CreatedAt - время создания инсайта.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt - дедлайн реакции, после которого инсайт истекает.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsPending возвращает true для элементов, ждущих реакции.
func (it *ActionableItem) IsPending() bool {
	return it.Status == ItemPending
}
