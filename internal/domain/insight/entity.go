// Package insight содержит доменную модель инсайтов ClassPulse.
// Инсайт — это наблюдение системы о прогрессе студента с рекомендуемым классом реакции.
// Философия: учитель видит не сырые баллы, а готовые поводы для действия.
package insight

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// InsightID представляет уникальный идентификатор инсайта.
type InsightID string

// IsValid проверяет, что ID не пустой.
func (id InsightID) IsValid() bool {
	return len(id) > 0
}

// String возвращает строковое представление ID.
func (id InsightID) String() string {
	return string(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// INSIGHT TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет тип инсайта — класс рекомендуемой реакции учителя.
type Type string

const (
	// TypeCheckIn - студенту нужна личная поддержка.
	// "Балл 28% — стоит поговорить со студентом"
	TypeCheckIn Type = "check_in"

	// TypeCelebrateProgress - студент значительно улучшил результат.
	// "Рост с 50% до 85% — стоит отметить успех"
	TypeCelebrateProgress Type = "celebrate_progress"

	// TypeChallengeOpportunity - студент освоил материал и готов к большему.
	// "95% почти без подсказок — пора дать задание посложнее"
	TypeChallengeOpportunity Type = "challenge_opportunity"

	// TypeMonitor - прогресс неровный, стоит понаблюдать.
	// "Третья попытка в среднем диапазоне — держим на радаре"
	TypeMonitor Type = "monitor"
)

// IsValid проверяет, что тип инсайта корректен.
func (t Type) IsValid() bool {
	switch t {
	case TypeCheckIn,
		TypeCelebrateProgress,
		TypeChallengeOpportunity,
		TypeMonitor:
		return true
	default:
		return false
	}
}

// Rank возвращает порядок важности типа для сортировки выдачи.
// Чем выше значение, тем раньше инсайт появляется при равном приоритете.
func (t Type) Rank() int {
	switch t {
	case TypeCheckIn:
		return 4
	case TypeCelebrateProgress:
		return 3
	case TypeChallengeOpportunity:
		return 2
	case TypeMonitor:
		return 1
	default:
		return 0
	}
}

// String возвращает строковое представление типа.
func (t Type) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRIORITY
// ══════════════════════════════════════════════════════════════════════════════

// Окна ожидания реакции учителя до истечения инсайта.
const (
	// ReviewWindowHigh - окно для инсайтов высокого приоритета.
	ReviewWindowHigh = 7 * 24 * time.Hour

	// ReviewWindowDefault - окно для остальных инсайтов.
	ReviewWindowDefault = 14 * 24 * time.Hour
)

// Priority определяет приоритет инсайта.
type Priority string

const (
	// PriorityLow - низкий приоритет (наблюдение, не требует скорой реакции).
	PriorityLow Priority = "low"

	// PriorityMedium - средний приоритет.
	PriorityMedium Priority = "medium"

	// PriorityHigh - высокий приоритет (реакция нужна в ближайшие дни).
	PriorityHigh Priority = "high"
)

// IsValid проверяет корректность приоритета.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank возвращает числовой вес приоритета для сортировки.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ReviewWindow возвращает срок, в течение которого непросмотренный инсайт
// остаётся в очереди до перевода в expired.
func (p Priority) ReviewWindow() time.Duration {
	if p == PriorityHigh {
		return ReviewWindowHigh
	}
	return ReviewWindowDefault
}

// String возвращает строковое представление приоритета.
func (p Priority) String() string {
	return string(p)
}

// ══════════════════════════════════════════════════════════════════════════════
// INSIGHT STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет статус жизненного цикла инсайта.
type Status string

const (
	// StatusPendingReview - инсайт ждёт реакции учителя.
	StatusPendingReview Status = "pending_review"

	// StatusMonitoring - учитель видел инсайт и наблюдает за ситуацией.
	StatusMonitoring Status = "monitoring"

	// StatusActionTaken - учитель отреагировал, инсайт закрыт.
	StatusActionTaken Status = "action_taken"

	// StatusDismissed - учитель отклонил инсайт.
	StatusDismissed Status = "dismissed"

	// StatusExpired - инсайт истёк без реакции (плановая уборка).
	StatusExpired Status = "expired"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingReview, StatusMonitoring,
		StatusActionTaken, StatusDismissed, StatusExpired:
		return true
	default:
		return false
	}
}

// IsActive возвращает true для статусов, учитываемых инвариантом дедупликации:
// на тройку (студент, задание, тип) может существовать не более одного
// активного инсайта.
func (s Status) IsActive() bool {
	return s == StatusPendingReview || s == StatusMonitoring
}

// IsFinal возвращает true, если статус терминальный.
func (s Status) IsFinal() bool {
	switch s {
	case StatusActionTaken, StatusDismissed, StatusExpired:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода в целевой статус.
// Терминальные статусы переходов не допускают.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPendingReview:
		switch target {
		case StatusMonitoring, StatusActionTaken, StatusDismissed, StatusExpired:
			return true
		}
	case StatusMonitoring:
		switch target {
		case StatusActionTaken, StatusDismissed:
			return true
		}
	}
	return false
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ActiveStatuses возвращает список статусов, считающихся активными.
func ActiveStatuses() []Status {
	return []Status{StatusPendingReview, StatusMonitoring}
}

// ResolvedStatuses возвращает статусы, означающие состоявшуюся реакцию учителя.
func ResolvedStatuses() []Status {
	return []Status{StatusActionTaken, StatusDismissed}
}

// ══════════════════════════════════════════════════════════════════════════════
// URGENCY
// ══════════════════════════════════════════════════════════════════════════════

// Urgency определяет, насколько быстро учителю стоит отреагировать на инсайт.
// Вычисляется из пары (тип, приоритет) по фиксированной таблице и никогда
// не хранится.
type Urgency string

const (
	// UrgencyImmediate - реакция нужна сегодня.
	UrgencyImmediate Urgency = "immediate"

	// UrgencySoon - реакция нужна в ближайшие дни.
	UrgencySoon Urgency = "soon"

	// UrgencyWhenAvailable - можно отреагировать при случае.
	UrgencyWhenAvailable Urgency = "when_available"
)

// IsValid проверяет корректность срочности.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyImmediate, UrgencySoon, UrgencyWhenAvailable:
		return true
	default:
		return false
	}
}

// Rank возвращает порядок срочности: чем меньше, тем срочнее.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyImmediate:
		return 0
	case UrgencySoon:
		return 1
	case UrgencyWhenAvailable:
		return 2
	default:
		return 3
	}
}

// String возвращает строковое представление срочности.
func (u Urgency) String() string {
	return string(u)
}

// UrgencyFor возвращает срочность для пары (тип, приоритет).
// Таблица фиксированная; неизвестные сочетания попадают в when_available.
func UrgencyFor(t Type, p Priority) Urgency {
	switch t {
	case TypeCheckIn:
		if p == PriorityHigh {
			return UrgencyImmediate
		}
		return UrgencySoon
	case TypeCelebrateProgress:
		if p == PriorityLow {
			return UrgencyWhenAvailable
		}
		return UrgencySoon
	case TypeChallengeOpportunity:
		if p == PriorityHigh {
			return UrgencySoon
		}
		return UrgencyWhenAvailable
	default:
		return UrgencyWhenAvailable
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// INSIGHT ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Insight представляет наблюдение системы о прогрессе студента.
type Insight struct {
	// ID - уникальный идентификатор инсайта.
	ID InsightID

	// StudentID - ID студента, к которому относится наблюдение.
	StudentID string

	// AssignmentID - ID задания (пустой, если наблюдение не привязано к заданию).
	AssignmentID string

	// ClassID - ID класса студента.
	ClassID string

	// Subject - предмет задания (опционально).
	Subject string

	// Type - тип инсайта.
	Type Type

	// Priority - приоритет реакции.
	Priority Priority

	// Confidence - уверенность системы в наблюдении (0-1).
	Confidence float64

	// Summary - краткое описание наблюдения для учителя.
	Summary string

	// Evidence - упорядоченный список фактов, на которых основано наблюдение.
	Evidence []string

	// SuggestedActions - упорядоченный список рекомендуемых действий.
	SuggestedActions []string

	// Status - текущий статус жизненного цикла.
	Status Status

	// CreatedAt - время создания.
	CreatedAt time.Time

	// ReviewedAt - время первой реакции учителя (nil, пока инсайт не просмотрен).
	ReviewedAt *time.Time

	// ReviewedBy - ID учителя, отреагировавшего первым (пустой, если реакции не было).
	ReviewedBy string
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewInsightParams содержит параметры для создания инсайта.
type NewInsightParams struct {
	ID               InsightID
	StudentID        string
	AssignmentID     string
	ClassID          string
	Subject          string
	Type             Type
	Priority         Priority
	Confidence       float64
	Summary          string
	Evidence         []string
	SuggestedActions []string
	Status           Status
}

// NewInsight создаёт новый инсайт с валидацией.
// Пустой статус в параметрах означает pending_review.
func NewInsight(params NewInsightParams) (*Insight, error) {
	if !params.ID.IsValid() {
		return nil, ErrInvalidInsightID
	}

	if params.StudentID == "" {
		return nil, ErrEmptyStudentID
	}

	if !params.Type.IsValid() {
		return nil, ErrInvalidInsightType
	}

	if !params.Priority.IsValid() {
		return nil, ErrInvalidInsightPriority
	}

	if params.Confidence < 0 || params.Confidence > 1 {
		return nil, ErrConfidenceOutOfRange
	}

	if params.Summary == "" {
		return nil, ErrEmptySummary
	}

	status := StatusPendingReview
	if params.Status != "" {
		if !params.Status.IsValid() {
			return nil, ErrInvalidInsightStatus
		}
		status = params.Status
	}

	return &Insight{
		ID:               params.ID,
		StudentID:        params.StudentID,
		AssignmentID:     params.AssignmentID,
		ClassID:          params.ClassID,
		Subject:          params.Subject,
		Type:             params.Type,
		Priority:         params.Priority,
		Confidence:       params.Confidence,
		Summary:          params.Summary,
		Evidence:         params.Evidence,
		SuggestedActions: params.SuggestedActions,
		Status:           status,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// IsActive возвращает true, если инсайт учитывается инвариантом дедупликации.
func (i *Insight) IsActive() bool {
	return i.Status.IsActive()
}

// TransitionTo выполняет переход в целевой статус.
// Любой переход из pending_review проставляет ReviewedAt; ReviewedBy
// проставляется, когда известен актор. Недопустимый переход возвращает
// ErrInvalidStatusTransition и не меняет инсайт.
func (i *Insight) TransitionTo(target Status, actorID string) error {
	if !target.IsValid() {
		return ErrInvalidInsightStatus
	}
	if !i.Status.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}

	wasPending := i.Status == StatusPendingReview
	i.Status = target

	if wasPending {
		now := time.Now().UTC()
		i.ReviewedAt = &now
		if actorID != "" {
			i.ReviewedBy = actorID
		}
	}

	return nil
}

// MarkMonitoring переводит инсайт в режим наблюдения.
func (i *Insight) MarkMonitoring(actorID string) error {
	return i.TransitionTo(StatusMonitoring, actorID)
}

// MarkActionTaken помечает, что учитель отреагировал.
func (i *Insight) MarkActionTaken(actorID string) error {
	return i.TransitionTo(StatusActionTaken, actorID)
}

// MarkDismissed помечает инсайт отклонённым.
func (i *Insight) MarkDismissed(actorID string) error {
	return i.TransitionTo(StatusDismissed, actorID)
}

// MarkExpired помечает инсайт истёкшим. Используется плановой уборкой,
// актора у перехода нет.
func (i *Insight) MarkExpired() error {
	return i.TransitionTo(StatusExpired, "")
}

// ExpiryDeadline возвращает момент, после которого непросмотренный инсайт
// считается истёкшим.
func (i *Insight) ExpiryDeadline() time.Time {
	return i.CreatedAt.Add(i.Priority.ReviewWindow())
}

// IsOverdue проверяет, просрочен ли инсайт к указанному моменту.
// Просроченным может быть только инсайт в статусе pending_review.
func (i *Insight) IsOverdue(now time.Time) bool {
	return i.Status == StatusPendingReview && now.After(i.ExpiryDeadline())
}

// Urgency возвращает срочность реакции для этого инсайта.
func (i *Insight) Urgency() Urgency {
	return UrgencyFor(i.Type, i.Priority)
}

// Clone создаёт глубокую копию инсайта.
func (i *Insight) Clone() *Insight {
	if i == nil {
		return nil
	}

	clone := *i

	// Копируем срезы и указатели
	if i.Evidence != nil {
		clone.Evidence = make([]string, len(i.Evidence))
		copy(clone.Evidence, i.Evidence)
	}
	if i.SuggestedActions != nil {
		clone.SuggestedActions = make([]string, len(i.SuggestedActions))
		copy(clone.SuggestedActions, i.SuggestedActions)
	}
	if i.ReviewedAt != nil {
		t := *i.ReviewedAt
		clone.ReviewedAt = &t
	}

	return &clone
}

// String возвращает строковое представление для логирования.
func (i *Insight) String() string {
	return fmt.Sprintf(
		"Insight{ID: %s, Type: %s, Student: %s, Priority: %s, Status: %s}",
		i.ID, i.Type, i.StudentID, i.Priority, i.Status,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidInsightID - невалидный ID инсайта.
	ErrInvalidInsightID = errors.New("invalid insight id: cannot be empty")

	// ErrEmptyStudentID - пустой ID студента.
	ErrEmptyStudentID = errors.New("insight student id cannot be empty")

	// ErrInvalidInsightType - невалидный тип инсайта.
	ErrInvalidInsightType = errors.New("invalid insight type")

	// ErrInvalidInsightPriority - невалидный приоритет.
	ErrInvalidInsightPriority = errors.New("invalid insight priority")

	// ErrInvalidInsightStatus - невалидный статус.
	ErrInvalidInsightStatus = errors.New("invalid insight status")

	// ErrConfidenceOutOfRange - уверенность вне диапазона [0, 1].
	ErrConfidenceOutOfRange = errors.New("insight confidence must be between 0 and 1")

	// ErrEmptySummary - пустое описание.
	ErrEmptySummary = errors.New("insight summary cannot be empty")

	// ErrInvalidStatusTransition - недопустимый переход статуса.
	ErrInvalidStatusTransition = errors.New("invalid insight status transition")

	// ErrNilInsight - nil инсайт.
	ErrNilInsight = errors.New("insight cannot be nil")
)
