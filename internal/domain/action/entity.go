// Package action содержит доменную модель действий учителя.
// Действие учителя — неизменяемая запись аудита: как учитель отреагировал
// на инсайт. История никогда не редактируется — обновления добавляют
// новые записи.
package action

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет тип действия учителя.
type Type string

const (
	// TypeMarkReviewed - учитель просмотрел инсайт.
	TypeMarkReviewed Type = "mark_reviewed"

	// TypeAddNote - учитель добавил заметку о студенте.
	TypeAddNote Type = "add_note"

	// TypeReassign - учитель назначил задание заново.
	TypeReassign Type = "reassign"

	// TypeAwardBadge - учитель выдал значок.
	TypeAwardBadge Type = "award_badge"

	// TypeScheduleCheckin - учитель запланировал личную встречу.
	TypeScheduleCheckin Type = "schedule_checkin"

	// TypeDraftMessage - учитель подготовил сообщение студенту.
	TypeDraftMessage Type = "draft_message"

	// TypeOther - прочие действия.
	TypeOther Type = "other"
)

// IsValid проверяет корректность типа действия.
func (t Type) IsValid() bool {
	switch t {
	case TypeMarkReviewed, TypeAddNote, TypeReassign,
		TypeAwardBadge, TypeScheduleCheckin, TypeDraftMessage, TypeOther:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление типа.
func (t Type) String() string {
	return string(t)
}

// CoerceType приводит произвольную строку к известному типу действия.
// Неизвестные значения становятся other — намеренная снисходительность
// к входным данным, а не дефект.
func CoerceType(raw string) Type {
	t := Type(strings.TrimSpace(strings.ToLower(raw)))
	if t.IsValid() {
		return t
	}
	return TypeOther
}

// ══════════════════════════════════════════════════════════════════════════════
// TEACHER ACTION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// TeacherAction представляет одну запись аудита реакции учителя.
type TeacherAction struct {
	// ID - уникальный идентификатор записи.
	ID string

	// InsightID - инсайт, к которому привязано действие.
	InsightID string

	// TeacherID - учитель, выполнивший действие.
	TeacherID string

	// Type - тип действия.
	Type Type

	// Note - заметка учителя (опционально).
	Note string

	// MessageToStudent - сообщение студенту (опционально).
	MessageToStudent string

	// CreatedAt - время записи.
	CreatedAt time.Time
}

// NewTeacherAction создаёт запись действия с валидацией.
func NewTeacherAction(id, insightID, teacherID string, t Type) (*TeacherAction, error) {
	if id == "" {
		return nil, ErrEmptyActionID
	}
	if insightID == "" {
		return nil, ErrEmptyInsightID
	}
	if teacherID == "" {
		return nil, ErrEmptyTeacherID
	}
	if !t.IsValid() {
		return nil, ErrInvalidActionType
	}

	return &TeacherAction{
		ID:        id,
		InsightID: insightID,
		TeacherID: teacherID,
		Type:      t,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// WithNote устанавливает заметку.
func (a *TeacherAction) WithNote(note string) *TeacherAction {
	a.Note = note
	return a
}

// WithMessage устанавливает сообщение студенту.
func (a *TeacherAction) WithMessage(message string) *TeacherAction {
	a.MessageToStudent = message
	return a
}

// AppendNote дописывает строку к заметке действия. Каждая запись
// начинается с датированной метки и отделяется переводом строки —
// история заметок только растёт.
func (a *TeacherAction) AppendNote(entry string) {
	if entry == "" {
		return
	}
	if a.Note == "" {
		a.Note = entry
		return
	}
	a.Note = a.Note + "\n" + entry
}

// String возвращает строковое представление для логирования.
func (a *TeacherAction) String() string {
	return fmt.Sprintf(
		"TeacherAction{ID: %s, Type: %s, Insight: %s, Teacher: %s}",
		a.ID, a.Type, a.InsightID, a.TeacherID,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyActionID - пустой ID действия.
	ErrEmptyActionID = errors.New("teacher action id cannot be empty")

	// ErrEmptyInsightID - пустой ID инсайта.
	ErrEmptyInsightID = errors.New("teacher action insight id cannot be empty")

	// ErrEmptyTeacherID - пустой ID учителя.
	ErrEmptyTeacherID = errors.New("teacher action teacher id cannot be empty")

	// ErrInvalidActionType - невалидный тип действия.
	ErrInvalidActionType = errors.New("invalid teacher action type")
)
