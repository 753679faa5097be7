// Package roster содержит справочные сущности: студент, задание, класс.
// Движок читает их для отображаемых имён и контекста; управление
// содержимым уроков — внешняя забота.
package roster

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student представляет студента.
type Student struct {
	// ID - уникальный идентификатор.
	ID string

	// DisplayName - отображаемое имя.
	DisplayName string

	// ClassID - класс студента.
	ClassID string

	// Notes - свободные заметки учителей. Только дописываются: каждая
	// запись начинается с датированной метки и отделяется переводом строки.
	Notes string

	// Active - признак активности студента.
	Active bool

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewStudent создаёт студента с валидацией.
func NewStudent(id, displayName, classID string) (*Student, error) {
	if id == "" {
		return nil, ErrEmptyRosterID
	}
	if displayName == "" {
		return nil, ErrEmptyDisplayName
	}
	now := time.Now().UTC()
	return &Student{
		ID:          id,
		DisplayName: displayName,
		ClassID:     classID,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AppendNote дописывает заметку с датированной меткой вида "[2026-08-29] ...".
// Существующие заметки никогда не перезаписываются.
func (s *Student) AppendNote(note string, now time.Time) {
	if note == "" {
		return
	}
	entry := fmt.Sprintf("[%s] %s", now.UTC().Format("2006-01-02"), note)
	if s.Notes == "" {
		s.Notes = entry
	} else {
		s.Notes = s.Notes + "\n" + entry
	}
	s.UpdatedAt = now.UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSIGNMENT
// ══════════════════════════════════════════════════════════════════════════════

// Assignment представляет задание.
type Assignment struct {
	// ID - уникальный идентификатор.
	ID string

	// ClassID - класс, которому выдано задание.
	ClassID string

	// Title - название задания.
	Title string

	// Subject - предмет.
	Subject string

	// QuestionCount - количество вопросов.
	QuestionCount int

	// Archived - задание убрано в архив.
	Archived bool

	// CreatedAt - время создания.
	CreatedAt time.Time
}

// NewAssignment создаёт задание с валидацией.
func NewAssignment(id, classID, title, subject string, questionCount int) (*Assignment, error) {
	if id == "" {
		return nil, ErrEmptyRosterID
	}
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if questionCount < 0 {
		return nil, ErrNegativeQuestionCount
	}
	return &Assignment{
		ID:            id,
		ClassID:       classID,
		Title:         title,
		Subject:       subject,
		QuestionCount: questionCount,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASS
// ══════════════════════════════════════════════════════════════════════════════

// Class представляет класс.
type Class struct {
	// ID - уникальный идентификатор.
	ID string

	// Name - название класса.
	Name string

	// TeacherID - учитель класса.
	TeacherID string
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPLAY FALLBACKS
// Подстановки для выдачи, когда справочная запись недоступна.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// UnknownStudentName - подстановка имени студента.
	UnknownStudentName = "Unknown student"

	// GeneralPracticeTitle - подстановка названия задания (свободная практика).
	GeneralPracticeTitle = "General practice"

	// UnassignedClassName - подстановка названия класса.
	UnassignedClassName = "Unassigned class"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyRosterID - пустой идентификатор.
	ErrEmptyRosterID = errors.New("roster id cannot be empty")

	// ErrEmptyDisplayName - пустое имя студента.
	ErrEmptyDisplayName = errors.New("student display name cannot be empty")

	// ErrEmptyTitle - пустое название задания.
	ErrEmptyTitle = errors.New("assignment title cannot be empty")

	// ErrNegativeQuestionCount - отрицательное количество вопросов.
	ErrNegativeQuestionCount = errors.New("assignment question count cannot be negative")
)
