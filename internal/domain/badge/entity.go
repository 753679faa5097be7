// Package badge содержит доменную модель значков поощрения.
// Значки выдаются учителем через регистратор действий; движку нужны
// только сохранение и простые выборки.
package badge

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет тип значка.
type Type string

const (
	// TypeProgressStar - за заметный прогресс. Тип по умолчанию.
	TypeProgressStar Type = "progress_star"

	// TypeRisingStar - за стремительный рост.
	TypeRisingStar Type = "rising_star"

	// TypePerfectScore - за идеальный балл.
	TypePerfectScore Type = "perfect_score"

	// TypePersistence - за упорство.
	TypePersistence Type = "persistence"

	// TypeCuriosity - за любознательность.
	TypeCuriosity Type = "curiosity"
)

// IsValid проверяет корректность типа значка.
func (t Type) IsValid() bool {
	switch t {
	case TypeProgressStar, TypeRisingStar, TypePerfectScore,
		TypePersistence, TypeCuriosity:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление типа.
func (t Type) String() string {
	return string(t)
}

// CoerceType приводит произвольную строку к известному типу значка.
// Неизвестные значения становятся progress_star — намеренная
// снисходительность, а не дефект.
func CoerceType(raw string) Type {
	t := Type(strings.TrimSpace(strings.ToLower(raw)))
	if t.IsValid() {
		return t
	}
	return TypeProgressStar
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Badge представляет выданный значок.
type Badge struct {
	// ID - уникальный идентификатор.
	ID string

	// StudentID - студент, получивший значок.
	StudentID string

	// Type - тип значка.
	Type Type

	// Message - сопроводительное сообщение учителя.
	Message string

	// AssignmentID - задание, за которое выдан значок (опционально).
	AssignmentID string

	// IssuedAt - время выдачи.
	IssuedAt time.Time
}

// NewBadge создаёт значок с валидацией. Тип приводится к известному.
func NewBadge(id, studentID, rawType, message, assignmentID string) (*Badge, error) {
	if id == "" {
		return nil, ErrEmptyBadgeID
	}
	if studentID == "" {
		return nil, ErrEmptyBadgeStudentID
	}
	return &Badge{
		ID:           id,
		StudentID:    studentID,
		Type:         CoerceType(rawType),
		Message:      message,
		AssignmentID: assignmentID,
		IssuedAt:     time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyBadgeID - пустой ID значка.
	ErrEmptyBadgeID = errors.New("badge id cannot be empty")

	// ErrEmptyBadgeStudentID - пустой ID студента.
	ErrEmptyBadgeStudentID = errors.New("badge student id cannot be empty")
)
