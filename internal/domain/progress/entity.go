// Package progress содержит доменную модель прогресса студента по заданию.
// Одна запись на пару (студент, задание): попытки, баллы, подсказки,
// коуч-сессии. Запись мутируется именованными операциями и сохраняется
// целиком — load-mutate-save.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record представляет прогресс студента по одному заданию.
type Record struct {
	// StudentID - ID студента (часть составного ключа).
	StudentID string

	// AssignmentID - ID задания (часть составного ключа).
	AssignmentID string

	// Attempts - сколько попыток студент начал.
	Attempts int

	// CurrentAttempt - номер текущей попытки.
	CurrentAttempt int

	// Score - балл текущего цикла (nil до первого завершения
	// и после переназначения).
	Score *float64

	// HighestScore - лучший балл за всё время (переживает переназначение).
	HighestScore *float64

	// TotalTimeSpentSeconds - суммарное время работы над заданием.
	TotalTimeSpentSeconds int

	// HintsUsed - суммарное количество использованных подсказок.
	HintsUsed int

	// CoachSessionCount - количество коуч-сессий по заданию.
	CoachSessionCount int

	// StartedAt - время первой попытки (nil, если запись создана
	// использованием подсказки или коуча до старта).
	StartedAt *time.Time

	// FirstCompletedAt - время первого завершения (переживает переназначение).
	FirstCompletedAt *time.Time

	// LastCompletedAt - время последнего завершения (сбрасывается
	// переназначением).
	LastCompletedAt *time.Time
}

// NewRecord создаёт пустую запись прогресса.
func NewRecord(studentID, assignmentID string) (*Record, error) {
	if studentID == "" {
		return nil, ErrEmptyProgressStudentID
	}
	if assignmentID == "" {
		return nil, ErrEmptyProgressAssignmentID
	}
	return &Record{
		StudentID:    studentID,
		AssignmentID: assignmentID,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// NAMED MUTATORS
// Каждая мутация соответствует одному событию производительности.
// ══════════════════════════════════════════════════════════════════════════════

// StartAttempt регистрирует старт новой попытки.
func (r *Record) StartAttempt(now time.Time) {
	r.Attempts++
	r.CurrentAttempt = r.Attempts
	if r.StartedAt == nil {
		t := now.UTC()
		r.StartedAt = &t
	}
}

// CompleteAttempt регистрирует завершение попытки с баллом и временем.
// Балл приводится к диапазону 0-100. Лучший балл обновляется только
// при улучшении. Возвращает лучший балл до этой попытки (nil, если
// попытка первая) — снимок для правила celebrate_progress.
func (r *Record) CompleteAttempt(score float64, timeSpentSeconds int, now time.Time) *float64 {
	var previousHighest *float64
	if r.HighestScore != nil {
		v := *r.HighestScore
		previousHighest = &v
	}

	s := shared.Score(score).Clamp().Float()
	r.Score = &s
	if r.HighestScore == nil || s > *r.HighestScore {
		r.HighestScore = &s
	}

	if timeSpentSeconds > 0 {
		r.TotalTimeSpentSeconds += timeSpentSeconds
	}

	t := now.UTC()
	if r.FirstCompletedAt == nil {
		r.FirstCompletedAt = &t
	}
	r.LastCompletedAt = &t

	// Завершение без явного старта засчитываем как попытку.
	if r.Attempts == 0 {
		r.Attempts = 1
		r.CurrentAttempt = 1
	}

	return previousHighest
}

// RecordHintUsage регистрирует использование подсказок.
func (r *Record) RecordHintUsage(n int) {
	if n <= 0 {
		return
	}
	r.HintsUsed += n
}

// RecordCoachSession регистрирует одну коуч-сессию.
func (r *Record) RecordCoachSession() {
	r.CoachSessionCount++
}

// Reassign выполняет переназначение задания: новая попытка с чистым
// листом текущего цикла. Балл и время последнего завершения сбрасываются,
// лучший балл и время первого завершения сохраняются.
func (r *Record) Reassign() {
	r.Attempts++
	r.CurrentAttempt = r.Attempts
	r.Score = nil
	r.LastCompletedAt = nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED MEASUREMENTS
// ══════════════════════════════════════════════════════════════════════════════

// HintUsageRate возвращает долю вопросов с подсказками для задания
// с указанным количеством вопросов.
func (r *Record) HintUsageRate(questionCount int) shared.HintRate {
	return shared.HintRateOf(r.HintsUsed, questionCount)
}

// IsCompleted возвращает true, если текущий цикл задания завершён.
func (r *Record) IsCompleted() bool {
	return r.LastCompletedAt != nil
}

// HasEverCompleted возвращает true, если студент хоть раз завершал задание
// (признак переживает переназначение).
func (r *Record) HasEverCompleted() bool {
	return r.FirstCompletedAt != nil
}

// Clone создаёт глубокую копию записи.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Score = copyFloat(r.Score)
	clone.HighestScore = copyFloat(r.HighestScore)
	clone.StartedAt = copyTime(r.StartedAt)
	clone.FirstCompletedAt = copyTime(r.FirstCompletedAt)
	clone.LastCompletedAt = copyTime(r.LastCompletedAt)
	return &clone
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// String возвращает строковое представление для логирования.
func (r *Record) String() string {
	return fmt.Sprintf(
		"Progress{Student: %s, Assignment: %s, Attempts: %d, Hints: %d}",
		r.StudentID, r.AssignmentID, r.Attempts, r.HintsUsed,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyProgressStudentID - пустой ID студента.
	ErrEmptyProgressStudentID = errors.New("progress student id cannot be empty")

	// ErrEmptyProgressAssignmentID - пустой ID задания.
	ErrEmptyProgressAssignmentID = errors.New("progress assignment id cannot be empty")
)
