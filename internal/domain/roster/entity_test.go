package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStudent(t *testing.T) {
	s, err := NewStudent("s1", "Aruzhan", "c1")
	assert.NoError(t, err)
	assert.True(t, s.Active)
	assert.Equal(t, s.CreatedAt, s.UpdatedAt)

	_, err = NewStudent("", "Aruzhan", "c1")
	assert.ErrorIs(t, err, ErrEmptyRosterID)

	_, err = NewStudent("s1", "", "c1")
	assert.ErrorIs(t, err, ErrEmptyDisplayName)
}

func TestStudent_AppendNote(t *testing.T) {
	s, _ := NewStudent("s1", "Aruzhan", "c1")
	now := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)

	s.AppendNote("Spoke after class", now)
	assert.Equal(t, "[2026-08-29] Spoke after class", s.Notes)

	s.AppendNote("Improving steadily", now.AddDate(0, 0, 1))
	assert.Equal(t, "[2026-08-29] Spoke after class\n[2026-08-30] Improving steadily", s.Notes)

	// empty notes are ignored, existing text never shrinks
	s.AppendNote("", now)
	assert.Contains(t, s.Notes, "Spoke after class")
}

func TestNewAssignment(t *testing.T) {
	a, err := NewAssignment("a1", "c1", "Fractions quiz", "math", 12)
	assert.NoError(t, err)
	assert.Equal(t, 12, a.QuestionCount)
	assert.False(t, a.Archived)

	_, err = NewAssignment("a1", "c1", "", "math", 12)
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = NewAssignment("a1", "c1", "Quiz", "math", -1)
	assert.ErrorIs(t, err, ErrNegativeQuestionCount)
}
