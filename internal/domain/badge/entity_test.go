package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceType(t *testing.T) {
	assert.Equal(t, TypeRisingStar, CoerceType("rising_star"))
	assert.Equal(t, TypePerfectScore, CoerceType(" Perfect_Score "))

	// unknown values degrade to the default type
	assert.Equal(t, TypeProgressStar, CoerceType("golden_unicorn"))
	assert.Equal(t, TypeProgressStar, CoerceType(""))
}

func TestNewBadge(t *testing.T) {
	b, err := NewBadge("b1", "s1", "persistence", "Keep it up!", "a1")
	assert.NoError(t, err)
	assert.Equal(t, TypePersistence, b.Type)
	assert.Equal(t, "Keep it up!", b.Message)
	assert.Equal(t, "a1", b.AssignmentID)
	assert.False(t, b.IssuedAt.IsZero())

	// the type is coerced, never rejected
	b, err = NewBadge("b2", "s1", "nonsense", "", "")
	assert.NoError(t, err)
	assert.Equal(t, TypeProgressStar, b.Type)
}

func TestNewBadge_Validation(t *testing.T) {
	_, err := NewBadge("", "s1", "", "", "")
	assert.ErrorIs(t, err, ErrEmptyBadgeID)

	_, err = NewBadge("b1", "", "", "", "")
	assert.ErrorIs(t, err, ErrEmptyBadgeStudentID)
}
