package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceType(t *testing.T) {
	assert.Equal(t, TypeAddNote, CoerceType("add_note"))
	assert.Equal(t, TypeReassign, CoerceType("  Reassign "))
	assert.Equal(t, TypeAwardBadge, CoerceType("AWARD_BADGE"))

	// unknown values degrade to other rather than fail
	assert.Equal(t, TypeOther, CoerceType("called_parent"))
	assert.Equal(t, TypeOther, CoerceType(""))
}

func TestNewTeacherAction_Validation(t *testing.T) {
	_, err := NewTeacherAction("", "i1", "t1", TypeAddNote)
	assert.ErrorIs(t, err, ErrEmptyActionID)

	_, err = NewTeacherAction("act-1", "", "t1", TypeAddNote)
	assert.ErrorIs(t, err, ErrEmptyInsightID)

	_, err = NewTeacherAction("act-1", "i1", "", TypeAddNote)
	assert.ErrorIs(t, err, ErrEmptyTeacherID)

	_, err = NewTeacherAction("act-1", "i1", "t1", Type("bogus"))
	assert.ErrorIs(t, err, ErrInvalidActionType)

	act, err := NewTeacherAction("act-1", "i1", "t1", TypeMarkReviewed)
	assert.NoError(t, err)
	assert.Equal(t, TypeMarkReviewed, act.Type)
	assert.False(t, act.CreatedAt.IsZero())
}

func TestAppendNote_GrowsOnly(t *testing.T) {
	act, _ := NewTeacherAction("act-1", "i1", "t1", TypeAddNote)

	act.AppendNote("[2026-08-20] first entry")
	assert.Equal(t, "[2026-08-20] first entry", act.Note)

	act.AppendNote("Badge awarded: badge-1")
	assert.Equal(t, "[2026-08-20] first entry\nBadge awarded: badge-1", act.Note)

	// empty entries are ignored
	act.AppendNote("")
	assert.Equal(t, "[2026-08-20] first entry\nBadge awarded: badge-1", act.Note)
}
