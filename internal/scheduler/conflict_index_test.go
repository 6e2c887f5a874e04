package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConflictIndexClassroom(t *testing.T) {
	idx := NewConflictIndex()
	slot := TimeSlot{Day: 1, Start: 480, End: 540}

	idx.Insert("sec-1", "room-a", "inst-1", slot)

	assert.True(t, idx.HasClassroomConflict("room-a", TimeSlot{Day: 1, Start: 500, End: 560}, ""))
	assert.False(t, idx.HasClassroomConflict("room-b", slot, ""))
	assert.False(t, idx.HasClassroomConflict("room-a", TimeSlot{Day: 1, Start: 540, End: 600}, ""))
	assert.False(t, idx.HasClassroomConflict("room-a", TimeSlot{Day: 2, Start: 480, End: 540}, ""))
}

func TestConflictIndexInstructor(t *testing.T) {
	idx := NewConflictIndex()
	slot := TimeSlot{Day: 3, Start: 600, End: 660}

	idx.Insert("sec-1", "room-a", "inst-1", slot)

	// Same instructor in a different room still conflicts.
	assert.True(t, idx.HasInstructorConflict("inst-1", TimeSlot{Day: 3, Start: 630, End: 690}, ""))
	assert.False(t, idx.HasInstructorConflict("inst-2", slot, ""))
}

func TestConflictIndexExclude(t *testing.T) {
	idx := NewConflictIndex()
	slot := TimeSlot{Day: 1, Start: 480, End: 540}

	idx.Insert("sec-1", "room-a", "inst-1", slot)

	assert.False(t, idx.HasClassroomConflict("room-a", slot, "sec-1"))
	assert.False(t, idx.HasInstructorConflict("inst-1", slot, "sec-1"))
	assert.True(t, idx.HasClassroomConflict("room-a", slot, "sec-2"))
}

func TestConflictIndexRemove(t *testing.T) {
	idx := NewConflictIndex()
	slot := TimeSlot{Day: 1, Start: 480, End: 540}

	idx.Insert("sec-1", "room-a", "inst-1", slot)
	idx.Insert("sec-2", "room-a", "inst-2", TimeSlot{Day: 1, Start: 540, End: 600})
	assert.Equal(t, 2, idx.Len())

	idx.Remove("sec-1", "room-a", "inst-1")
	assert.Equal(t, 1, idx.Len())
	assert.False(t, idx.HasClassroomConflict("room-a", slot, ""))
	assert.False(t, idx.HasInstructorConflict("inst-1", slot, ""))
	assert.True(t, idx.HasClassroomConflict("room-a", TimeSlot{Day: 1, Start: 550, End: 560}, ""))

	// Removing an id that is not present is a no-op.
	idx.Remove("sec-9", "room-a", "inst-9")
	assert.Equal(t, 1, idx.Len())
}
