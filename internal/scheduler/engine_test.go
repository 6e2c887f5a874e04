package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClassroom(id string, capacity int, features ...string) Classroom {
	set := make(map[string]bool, len(features))
	for _, f := range features {
		set[f] = true
	}
	return Classroom{ID: id, Label: id, Capacity: capacity, Features: set}
}

// assertNoConflicts verifies the core invariant: no classroom and no
// instructor holds two overlapping assignments, counting fixed placements.
func assertNoConflicts(t *testing.T, assigned, existing []Assignment) {
	t.Helper()
	all := append(append([]Assignment{}, existing...), assigned...)
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if !a.Slot.Overlaps(b.Slot) {
				continue
			}
			assert.NotEqual(t, a.ClassroomID, b.ClassroomID,
				"classroom double-booked: %s and %s", a.SectionID, b.SectionID)
			assert.NotEqual(t, a.InstructorID, b.InstructorID,
				"instructor double-booked: %s and %s", a.SectionID, b.SectionID)
		}
	}
}

func TestRunSchedulesEverythingWhenUnconstrained(t *testing.T) {
	engine := NewEngine(CatalogConfig{}, nil)

	input := Input{
		Sections: []Section{
			{ID: "sec-1", InstructorID: "inst-1", RequiredCapacity: 30},
			{ID: "sec-2", InstructorID: "inst-1", RequiredCapacity: 30},
			{ID: "sec-3", InstructorID: "inst-2", RequiredCapacity: 50},
		},
		Classrooms: []Classroom{
			testClassroom("room-a", 40),
			testClassroom("room-b", 60),
		},
	}

	result := engine.Run(context.Background(), input)

	require.True(t, result.OK)
	assert.Equal(t, "all 3 sections scheduled", result.Message)
	require.Len(t, result.Assigned, 3)
	assert.Empty(t, result.Failed)
	assertNoConflicts(t, result.Assigned, nil)

	byID := make(map[string]Assignment)
	rooms := make(map[string]Classroom)
	for _, room := range input.Classrooms {
		rooms[room.ID] = room
	}
	for _, a := range result.Assigned {
		byID[a.SectionID] = a
	}
	for _, section := range input.Sections {
		a, ok := byID[section.ID]
		require.True(t, ok, section.ID)
		assert.GreaterOrEqual(t, rooms[a.ClassroomID].Capacity, section.RequiredCapacity)
		assert.Equal(t, section.InstructorID, a.InstructorID)
		assert.True(t, a.Slot.Valid())
	}
	assert.Greater(t, result.Stats.TotalIterations, 0)
}

func TestRunLeavesUnplaceableSectionBehind(t *testing.T) {
	engine := NewEngine(CatalogConfig{}, nil)

	// Two rooms but one shared instructor and a single allowed slot: only one
	// of the two sections can be placed.
	slot := TimeSlot{Day: 1, Start: 480, End: 540}
	result := engine.Run(context.Background(), Input{
		Sections: []Section{
			{ID: "sec-1", InstructorID: "inst-1", RequiredCapacity: 10},
			{ID: "sec-2", InstructorID: "inst-1", RequiredCapacity: 10},
		},
		Classrooms: []Classroom{
			testClassroom("room-a", 40),
			testClassroom("room-b", 40),
		},
		Slots: []TimeSlot{slot},
	})

	require.True(t, result.OK)
	require.Len(t, result.Assigned, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "scheduled 1 of 2 sections", result.Message)
	assert.Equal(t, ReasonNoFeasibleSlot, result.Failed[0].Reason)
	assert.NotEqual(t, result.Assigned[0].SectionID, result.Failed[0].SectionID)
}

func TestRunFailsSectionsWithEmptyDomains(t *testing.T) {
	engine := NewEngine(CatalogConfig{}, nil)

	result := engine.Run(context.Background(), Input{
		Sections: []Section{
			{ID: "sec-big", InstructorID: "inst-1", RequiredCapacity: 500},
			{ID: "sec-lab", InstructorID: "inst-2", RequiredCapacity: 20, RequiredFeatures: []string{"lab"}},
			{ID: "sec-ok", InstructorID: "inst-3", RequiredCapacity: 20},
		},
		Classrooms: []Classroom{
			testClassroom("room-a", 40, "projector"),
		},
	})

	require.True(t, result.OK)
	require.Len(t, result.Assigned, 1)
	assert.Equal(t, "sec-ok", result.Assigned[0].SectionID)

	reasons := make(map[string]string)
	for _, f := range result.Failed {
		reasons[f.SectionID] = f.Reason
	}
	assert.Equal(t, ReasonNoCapacity, reasons["sec-big"])
	assert.Equal(t, ReasonNoFeatures, reasons["sec-lab"])
}

func TestRunStopsAtIterationBudget(t *testing.T) {
	engine := NewEngine(CatalogConfig{}, nil)

	result := engine.Run(context.Background(), Input{
		Sections: []Section{
			{ID: "sec-1", InstructorID: "inst-1", RequiredCapacity: 10},
			{ID: "sec-2", InstructorID: "inst-2", RequiredCapacity: 10},
			{ID: "sec-3", InstructorID: "inst-3", RequiredCapacity: 10},
		},
		Classrooms:    []Classroom{testClassroom("room-a", 40)},
		MaxIterations: 1,
	})

	require.True(t, result.OK)
	assert.Len(t, result.Assigned, 1)
	require.Len(t, result.Failed, 2)
	for _, f := range result.Failed {
		assert.Equal(t, ReasonBudgetExhausted, f.Reason)
	}
	assert.Equal(t, 1, result.Stats.TotalIterations)
}

func TestRunHonoursCancellation(t *testing.T) {
	engine := NewEngine(CatalogConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := engine.Run(ctx, Input{
		Sections:   []Section{{ID: "sec-1", InstructorID: "inst-1", RequiredCapacity: 10}},
		Classrooms: []Classroom{testClassroom("room-a", 40)},
	})

	require.True(t, result.OK)
	assert.Empty(t, result.Assigned)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, ReasonBudgetExhausted, result.Failed[0].Reason)
}

func TestRunRespectsExistingPlacements(t *testing.T) {
	engine := NewEngine(CatalogConfig{}, nil)

	slot := TimeSlot{Day: 1, Start: 480, End: 540}
	existing := []Assignment{
		{SectionID: "sec-fixed", ClassroomID: "room-a", InstructorID: "inst-1", Slot: slot},
	}

	result := engine.Run(context.Background(), Input{
		Sections: []Section{
			{ID: "sec-fixed", InstructorID: "inst-1", RequiredCapacity: 10},
			{ID: "sec-new", InstructorID: "inst-2", RequiredCapacity: 10},
		},
		Classrooms: []Classroom{testClassroom("room-a", 40)},
		Slots: []TimeSlot{
			slot,
			{Day: 1, Start: 540, End: 600},
		},
		Existing: existing,
	})

	require.True(t, result.OK)
	require.Len(t, result.Assigned, 1)
	assert.Equal(t, "sec-new", result.Assigned[0].SectionID)
	assert.Empty(t, result.Failed)
	assertNoConflicts(t, result.Assigned, existing)
}

func TestRunIsIdempotentOverItsOwnOutput(t *testing.T) {
	engine := NewEngine(CatalogConfig{}, nil)

	input := Input{
		Sections: []Section{
			{ID: "sec-1", InstructorID: "inst-1", RequiredCapacity: 10},
			{ID: "sec-2", InstructorID: "inst-2", RequiredCapacity: 10},
		},
		Classrooms: []Classroom{testClassroom("room-a", 40)},
	}

	first := engine.Run(context.Background(), input)
	require.Len(t, first.Assigned, 2)

	input.Existing = first.Assigned
	second := engine.Run(context.Background(), input)

	require.True(t, second.OK)
	assert.Empty(t, second.Assigned)
	assert.Empty(t, second.Failed)
}

func TestRunIsDeterministic(t *testing.T) {
	engine := NewEngine(CatalogConfig{}, nil)

	input := Input{
		Sections: []Section{
			{ID: "sec-3", InstructorID: "inst-2", RequiredCapacity: 25},
			{ID: "sec-1", InstructorID: "inst-1", RequiredCapacity: 10},
			{ID: "sec-2", InstructorID: "inst-1", RequiredCapacity: 35},
		},
		Classrooms: []Classroom{
			testClassroom("room-b", 60),
			testClassroom("room-a", 40),
		},
	}

	first := engine.Run(context.Background(), input)
	second := engine.Run(context.Background(), input)

	assert.Equal(t, first.Assigned, second.Assigned)
	assert.Equal(t, first.Failed, second.Failed)
	assert.Equal(t, first.Message, second.Message)
}

func TestRunRejectsMalformedInput(t *testing.T) {
	engine := NewEngine(CatalogConfig{}, nil)
	ctx := context.Background()

	noSections := engine.Run(ctx, Input{Classrooms: []Classroom{testClassroom("room-a", 40)}})
	assert.False(t, noSections.OK)
	assert.Equal(t, "section list is empty", noSections.Message)

	noRooms := engine.Run(ctx, Input{Sections: []Section{{ID: "sec-1"}}})
	assert.False(t, noRooms.OK)
	assert.Equal(t, "classroom catalogue is empty", noRooms.Message)

	badSlot := engine.Run(ctx, Input{
		Sections:   []Section{{ID: "sec-1", InstructorID: "inst-1"}},
		Classrooms: []Classroom{testClassroom("room-a", 40)},
		Slots:      []TimeSlot{{Day: 9, Start: 480, End: 540}},
	})
	assert.False(t, badSlot.OK)
}

func TestRunPacksTightInstructorLoad(t *testing.T) {
	engine := NewEngine(CatalogConfig{}, nil)

	// Three sections, one instructor, exactly three slots on one room. The
	// search has to spread the instructor across all three periods.
	result := engine.Run(context.Background(), Input{
		Sections: []Section{
			{ID: "sec-1", InstructorID: "inst-1", RequiredCapacity: 10},
			{ID: "sec-2", InstructorID: "inst-1", RequiredCapacity: 10},
			{ID: "sec-3", InstructorID: "inst-1", RequiredCapacity: 10},
		},
		Classrooms: []Classroom{testClassroom("room-a", 40)},
		Slots: []TimeSlot{
			{Day: 1, Start: 480, End: 540},
			{Day: 1, Start: 540, End: 600},
			{Day: 1, Start: 600, End: 660},
		},
	})

	require.True(t, result.OK)
	require.Len(t, result.Assigned, 3)
	assert.Empty(t, result.Failed)
	assertNoConflicts(t, result.Assigned, nil)
}
