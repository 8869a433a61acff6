package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/scoring"
)

func TestAllocate_PreAllocationCountsTowardHeadcount(t *testing.T) {
	a := newTestAllocator(t, scoring.DefaultConfig(), Options{}, defaultCriteria()...)

	slot := slotOn("2025-03-03", "09:00", "17:00", 1, 2)
	in := baseInput([]coverage.Slot{slot}, []model.Employee{employee("amy"), employee("bob")})
	in.PreAllocations = []model.ScheduleEntry{entryFor("base-1", "amy", "2025-03-03", "09:00", "17:00")}

	outcome, run := allocate(t, a, in)

	require.Len(t, outcome.Slots, 1)
	assert.Equal(t, 1, outcome.Slots[0].PreFilled)
	assert.Equal(t, 1, run.Log.Count(CodePreAllocated))
	require.Len(t, outcome.Assignments, 1, "one place left after the base entry")
	assert.Equal(t, "bob", outcome.Assignments[0].EmployeeID, "amy already holds the window")
	assert.Equal(t, SlotFilled, outcome.Slots[0].Status)
}

func TestAllocate_PreAllocationMatchesByShiftTemplate(t *testing.T) {
	a := newTestAllocator(t, scoring.DefaultConfig(), Options{}, defaultCriteria()...)

	shiftID := "early"
	slot := slotOn("2025-03-03", "06:00", "14:00", 1, 1)
	slot.ShiftID = &shiftID

	base := entryFor("base-1", "amy", "2025-03-03", "06:30", "14:00")
	base.ShiftID = &shiftID
	in := baseInput([]coverage.Slot{slot}, []model.Employee{employee("amy"), employee("bob")})
	in.PreAllocations = []model.ScheduleEntry{base}

	outcome, _ := allocate(t, a, in)

	assert.Equal(t, 1, outcome.Slots[0].PreFilled)
	assert.Empty(t, outcome.Assignments)
}

func TestAllocate_PreAllocationCoversOneSlotOnly(t *testing.T) {
	a := newTestAllocator(t, scoring.DefaultConfig(), Options{}, defaultCriteria()...)

	first := slotOn("2025-03-03", "09:00", "17:00", 1, 1)
	second := slotOn("2025-03-03", "09:00", "17:00", 1, 1)
	second.ID += "#2"

	in := baseInput([]coverage.Slot{first, second}, []model.Employee{employee("amy"), employee("bob")})
	in.PreAllocations = []model.ScheduleEntry{entryFor("base-1", "amy", "2025-03-03", "09:00", "17:00")}

	outcome, _ := allocate(t, a, in)

	assert.Equal(t, 1, outcome.Slots[0].PreFilled)
	assert.Equal(t, 0, outcome.Slots[1].PreFilled)
	require.Len(t, outcome.Assignments, 1)
	assert.Equal(t, "bob", outcome.Assignments[0].EmployeeID)
}

func TestAllocate_OverStaffedBaseVersionWarns(t *testing.T) {
	a := newTestAllocator(t, scoring.DefaultConfig(), Options{}, defaultCriteria()...)

	slot := slotOn("2025-03-03", "09:00", "17:00", 1, 1)
	in := baseInput([]coverage.Slot{slot}, []model.Employee{employee("amy"), employee("bob")})
	in.PreAllocations = []model.ScheduleEntry{
		entryFor("base-1", "amy", "2025-03-03", "09:00", "17:00"),
		entryFor("base-2", "bob", "2025-03-03", "09:00", "17:00"),
	}

	outcome, run := allocate(t, a, in)

	assert.Equal(t, 2, outcome.Slots[0].PreFilled)
	assert.Empty(t, outcome.Assignments)
	assert.Equal(t, 1, run.Log.Count(CodeOverStaffed))
}

func TestAllocate_PlaceholdersAreNotPreAllocations(t *testing.T) {
	a := newTestAllocator(t, scoring.DefaultConfig(), Options{}, defaultCriteria()...)

	slot := slotOn("2025-03-03", "09:00", "17:00", 1, 1)
	in := baseInput([]coverage.Slot{slot}, []model.Employee{employee("amy")})
	in.PreAllocations = []model.ScheduleEntry{{ID: "empty", EmployeeID: "amy", Date: slot.Date}}

	outcome, _ := allocate(t, a, in)

	assert.Equal(t, 0, outcome.Slots[0].PreFilled)
	require.Len(t, outcome.Assignments, 1)
}
