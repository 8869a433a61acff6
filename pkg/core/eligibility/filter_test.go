package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

func mondaySlot() coverage.Slot {
	return coverage.Slot{
		ID:    "slot-1",
		Date:  model.MustDate("2025-03-03"),
		Start: model.MustTimeOfDay("09:00"),
		End:   model.MustTimeOfDay("17:00"),
	}
}

func TestCheck_ActiveEmployeeIsEligible(t *testing.T) {
	f := NewFilter(nil, nil, true)
	v := f.Check(model.Employee{ID: "e1", IsActive: true}, mondaySlot())
	assert.True(t, v.Eligible)
	assert.Empty(t, v.Reasons)
}

func TestCheck_CollectsEveryReason(t *testing.T) {
	slot := mondaySlot()
	slot.RequiresKeyholder = true
	slot.RequiredQualifications = []string{"first-aid"}

	f := NewFilter(
		[]model.Availability{{EmployeeID: "e1", DayOfWeek: time.Monday, Start: model.MustTimeOfDay("12:00"), End: model.MustTimeOfDay("14:00"), Type: model.AvailabilityUnavailable}},
		[]model.Absence{{EmployeeID: "e1", StartDate: model.MustDate("2025-03-01"), EndDate: model.MustDate("2025-03-03")}},
		true,
	)

	v := f.Check(model.Employee{ID: "e1"}, slot)
	assert.False(t, v.Eligible)
	assert.Equal(t, []Reason{ReasonInactive, ReasonAbsent, ReasonUnavailable, ReasonMissingQualification, ReasonNotKeyholder}, v.Reasons)
}

func TestCheck_UnavailabilityOutsideSlotHoursIgnored(t *testing.T) {
	f := NewFilter([]model.Availability{
		{EmployeeID: "e1", DayOfWeek: time.Monday, Start: model.MustTimeOfDay("18:00"), End: model.MustTimeOfDay("22:00"), Type: model.AvailabilityUnavailable},
		{EmployeeID: "e1", DayOfWeek: time.Tuesday, Start: model.MustTimeOfDay("09:00"), End: model.MustTimeOfDay("17:00"), Type: model.AvailabilityUnavailable},
		{EmployeeID: "e1", DayOfWeek: time.Monday, Start: model.MustTimeOfDay("09:00"), End: model.MustTimeOfDay("17:00"), Type: model.AvailabilityAvailable},
	}, nil, true)

	assert.True(t, f.Check(model.Employee{ID: "e1", IsActive: true}, mondaySlot()).Eligible)
}

func TestCheck_DateBoundedUnavailability(t *testing.T) {
	from := model.MustDate("2025-03-10")
	f := NewFilter([]model.Availability{
		{EmployeeID: "e1", DayOfWeek: time.Monday, Start: model.MustTimeOfDay("00:00"), End: model.MustTimeOfDay("23:45"), Type: model.AvailabilityUnavailable, ValidFrom: &from},
	}, nil, true)

	employee := model.Employee{ID: "e1", IsActive: true}
	assert.True(t, f.Check(employee, mondaySlot()).Eligible)

	later := mondaySlot()
	later.Date = model.MustDate("2025-03-10")
	assert.False(t, f.Check(employee, later).Eligible)
}

func TestCheck_KeyholderRuleCanBeRelaxed(t *testing.T) {
	slot := mondaySlot()
	slot.RequiresKeyholder = true
	employee := model.Employee{ID: "e1", IsActive: true}

	assert.False(t, NewFilter(nil, nil, true).Check(employee, slot).Eligible)
	assert.True(t, NewFilter(nil, nil, false).Check(employee, slot).Eligible)
}

func TestEligible_PreservesOrderAndMayBeEmpty(t *testing.T) {
	f := NewFilter(nil, nil, true)
	employees := []model.Employee{
		{ID: "c", IsActive: true},
		{ID: "a", IsActive: false},
		{ID: "b", IsActive: true},
	}

	eligible := f.Eligible(mondaySlot(), employees)
	assert.Equal(t, []string{"c", "b"}, []string{eligible[0].ID, eligible[1].ID})

	assert.Empty(t, f.Eligible(mondaySlot(), []model.Employee{{ID: "x"}}))
}
