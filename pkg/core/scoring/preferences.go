package scoring

import (
	"time"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

const (
	MinPreferenceStrength     = 1
	NeutralPreferenceStrength = 3
	MaxPreferenceStrength     = 5
)

// PreferenceIndex resolves an employee's preference strength for a slot
type PreferenceIndex struct {
	explicit  map[string][]model.Preference
	preferred map[string][]model.Availability
}

// NewPreferenceIndex indexes explicit preferences and PREFERRED availability statements
func NewPreferenceIndex(preferences []model.Preference, availability []model.Availability) *PreferenceIndex {
	idx := &PreferenceIndex{
		explicit:  make(map[string][]model.Preference),
		preferred: make(map[string][]model.Availability),
	}
	for _, p := range preferences {
		idx.explicit[p.EmployeeID] = append(idx.explicit[p.EmployeeID], p)
	}
	for _, a := range availability {
		if a.Type == model.AvailabilityPreferred {
			idx.preferred[a.EmployeeID] = append(idx.preferred[a.EmployeeID], a)
		}
	}
	return idx
}

// Strength returns the preference strength for the window on the given date.
// The explicit preference with the largest overlap wins (stronger on ties);
// a PREFERRED availability counts as the maximum strength.
func (idx *PreferenceIndex) Strength(employeeID string, date time.Time, start, end model.TimeOfDay) (int, bool) {
	if idx == nil {
		return 0, false
	}

	best, bestOverlap := 0, 0
	for _, p := range idx.explicit[employeeID] {
		if p.DayOfWeek != date.Weekday() {
			continue
		}
		overlap := overlapMinutes(start, end, p.Start, p.End)
		if overlap == 0 {
			continue
		}
		if overlap > bestOverlap || (overlap == bestOverlap && p.Strength > best) {
			best, bestOverlap = p.Strength, overlap
		}
	}
	if bestOverlap > 0 {
		return best, true
	}

	for _, a := range idx.preferred[employeeID] {
		if a.AppliesOn(date) && model.RangesOverlap(start, end, a.Start, a.End) {
			return MaxPreferenceStrength, true
		}
	}
	return 0, false
}

func overlapMinutes(aStart, aEnd, bStart, bEnd model.TimeOfDay) int {
	ref := time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)
	a := model.NewWindow(ref, aStart, aEnd)
	b := model.NewWindow(ref, bStart, bEnd)
	if !a.Overlaps(b) {
		return 0
	}
	start, end := a.Start, a.End
	if b.Start.After(start) {
		start = b.Start
	}
	if b.End.Before(end) {
		end = b.End
	}
	return int(end.Sub(start).Minutes())
}
