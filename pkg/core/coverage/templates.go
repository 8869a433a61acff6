package coverage

import (
	"time"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

type templateMatcher struct {
	byID      map[string]model.ShiftTemplate
	templates []model.ShiftTemplate
}

func newTemplateMatcher(templates []model.ShiftTemplate) *templateMatcher {
	m := &templateMatcher{byID: make(map[string]model.ShiftTemplate), templates: templates}
	for _, t := range templates {
		m.byID[t.ID] = t
	}
	return m
}

// match returns the pinned template when it exists and applies on the date,
// otherwise the first template with the same window that applies on the date
func (m *templateMatcher) match(pinned string, date time.Time, start, end model.TimeOfDay) *string {
	if pinned != "" {
		if t, ok := m.byID[pinned]; ok && t.AppliesOn(date.Weekday()) {
			id := t.ID
			return &id
		}
	}
	for _, t := range m.templates {
		if t.Start == start && t.End == end && t.AppliesOn(date.Weekday()) {
			id := t.ID
			return &id
		}
	}
	return nil
}
