package postgres

import (
	"fmt"
	"time"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// TIME columns are written from and read into "HH:MM" text

func timeParam(t *model.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func scanTime(s *string) (*model.TimeOfDay, error) {
	if s == nil {
		return nil, nil
	}
	t, err := model.ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanRequiredTime(s string) (model.TimeOfDay, error) {
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		return 0, fmt.Errorf("invalid stored time: %w", err)
	}
	return t, nil
}

func weekdays(days []int16) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(d)
	}
	return out
}

func dateParam(t time.Time) string {
	return model.FormatDate(t)
}

func scanDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := model.NormalizeDate(*t)
	return &d
}
