package memory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Fixture is the YAML form of Inputs
type Fixture struct {
	Employees []struct {
		ID                    string   `yaml:"id"`
		FirstName             string   `yaml:"firstName"`
		LastName              string   `yaml:"lastName"`
		ContractedWeeklyHours float64  `yaml:"contractedWeeklyHours"`
		Keyholder             bool     `yaml:"keyholder"`
		Active                *bool    `yaml:"active"`
		SeniorityYears        *float64 `yaml:"seniorityYears"`
		Qualifications        []string `yaml:"qualifications"`
	} `yaml:"employees"`
	ShiftTemplates []struct {
		ID            string   `yaml:"id"`
		Start         string   `yaml:"start"`
		End           string   `yaml:"end"`
		Type          string   `yaml:"type"`
		RequiresBreak bool     `yaml:"requiresBreak"`
		ActiveDays    []string `yaml:"activeDays"`
	} `yaml:"shiftTemplates"`
	CoverageRequirements []struct {
		ID             string   `yaml:"id"`
		Day            string   `yaml:"day"`
		Start          string   `yaml:"start"`
		End            string   `yaml:"end"`
		Min            int      `yaml:"min"`
		Max            int      `yaml:"max"`
		Qualifications []string `yaml:"qualifications"`
		Keyholder      bool     `yaml:"keyholder"`
		ShiftTemplate  string   `yaml:"shiftTemplate"`
	} `yaml:"coverageRequirements"`
	CoveragePatterns []struct {
		ID             string   `yaml:"id"`
		Name           string   `yaml:"name"`
		Days           []string `yaml:"days"`
		RRule          string   `yaml:"rrule"`
		ValidFrom      string   `yaml:"validFrom"`
		ValidTo        string   `yaml:"validTo"`
		Start          string   `yaml:"start"`
		End            string   `yaml:"end"`
		Min            int      `yaml:"min"`
		Max            int      `yaml:"max"`
		Qualifications []string `yaml:"qualifications"`
		Keyholder      bool     `yaml:"keyholder"`
		ShiftTemplate  string   `yaml:"shiftTemplate"`
	} `yaml:"coveragePatterns"`
	Availability []struct {
		Employee  string `yaml:"employee"`
		Day       string `yaml:"day"`
		Start     string `yaml:"start"`
		End       string `yaml:"end"`
		Type      string `yaml:"type"`
		ValidFrom string `yaml:"validFrom"`
		ValidTo   string `yaml:"validTo"`
	} `yaml:"availability"`
	Preferences []struct {
		Employee string `yaml:"employee"`
		Day      string `yaml:"day"`
		Start    string `yaml:"start"`
		End      string `yaml:"end"`
		Strength int    `yaml:"strength"`
	} `yaml:"preferences"`
	Absences []struct {
		Employee string `yaml:"employee"`
		Start    string `yaml:"start"`
		End      string `yaml:"end"`
		Reason   string `yaml:"reason"`
	} `yaml:"absences"`
	Performance []struct {
		Employee    string  `yaml:"employee"`
		Punctuality float64 `yaml:"punctuality"`
		Reliability float64 `yaml:"reliability"`
	} `yaml:"performance"`
}

// LoadFixture reads a fixture file into a new store
func LoadFixture(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	inputs, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixture %s: %w", path, err)
	}
	return New(inputs), nil
}

// ParseFixture decodes and converts fixture YAML; unknown keys are rejected
func ParseFixture(data []byte) (Inputs, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Inputs{}, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}

	p := &parser{}
	var in Inputs

	for _, e := range f.Employees {
		active := e.Active == nil || *e.Active
		in.Employees = append(in.Employees, model.Employee{
			ID:                    e.ID,
			FirstName:             e.FirstName,
			LastName:              e.LastName,
			ContractedWeeklyHours: e.ContractedWeeklyHours,
			IsKeyholder:           e.Keyholder,
			IsActive:              active,
			SeniorityYears:        e.SeniorityYears,
			Qualifications:        e.Qualifications,
		})
	}

	for _, t := range f.ShiftTemplates {
		in.Templates = append(in.Templates, model.ShiftTemplate{
			ID:            t.ID,
			Start:         p.tod(t.Start),
			End:           p.tod(t.End),
			Type:          model.ShiftType(t.Type),
			RequiresBreak: t.RequiresBreak,
			ActiveDays:    p.weekdays(t.ActiveDays),
		})
	}

	for _, r := range f.CoverageRequirements {
		in.Requirements = append(in.Requirements, model.CoverageRequirement{
			ID:                     r.ID,
			DayOfWeek:              p.weekday(r.Day),
			Start:                  p.tod(r.Start),
			End:                    p.tod(r.End),
			MinEmployees:           r.Min,
			MaxEmployees:           r.Max,
			RequiredQualifications: r.Qualifications,
			RequiresKeyholder:      r.Keyholder,
			ShiftTemplateID:        r.ShiftTemplate,
		})
	}

	for _, c := range f.CoveragePatterns {
		in.Patterns = append(in.Patterns, model.RecurringCoveragePattern{
			ID:                     c.ID,
			Name:                   c.Name,
			DaysOfWeek:             p.weekdays(c.Days),
			RRule:                  c.RRule,
			ValidFrom:              p.optionalDate(c.ValidFrom),
			ValidTo:                p.optionalDate(c.ValidTo),
			Start:                  p.tod(c.Start),
			End:                    p.tod(c.End),
			MinEmployees:           c.Min,
			MaxEmployees:           c.Max,
			RequiredQualifications: c.Qualifications,
			RequiresKeyholder:      c.Keyholder,
			ShiftTemplateID:        c.ShiftTemplate,
		})
	}

	for _, a := range f.Availability {
		typ := model.AvailabilityType(a.Type)
		if !typ.IsValid() {
			p.fail(fmt.Errorf("unknown availability type %q", a.Type))
		}
		in.Availability = append(in.Availability, model.Availability{
			EmployeeID: a.Employee,
			DayOfWeek:  p.weekday(a.Day),
			Start:      p.tod(a.Start),
			End:        p.tod(a.End),
			Type:       typ,
			ValidFrom:  p.optionalDate(a.ValidFrom),
			ValidTo:    p.optionalDate(a.ValidTo),
		})
	}

	for _, pr := range f.Preferences {
		in.Preferences = append(in.Preferences, model.Preference{
			EmployeeID: pr.Employee,
			DayOfWeek:  p.weekday(pr.Day),
			Start:      p.tod(pr.Start),
			End:        p.tod(pr.End),
			Strength:   pr.Strength,
		})
	}

	for _, a := range f.Absences {
		in.Absences = append(in.Absences, model.Absence{
			EmployeeID: a.Employee,
			StartDate:  p.date(a.Start),
			EndDate:    p.date(a.End),
			Reason:     a.Reason,
		})
	}

	for _, perf := range f.Performance {
		in.Performance = append(in.Performance, model.Performance{
			EmployeeID:  perf.Employee,
			Punctuality: perf.Punctuality,
			Reliability: perf.Reliability,
		})
	}

	if p.err != nil {
		return Inputs{}, fmt.Errorf("%w: %v", model.ErrInvalidInput, p.err)
	}
	return in, nil
}

// parser keeps the first conversion error so the fixture can be converted in one pass
type parser struct {
	err error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parser) tod(s string) model.TimeOfDay {
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		p.fail(err)
	}
	return t
}

func (p *parser) weekday(s string) time.Weekday {
	d, err := model.ParseWeekday(s)
	if err != nil {
		p.fail(err)
	}
	return d
}

func (p *parser) weekdays(days []string) []time.Weekday {
	var out []time.Weekday
	for _, s := range days {
		out = append(out, p.weekday(s))
	}
	return out
}

func (p *parser) date(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		p.fail(err)
	}
	return d
}

func (p *parser) optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	d := p.date(s)
	return &d
}
