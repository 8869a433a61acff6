package scoring

import (
	"fmt"
	"math"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Config holds the scoring configuration for one run
type Config struct {
	Weights              Weights
	FatigueThresholdDays int
	WeeklyHourTarget     float64
	HistoryLookbackDays  int
}

// DefaultConfig returns the built-in scoring configuration
func DefaultConfig() Config {
	return Config{
		Weights:              DefaultWeights(),
		FatigueThresholdDays: 5,
		WeeklyHourTarget:     40,
		HistoryLookbackDays:  28,
	}
}

// Validate checks the configuration before any scoring happens
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	if c.FatigueThresholdDays < 1 {
		return fmt.Errorf("%w: fatigue threshold must be at least 1 day", model.ErrInvalidInput)
	}
	if c.WeeklyHourTarget <= 0 {
		return fmt.Errorf("%w: weekly hour target must be positive", model.ErrInvalidInput)
	}
	if c.HistoryLookbackDays < 0 {
		return fmt.Errorf("%w: history lookback must not be negative", model.ErrInvalidInput)
	}
	return nil
}

// Tuning constants for the individual factors
const (
	// Workload degrades linearly from 1.0 at target to WorkloadFloor at target*(1+WorkloadOverflow)
	WorkloadOverflow = 0.25
	WorkloadFloor    = 0.1

	// Each day past the fatigue threshold costs FatigueStep, never below FatigueFloor
	FatigueStep  = 0.2
	FatigueFloor = 0.2

	// History blends performance with an experience bonus capped at ExperienceCapShifts
	ExperienceWeight    = 0.1
	ExperienceCapShifts = 50
)

// Input is everything the scorer needs for one (employee, slot) pair
type Input struct {
	Employee model.Employee
	History  *EmployeeHistory
	// Preference is the declared strength for the slot, nil when none applies
	Preference *int
	// WeekHours is the employee's accumulated hours in the slot's week before this assignment
	WeekHours float64
	// ConsecutiveDays is the streak of worked days ending the day before the slot
	ConsecutiveDays int
	// TeamAverageWeeklyHours is nil when no team baseline exists
	TeamAverageWeeklyHours *float64

	SlotHours             float64
	SlotRequiresKeyholder bool
	SlotQualifications    []string
}

// Component is one factor's contribution to a score
type Component struct {
	Factor   Factor
	Raw      float64
	Weight   float64
	Weighted float64
	Missing  Missing
}

// Breakdown is the explain-mode output of a single score
type Breakdown struct {
	EmployeeID string
	Components [factorCount]Component
	Score      float64
}

// Scorer computes normalized fitness scores
type Scorer struct {
	cfg Config
}

// NewScorer validates the configuration and returns a scorer
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the configuration the scorer was built with
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score returns the weighted fitness score in [0,1]
func (s *Scorer) Score(in Input) float64 {
	return s.Explain(in).Score
}

// Explain returns every component's raw and weighted value alongside the final score
func (s *Scorer) Explain(in Input) Breakdown {
	b := Breakdown{EmployeeID: in.Employee.ID}

	set := func(f Factor, raw float64, missing Missing) {
		raw = clamp01(raw)
		w := s.cfg.Weights[f]
		b.Components[f] = Component{Factor: f, Raw: raw, Weight: w, Weighted: raw * w, Missing: missing}
	}

	preference, preferenceMissing := preferenceScore(in.Preference)
	fairness, fairnessMissing := fairnessScore(in.History, in.TeamAverageWeeklyHours)
	history, historyMissing := historyScore(in.History)
	seniority, seniorityMissing := seniorityScore(in.Employee.SeniorityYears)

	set(FactorAvailability, 1.0, DataPresent)
	set(FactorPreferences, preference, preferenceMissing)
	set(FactorFairness, fairness, fairnessMissing)
	set(FactorHistory, history, historyMissing)
	set(FactorWorkload, workloadScore(in.WeekHours+in.SlotHours, s.cfg.WeeklyHourTarget), DataPresent)
	set(FactorKeyholder, keyholderScore(in.SlotRequiresKeyholder), DataPresent)
	set(FactorSkills, skillsScore(in.Employee, in.SlotQualifications), DataPresent)
	set(FactorFatigue, fatigueScore(in.ConsecutiveDays, s.cfg.FatigueThresholdDays), DataPresent)
	set(FactorSeniority, seniority, seniorityMissing)

	sum := 0.0
	for _, c := range b.Components {
		sum += c.Weighted
	}
	b.Score = clamp01(sum / s.cfg.Weights.Total())
	return b
}

func preferenceScore(strength *int) (float64, Missing) {
	if strength == nil {
		return NeutralScore, NoPreferenceData
	}
	span := float64(MaxPreferenceStrength - MinPreferenceStrength)
	return NeutralScore + float64(*strength-NeutralPreferenceStrength)/span, DataPresent
}

// fairnessScore rewards employees below the team average and penalizes those above it
func fairnessScore(h *EmployeeHistory, teamAverage *float64) (float64, Missing) {
	if teamAverage == nil || *teamAverage <= 0 {
		return NeutralScore, NoTeamBaseline
	}
	gap := (*teamAverage - h.AverageWeeklyHours()) / *teamAverage
	return NeutralScore + NeutralScore*gap, DataPresent
}

func historyScore(h *EmployeeHistory) (float64, Missing) {
	if !h.HasData() {
		return NeutralScore, NoHistory
	}
	performance := NeutralScore
	if h.Performance != nil {
		performance = (h.Performance.Punctuality + h.Performance.Reliability) / 2
	}
	experience := math.Min(float64(h.TotalShifts)/ExperienceCapShifts, 1)
	return performance*(1-ExperienceWeight) + experience*ExperienceWeight, DataPresent
}

// workloadScore is 1.0 up to the target, then falls linearly to the floor at the overflow limit
func workloadScore(projected, target float64) float64 {
	if projected <= target {
		return 1.0
	}
	limit := target * (1 + WorkloadOverflow)
	if projected >= limit {
		return WorkloadFloor
	}
	over := (projected - target) / (limit - target)
	return 1.0 - over*(1.0-WorkloadFloor)
}

func keyholderScore(required bool) float64 {
	if required {
		return 1.0
	}
	return NeutralScore
}

func skillsScore(e model.Employee, required []string) float64 {
	if len(required) == 0 {
		return 1.0
	}
	held := 0
	for _, q := range required {
		if e.HasQualification(q) {
			held++
		}
	}
	return float64(held) / float64(len(required))
}

// fatigueScore takes the worked-day streak before the day being scored
func fatigueScore(streak, threshold int) float64 {
	if streak < threshold {
		return 1.0
	}
	return math.Max(1.0-float64(streak-threshold+1)*FatigueStep, FatigueFloor)
}

func seniorityScore(years *float64) (float64, Missing) {
	if years == nil {
		return NeutralScore, NoSeniorityData
	}
	switch y := *years; {
	case y < 1:
		return 0.3, DataPresent
	case y < 3:
		return 0.5, DataPresent
	case y < 5:
		return 0.7, DataPresent
	case y < 10:
		return 0.85, DataPresent
	default:
		return 1.0, DataPresent
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
