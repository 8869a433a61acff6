package scoring

import (
	"fmt"
	"strings"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Factor identifies one component of the fitness score
type Factor int

const (
	FactorAvailability Factor = iota
	FactorPreferences
	FactorFairness
	FactorHistory
	FactorWorkload
	FactorKeyholder
	FactorSkills
	FactorFatigue
	FactorSeniority

	factorCount
)

var factorNames = [factorCount]string{
	FactorAvailability: "availability",
	FactorPreferences:  "preferences",
	FactorFairness:     "fairness",
	FactorHistory:      "history",
	FactorWorkload:     "workload",
	FactorKeyholder:    "keyholder",
	FactorSkills:       "skills",
	FactorFatigue:      "fatigue",
	FactorSeniority:    "seniority",
}

func (f Factor) String() string {
	if f < 0 || f >= factorCount {
		return fmt.Sprintf("factor(%d)", int(f))
	}
	return factorNames[f]
}

// Factors returns every factor in declaration order
func Factors() []Factor {
	factors := make([]Factor, factorCount)
	for i := range factors {
		factors[i] = Factor(i)
	}
	return factors
}

// ParseFactor resolves a factor by its lower-case name
func ParseFactor(name string) (Factor, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range factorNames {
		if candidate == n {
			return Factor(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown scoring factor %q", model.ErrInvalidInput, name)
}

// Weights holds one weight per factor. Weights need not sum to 1.
type Weights [factorCount]float64

// DefaultWeights returns the weights used when no configuration overrides them
func DefaultWeights() Weights {
	var w Weights
	w[FactorAvailability] = 1.0
	w[FactorPreferences] = 1.5
	w[FactorFairness] = 2.0
	w[FactorHistory] = 1.0
	w[FactorWorkload] = 2.0
	w[FactorKeyholder] = 1.0
	w[FactorSkills] = 1.0
	w[FactorFatigue] = 1.5
	w[FactorSeniority] = 0.5
	return w
}

// Total returns the sum of all weights
func (w Weights) Total() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Validate rejects negative weights and an all-zero weight set
func (w Weights) Validate() error {
	for i, v := range w {
		if v < 0 {
			return fmt.Errorf("weight for %s must not be negative (got %v)", Factor(i), v)
		}
	}
	if w.Total() <= 0 {
		return fmt.Errorf("at least one scoring weight must be positive")
	}
	return nil
}

// Missing explains why a factor fell back to the neutral score
type Missing int

const (
	DataPresent Missing = iota
	NoHistory
	NoPreferenceData
	NoSeniorityData
	NoTeamBaseline
)

func (m Missing) String() string {
	switch m {
	case DataPresent:
		return ""
	case NoHistory:
		return "no history"
	case NoPreferenceData:
		return "no preference data"
	case NoSeniorityData:
		return "no seniority data"
	case NoTeamBaseline:
		return "no team baseline"
	}
	return fmt.Sprintf("missing(%d)", int(m))
}

// NeutralScore is the value every factor takes when its input data is missing
const NeutralScore = 0.5
