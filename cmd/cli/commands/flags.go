package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

func parseVersion(arg string) (int, error) {
	v, err := strconv.Atoi(arg)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: version must be a positive number, got %q", model.ErrInvalidInput, arg)
	}
	return v, nil
}

func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: --%s is required", model.ErrInvalidInput, name)
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s: %v", model.ErrInvalidInput, name, err)
	}
	return d, nil
}

// timeFlag returns nil when the flag was not given
func timeFlag(cmd *cobra.Command, name string) (*model.TimeOfDay, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	s, _ := cmd.Flags().GetString(name)
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		return nil, fmt.Errorf("%w: --%s: %v", model.ErrInvalidInput, name, err)
	}
	return &t, nil
}

// overridesFromFlags reads the scoring flags that were explicitly set
func overridesFromFlags(cmd *cobra.Command) (config.Overrides, error) {
	var o config.Overrides
	flags := cmd.Flags()

	weights, _ := flags.GetStringToString("weight")
	if len(weights) > 0 {
		o.Weights = make(map[string]float64, len(weights))
		for name, raw := range weights {
			value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return o, fmt.Errorf("%w: weight %s: %v", model.ErrInvalidInput, name, err)
			}
			o.Weights[name] = value
		}
	}

	if flags.Changed("fatigue-threshold") {
		v, _ := flags.GetInt("fatigue-threshold")
		o.FatigueThresholdDays = &v
	}
	if flags.Changed("weekly-target") {
		v, _ := flags.GetFloat64("weekly-target")
		o.WeeklyHourTarget = &v
	}
	if flags.Changed("lookback-days") {
		v, _ := flags.GetInt("lookback-days")
		o.HistoryLookbackDays = &v
	}
	if flags.Changed("max-consecutive") {
		v, _ := flags.GetInt("max-consecutive")
		o.MaxConsecutiveDays = &v
	}
	if flags.Changed("min-rest") {
		v, _ := flags.GetFloat64("min-rest")
		o.MinRestHours = &v
	}
	return o, nil
}

func addOverrideFlags(cmd *cobra.Command) {
	cmd.Flags().StringToString("weight", nil, "Scoring weight override, e.g. --weight fairness=3 (repeatable)")
	cmd.Flags().Int("fatigue-threshold", 0, "Consecutive days before fatigue applies")
	cmd.Flags().Float64("weekly-target", 0, "Weekly hour target used when an employee has no contract")
	cmd.Flags().Int("lookback-days", 0, "Days of published history to consider")
	cmd.Flags().Int("max-consecutive", 0, "Maximum consecutive working days")
	cmd.Flags().Float64("min-rest", 0, "Minimum rest hours between shifts")
}
