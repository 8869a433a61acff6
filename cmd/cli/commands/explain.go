package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/allocator"
	"github.com/jakechorley/shift-planner/pkg/core/scoring"
	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// ExplainCmd creates the explain command
func ExplainCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show how every employee would score for one slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dateFlag(cmd, "date")
			if err != nil {
				return err
			}
			start, err := timeFlag(cmd, "start")
			if err != nil {
				return err
			}
			end, err := timeFlag(cmd, "end")
			if err != nil {
				return err
			}
			if start == nil || end == nil {
				return fmt.Errorf("--start and --end are required")
			}
			overrides, err := overridesFromFlags(cmd)
			if err != nil {
				return err
			}

			req := services.ExplainRequest{Date: date, Start: *start, End: *end, Overrides: overrides}
			req.MinEmployees, _ = cmd.Flags().GetInt("min")
			req.MaxEmployees, _ = cmd.Flags().GetInt("max")
			req.RequiresKeyholder, _ = cmd.Flags().GetBool("keyholder")
			req.Qualifications, _ = cmd.Flags().GetStringSlice("qual")
			req.ShiftTemplateID, _ = cmd.Flags().GetString("shift")

			result, err := services.ExplainCandidates(app.Ctx, app.Database, app.Cfg, app.Logger, req)
			if err != nil {
				return err
			}

			fmt.Printf("\n🔍 Candidates for %s", result.Slot.Describe())
			if !result.Slot.Window.IsZero() {
				fmt.Printf(" (window %s to %s)", result.Slot.Window.Start.Format("Jan 02 15:04"), result.Slot.Window.End.Format("Jan 02 15:04"))
			}
			fmt.Printf("\n\n")
			for _, c := range result.Candidates {
				printCandidate(c)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("date", "", "Date of the slot (YYYY-MM-DD)")
	cmd.Flags().String("start", "", "Slot start (HH:MM)")
	cmd.Flags().String("end", "", "Slot end (HH:MM)")
	cmd.Flags().Int("min", 1, "Minimum headcount")
	cmd.Flags().Int("max", 0, "Maximum headcount (defaults to the minimum)")
	cmd.Flags().Bool("keyholder", false, "The slot needs a keyholder")
	cmd.Flags().StringSlice("qual", nil, "Required qualification (repeatable)")
	cmd.Flags().String("shift", "", "Pin the slot to a shift template")
	addOverrideFlags(cmd)

	return cmd
}

func printCandidate(c allocator.CandidateExplanation) {
	name := c.Employee.FullName()
	switch {
	case c.Breakdown != nil:
		fmt.Printf("  %s#%-2d%s %-24s score %.3f\n", colorGreen, c.Rank, colorReset, name, c.Breakdown.Score)
		for _, comp := range c.Breakdown.Components {
			note := ""
			if comp.Missing != scoring.DataPresent {
				note = " (" + comp.Missing.String() + ")"
			}
			fmt.Printf("        %-13s %.3f × %.2f = %.3f%s\n", comp.Factor, comp.Raw, comp.Weight, comp.Weighted, note)
		}
	case c.Veto != nil:
		fmt.Printf("  %s✗%s   %-24s vetoed by %s: %s\n", colorYellow, colorReset, name, c.Veto.CriterionName, c.Veto.Reason)
	default:
		reasons := make([]string, len(c.Verdict.Reasons))
		for i, r := range c.Verdict.Reasons {
			reasons[i] = string(r)
		}
		fmt.Printf("  %s✗%s   %-24s ineligible: %s\n", colorRed, colorReset, name, strings.Join(reasons, ", "))
	}
}
