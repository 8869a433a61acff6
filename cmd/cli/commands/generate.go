package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/allocator"
	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// GenerateCmd creates the generate command. Exit code 2 means the version was
// committed (or dry-run computed) with under-staffed slots.
func GenerateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new DRAFT schedule version for a date range",
		Long: `Resolve coverage for the range, score and assign employees, and commit the result
as a new DRAFT version. Exit code is 0 when every slot reached its minimum, 2 when
some slots are short, and 1 when the run failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := dateFlag(cmd, "start")
			if err != nil {
				return err
			}
			end, err := dateFlag(cmd, "end")
			if err != nil {
				return err
			}
			overrides, err := overridesFromFlags(cmd)
			if err != nil {
				return err
			}

			req := services.GenerateRequest{Start: start, End: end, Overrides: overrides}
			req.AllowEmpty, _ = cmd.Flags().GetBool("allow-empty")
			req.DryRun, _ = cmd.Flags().GetBool("dry-run")
			req.Notes, _ = cmd.Flags().GetString("notes")
			if cmd.Flags().Changed("base-version") {
				base, _ := cmd.Flags().GetInt("base-version")
				req.BaseVersion = &base
			}

			app.Logger.Debug("generate command",
				zap.Time("start", start),
				zap.Time("end", end),
				zap.Bool("dry_run", req.DryRun),
				zap.Bool("allow_empty", req.AllowEmpty))

			result, err := services.GenerateSchedule(app.Ctx, app.Database, app.Locker, app.Cfg, app.Logger, req)
			if result == nil {
				return err
			}

			employees, listErr := app.Database.ListEmployees(app.Ctx)
			if listErr != nil {
				app.Logger.Warn("Failed to load employee names", zap.Error(listErr))
			}
			names := employeeNames(employees)

			fmt.Printf("\n🗓  Schedule generation\n\n")
			fmt.Printf("Run ID:  %s\n", result.RunID)
			fmt.Printf("Range:   %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
			fmt.Printf("Status:  %s%s%s\n", statusColor(result.Status), result.Status, colorReset)
			switch {
			case result.Version != nil:
				fmt.Printf("Version: %d (%s)\n", result.Version.Version, result.Version.Status)
			case req.DryRun && err == nil:
				fmt.Printf("Mode:    🧪 DRY RUN (not saved)\n")
			}

			if len(result.Slots) > 0 {
				fmt.Printf("\nSlots:\n")
				printSlots(os.Stdout, result.Slots, names)
			}
			if len(result.Entries) > 0 {
				fmt.Println()
				printEntries(os.Stdout, result.Entries, names)
			}
			printRunLog(os.Stdout, result.Log)
			fmt.Println()

			if err != nil {
				return err
			}
			if result.Status == allocator.StatusPartial {
				return &ExitError{Code: 2, Msg: "some slots are below their minimum headcount"}
			}
			return nil
		},
	}

	cmd.Flags().String("start", "", "First date of the range (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Last date of the range, inclusive (YYYY-MM-DD)")
	cmd.Flags().Int("base-version", 0, "Version whose entries in range pre-fill the new version")
	cmd.Flags().Bool("allow-empty", false, "Add a placeholder entry for every employee on every day they do not work")
	cmd.Flags().Bool("dry-run", false, "Compute the schedule without saving it")
	cmd.Flags().String("notes", "", "Notes stored on the new version")
	addOverrideFlags(cmd)

	return cmd
}
