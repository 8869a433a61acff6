package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/services"
	"github.com/jakechorley/shift-planner/pkg/export"
)

// EditEntryCmd creates the edit-entry command
func EditEntryCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit-entry <version> <entry-id>",
		Short: "Change one entry of a DRAFT version",
		Long: `Move an entry onto a shift template, give it a custom window, reassign it, move it to
another date in the version's range, or turn it into a day off. Changing the window
removes the break.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			edit := services.EntryEdit{Version: version, EntryID: args[1]}

			if cmd.Flags().Changed("shift") {
				shift, _ := cmd.Flags().GetString("shift")
				edit.ShiftID = &shift
			}
			if edit.Start, err = timeFlag(cmd, "start"); err != nil {
				return err
			}
			if edit.End, err = timeFlag(cmd, "end"); err != nil {
				return err
			}
			if cmd.Flags().Changed("date") {
				date, err := dateFlag(cmd, "date")
				if err != nil {
					return err
				}
				edit.Date = &date
			}
			if cmd.Flags().Changed("notes") {
				notes, _ := cmd.Flags().GetString("notes")
				edit.Notes = &notes
			}
			edit.EmployeeID, _ = cmd.Flags().GetString("employee")
			edit.Off, _ = cmd.Flags().GetBool("off")

			if edit.Off && (edit.ShiftID != nil || edit.Start != nil || edit.End != nil) {
				return fmt.Errorf("%w: --off cannot be combined with --shift, --start or --end", model.ErrInvalidInput)
			}

			entry, err := services.EditEntry(app.Ctx, app.Database, app.Logger, edit)
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Entry %s updated: %s %s %s\n\n", entry.ID, model.FormatDate(entry.Date), entry.EmployeeID, export.DescribeEntry(*entry))
			return nil
		},
	}

	cmd.Flags().String("shift", "", "Shift template ID; the entry takes the template's window")
	cmd.Flags().String("start", "", "Custom start time (HH:MM)")
	cmd.Flags().String("end", "", "Custom end time (HH:MM)")
	cmd.Flags().String("date", "", "Move the entry to another date (YYYY-MM-DD)")
	cmd.Flags().String("employee", "", "Reassign the entry to another employee ID")
	cmd.Flags().String("notes", "", "Replace the entry's notes")
	cmd.Flags().Bool("off", false, "Turn the entry into a day off")

	return cmd
}
