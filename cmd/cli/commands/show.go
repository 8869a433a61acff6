package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// ShowCmd creates the show command
func ShowCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <version>",
		Short: "Show the entries of a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}

			v, entries, err := services.ShowVersion(app.Ctx, app.Database, app.Logger, version)
			if err != nil {
				return err
			}
			employees, err := app.Database.ListEmployees(app.Ctx)
			if err != nil {
				app.Logger.Warn("Failed to load employee names", zap.Error(err))
			}

			fmt.Printf("\nVersion %d %s%s%s  %s to %s\n", v.Version,
				versionStatusColor(v.Status), v.Status, colorReset,
				model.FormatDate(v.StartDate), model.FormatDate(v.EndDate))
			if v.BaseVersion != nil {
				fmt.Printf("Based on version %d\n", *v.BaseVersion)
			}
			if v.Notes != "" {
				fmt.Printf("Notes: %s\n", v.Notes)
			}
			fmt.Println()
			printEntries(os.Stdout, entries, employeeNames(employees))
			fmt.Println()
			return nil
		},
	}
}
