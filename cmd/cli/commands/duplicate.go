package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// DuplicateCmd creates the duplicate command
func DuplicateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicate <version>",
		Short: "Copy a version into a new DRAFT for editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			notes, _ := cmd.Flags().GetString("notes")

			v, err := services.DuplicateVersion(app.Ctx, app.Database, app.Logger, version, notes)
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Version %d created from version %d (%s)\n\n", v.Version, version, v.Status)
			return nil
		},
	}

	cmd.Flags().String("notes", "", "Notes stored on the new version")
	return cmd
}
