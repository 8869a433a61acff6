package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// ArchiveCmd creates the archive command
func ArchiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <version>",
		Short: "Archive a DRAFT or PUBLISHED version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			if err := services.ArchiveVersion(app.Ctx, app.Database, app.Logger, version); err != nil {
				return err
			}
			fmt.Printf("\n✓ Version %d archived\n\n", version)
			return nil
		},
	}
}
