package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// PublishCmd creates the publish command
func PublishCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <version>",
		Short: "Publish a DRAFT version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			if err := services.PublishVersion(app.Ctx, app.Database, app.Logger, version); err != nil {
				return err
			}
			fmt.Printf("\n✓ Version %d published\n\n", version)
			return nil
		},
	}
}
