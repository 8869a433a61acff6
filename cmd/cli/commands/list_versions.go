package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// ListVersionsCmd creates the versions command
func ListVersionsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List schedule versions with their status and entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := services.ListVersions(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Println("No versions yet. Run generate to create one.")
				return nil
			}

			fmt.Printf("\n%s%-8s  %-10s  %-23s  %-7s  %-5s  %s%s\n", colorBold, "Version", "Status", "Range", "Entries", "Base", "Notes", colorReset)
			fmt.Println(strings.Repeat("-", 80))
			for _, v := range versions {
				base := "-"
				if v.BaseVersion != nil {
					base = fmt.Sprintf("%d", *v.BaseVersion)
				}
				fmt.Printf("%-8d  %s%-10s%s  %s to %s  %-7d  %-5s  %s\n",
					v.Version,
					versionStatusColor(v.Status), v.Status, colorReset,
					model.FormatDate(v.StartDate), model.FormatDate(v.EndDate),
					v.EntryCount, base, v.Notes)
			}
			fmt.Println()
			return nil
		},
	}
}

func versionStatusColor(s model.VersionStatus) string {
	switch s {
	case model.StatusPublished:
		return colorGreen
	case model.StatusDraft:
		return colorYellow
	default:
		return colorReset
	}
}
