package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// ExportCmd creates the export command
func ExportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <version>",
		Short: "Export a version as a workbook, calendars, or a Google Sheets tab",
		Long: `Formats:
  xlsx    one sheet per ISO week plus a summary of scheduled and contracted hours (--out file)
  ics     one calendar per employee (--out directory)
  sheets  a tab in the configured spreadsheet; published versions only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")
			tz, _ := cmd.Flags().GetString("tz")

			req := services.ExportRequest{Version: version, Format: services.ExportFormat(format), Out: out}
			if tz != "" {
				if req.Location, err = time.LoadLocation(tz); err != nil {
					return fmt.Errorf("unknown time zone %q: %w", tz, err)
				}
			}

			var publisher services.SchedulePublisher
			if req.Format == services.FormatSheets {
				if publisher, err = app.SheetsPublisher(); err != nil {
					return err
				}
				req.SpreadsheetID = app.Cfg.Sheets.SpreadsheetID
			}

			written, err := services.ExportVersion(app.Ctx, app.Database, publisher, app.Logger, req)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Version %d exported as %s\n", version, format)
			for _, w := range written {
				fmt.Printf("  %s\n", w)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("format", "xlsx", "Export format: xlsx, ics or sheets")
	cmd.Flags().String("out", "", "Output file (xlsx) or directory (ics)")
	cmd.Flags().String("tz", "", "IANA time zone for calendar events (defaults to local time)")

	return cmd
}
