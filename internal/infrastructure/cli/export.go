package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/feedback/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download all feedback as CSV or JSON (admin)",
	Long: `Download all feedback as CSV or JSON.

The file is named after the backend's attachment filename unless --output is
given. Use --output - to write to stdout.

Examples:
  feedback export
  feedback export --format json --output feedback-2024.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := sdk.ExportFormat(exportFormat)
		if !format.IsValid() {
			return NewCLIError(fmt.Sprintf("unsupported export format %q", exportFormat), "Use --format csv or --format json", nil)
		}

		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		exp, err := services.Desk.Export(cmd.Context(), format)
		if err != nil {
			return MapError(err)
		}

		if exportOutput == "-" {
			_, err := cmd.OutOrStdout().Write(exp.Data)
			return err
		}
		path := exportOutput
		if path == "" {
			path = exp.Filename
		}
		// G306: Use 0600 for files
		if err := os.WriteFile(path, exp.Data, 0600); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", exp.Records, path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(sdk.ExportCSV), "Export format: csv or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: the backend's filename, - for stdout)")
	RootCmd.AddCommand(exportCmd)
}
