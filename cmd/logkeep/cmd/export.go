package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportFile   string
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export one log entry as JSON or YAML",
	Long: `Export one log entry for sharing, including its level display.

Examples:
  logkeep export 3f2c... --format yaml
  logkeep export 3f2c... -f json --file entry.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "json or yaml")
	exportCmd.Flags().StringVar(&exportFile, "file", "", "write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	data, err := store.Export(args[0], exportFormat)
	if err != nil {
		return err
	}
	if exportFile != "" {
		return os.WriteFile(exportFile, data, 0o644)
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err = out.Write([]byte("\n"))
	}
	return err
}
