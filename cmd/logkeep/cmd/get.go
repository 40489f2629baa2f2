package cmd

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one log entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := store.GetByID(args[0])
		if err != nil {
			return err
		}
		return NewPrinter(cmd.OutOrStdout(), outputFmt).PrintEntry(entry)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
