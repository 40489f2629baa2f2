package cmd

import (
	"fmt"
	"strings"

	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/GoPolymarket/logkeep/internal/pkg/apperrors"
	"github.com/spf13/cobra"
)

var appendMeta []string

var appendCmd = &cobra.Command{
	Use:   "append <level> <tag> <message>",
	Short: "Append a log entry",
	Long: `Append a log entry to the store.

Examples:
  logkeep append warn Disk "volume at 91%"
  logkeep append info Deploy "rolled out" --meta version=1.4.2 --meta region=eu`,
	Args: cobra.ExactArgs(3),
	RunE: runAppend,
}

func init() {
	rootCmd.AddCommand(appendCmd)
	appendCmd.Flags().StringArrayVarP(&appendMeta, "meta", "m", nil, "metadata key=value (repeatable)")
}

func runAppend(cmd *cobra.Command, args []string) error {
	level, err := model.ParseLevel(args[0])
	if err != nil {
		return err
	}
	meta, err := parseMeta(appendMeta)
	if err != nil {
		return err
	}

	entry, err := store.Append(cmd.Context(), level, args[1], args[2], meta)
	if err != nil && !apperrors.IsType(err, apperrors.ErrPersistence) {
		return err
	}
	if printErr := NewPrinter(cmd.OutOrStdout(), outputFmt).PrintEntry(entry); printErr != nil {
		return printErr
	}
	// The entry was built but not written; report it after showing it.
	return err
}

func parseMeta(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		meta[strings.TrimSpace(k)] = v
	}
	return meta, nil
}
