package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import exported log entries",
	Long: `Import entries produced by "logkeep export" or "logkeep list -o json|yaml".
The file may hold one entry or an array. Timestamps are kept; an id that
already exists rejects the whole file.

Examples:
  logkeep import entry.yaml
  logkeep list -o json > backup.json && logkeep import backup.json --config other.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	entries, err := decodeEntries(data, filepath.Ext(args[0]))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}
	if err := store.Import(cmd.Context(), entries...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d log entries\n", len(entries))
	return nil
}

func decodeEntries(data []byte, ext string) ([]*model.LogEntry, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		// Round-trip through JSON so metadata lands in LogEntry.Metadata.
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var entries []*model.LogEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
	var entry model.LogEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return []*model.LogEntry{&entry}, nil
}
