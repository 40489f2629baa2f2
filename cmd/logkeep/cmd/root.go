// Package cmd holds the logkeep CLI commands. Every command opens the
// configured store backend directly; no server needs to be running.
package cmd

import (
	"os"

	"github.com/GoPolymarket/logkeep/internal/config"
	"github.com/GoPolymarket/logkeep/internal/pkg/logger"
	"github.com/GoPolymarket/logkeep/internal/repository"
	"github.com/GoPolymarket/logkeep/internal/service"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	outputFmt string

	store      *service.LogStore
	closeStore func() error
)

var rootCmd = &cobra.Command{
	Use:   "logkeep",
	Short: "Inspect the persisted application log",
	Long: `logkeep reads and edits the application log store configured in
config.yaml (or LOGKEEP_* environment variables).

Examples:
  # Latest warnings and above
  logkeep list --min-level warn

  # One entry as YAML for sharing
  logkeep export 3f2c... --format yaml

  # Record an entry by hand
  logkeep append info Deploy "release 1.4.2 rolled out" --meta version=1.4.2`,
	SilenceUsage:       true,
	PersistentPreRunE:  openStore,
	PersistentPostRunE: shutdownStore,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "output format (table, json, yaml)")
}

func openStore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger.InitTo(os.Stderr, cfg.Log.Level, "text")

	port, closer, err := repository.Open(cfg)
	if err != nil {
		return err
	}
	s, err := service.NewLogStore(cmd.Context(), port, service.WithKey(cfg.Store.Key))
	if err != nil {
		closer()
		return err
	}
	store, closeStore = s, closer
	return nil
}

func shutdownStore(cmd *cobra.Command, args []string) error {
	if closeStore == nil {
		return nil
	}
	err := closeStore()
	store, closeStore = nil, nil
	return err
}
