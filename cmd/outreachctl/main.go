// Command outreachctl runs one-off jobs against the outreach service:
// range backfills, offline classification and schema migrations.
package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/okian/outreach/internal/config"
	"github.com/okian/outreach/pkg/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "outreachctl",
	Short: "Operator tooling for the outreach service",
	Long:  "Backfills USAC filings into a running service, classifies filing files offline and migrates the Postgres schema.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Init(); err != nil {
			return eris.Wrap(err, "init logger")
		}
		c, err := config.Load(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c
		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			_ = logger.SetLevelString("info")
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
