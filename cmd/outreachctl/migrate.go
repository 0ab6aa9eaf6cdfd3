package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/okian/outreach/internal/adapters/repository"
	"github.com/okian/outreach/pkg/logger"
)

var migrateDatabaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending Postgres schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		url := migrateDatabaseURL
		if url == "" {
			url = cfg.DatabaseURL
		}
		if url == "" {
			return eris.New("no database url: pass --database-url or set OUTREACH_DATABASE_URL")
		}

		version, err := repository.Migrate(url)
		if err != nil {
			return err
		}
		logger.Get().Info(cmd.Context(), "schema up to date", logger.Int("version", int(version)))
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDatabaseURL, "database-url", "", "Postgres URL (defaults to database_url from config)")
	rootCmd.AddCommand(migrateCmd)
}
