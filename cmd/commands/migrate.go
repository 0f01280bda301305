package commands

import (
	"github.com/spf13/cobra"

	"github.com/leadsourcer/leadsourcer/config"
	"github.com/leadsourcer/leadsourcer/internal/db"
	"github.com/leadsourcer/leadsourcer/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		conn, err := openDatabase(config.Load())
		if err != nil {
			return err
		}
		if err := db.Migrate(conn); err != nil {
			return err
		}
		logger.Info("Migrations completed")
		return nil
	},
}
