package main

import (
	"github.com/spf13/cobra"

	"site-uptime/internal/audit"
	uptimepostgres "site-uptime/internal/uptime/infrastructure/postgres"
)

func newMigrateCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the store_status, business_hours and stores tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configFile)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := uptimepostgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			if err := audit.NewRepository(db).EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			logger.WithField("event", "migrate_complete").Info("schema up to date")
			return nil
		},
	}
}
