package main

import (
	"context"
	"database/sql"
	"os"
	_ "time/tzdata"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"site-uptime/internal/config"
	"site-uptime/internal/logging"
)

const serviceName = "site-uptime"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Store uptime/downtime reporting service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (default $"+config.ConfigPathEnv+")")

	root.AddCommand(
		newServeCommand(&configFile),
		newMigrateCommand(&configFile),
		newLoadCommand(&configFile),
	)
	return root
}

// bootstrap loads config and builds the logger shared by every subcommand.
func bootstrap(configFile string) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: serviceName,
	})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
