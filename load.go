package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	uptime "site-uptime/internal/uptime/domain"
	"site-uptime/internal/uptime/infrastructure/csvload"
	uptimepostgres "site-uptime/internal/uptime/infrastructure/postgres"
)

type loadOptions struct {
	statusFile   string
	hoursFile    string
	timezoneFile string
	chunkSize    int
	replace      bool
}

func newLoadCommand(configFile *string) *cobra.Command {
	opts := loadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk load store status, business hours and timezone CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.statusFile == "" && opts.hoursFile == "" && opts.timezoneFile == "" {
				return fmt.Errorf("load: at least one of --status, --hours, --timezones is required")
			}
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
			return runLoad(cmd.Context(), uptimepostgres.NewStore(db), opts, logger)
		},
	}

	cmd.Flags().StringVar(&opts.statusFile, "status", "", "store status CSV (store_id,timestamp_utc,status)")
	cmd.Flags().StringVar(&opts.hoursFile, "hours", "", "business hours CSV (store_id,day,start_time_local,end_time_local)")
	cmd.Flags().StringVar(&opts.timezoneFile, "timezones", "", "timezone CSV (store_id,timezone_str)")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", csvload.DefaultChunkSize, "rows per insert transaction")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "delete existing rows before loading")
	return cmd
}

// bulkWriter is the write side of the collaborator store.
type bulkWriter interface {
	Reset(ctx context.Context) error
	InsertObservations(ctx context.Context, observations []uptime.Observation) error
	InsertBusinessHours(ctx context.Context, rules []uptime.BusinessHoursRule) error
	UpsertTimezones(ctx context.Context, zones map[string]string) error
}

func runLoad(ctx context.Context, store bulkWriter, opts loadOptions, logger logrus.FieldLogger) error {
	if opts.chunkSize <= 0 {
		opts.chunkSize = csvload.DefaultChunkSize
	}
	if opts.replace {
		if err := store.Reset(ctx); err != nil {
			return fmt.Errorf("load: reset: %w", err)
		}
		logger.WithField("event", "load_reset").Info("existing rows deleted")
	}

	if opts.statusFile != "" {
		file, err := os.Open(opts.statusFile)
		if err != nil {
			return err
		}
		stats, err := csvload.ReadObservations(file, opts.chunkSize, logger, func(chunk []uptime.Observation) error {
			return store.InsertObservations(ctx, chunk)
		})
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("load %s: %w", opts.statusFile, err)
		}
		logger.WithFields(logrus.Fields{
			"event":     "load_store_status",
			"rows":      stats.Rows,
			"processed": stats.Processed,
			"skipped":   stats.Skipped,
		}).Info("store status loaded")
	}

	if opts.hoursFile != "" {
		file, err := os.Open(opts.hoursFile)
		if err != nil {
			return err
		}
		rules, err := csvload.ReadBusinessHours(file)
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("load %s: %w", opts.hoursFile, err)
		}
		for start := 0; start < len(rules); start += opts.chunkSize {
			end := min(start+opts.chunkSize, len(rules))
			if err := store.InsertBusinessHours(ctx, rules[start:end]); err != nil {
				return fmt.Errorf("load %s: %w", opts.hoursFile, err)
			}
		}
		logger.WithFields(logrus.Fields{"event": "load_business_hours", "rows": len(rules)}).Info("business hours loaded")
	}

	if opts.timezoneFile != "" {
		file, err := os.Open(opts.timezoneFile)
		if err != nil {
			return err
		}
		zones, err := csvload.ReadTimezones(file)
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("load %s: %w", opts.timezoneFile, err)
		}
		if err := store.UpsertTimezones(ctx, zones); err != nil {
			return fmt.Errorf("load %s: %w", opts.timezoneFile, err)
		}
		logger.WithFields(logrus.Fields{"event": "load_timezones", "rows": len(zones)}).Info("store timezones loaded")
	}
	return nil
}
