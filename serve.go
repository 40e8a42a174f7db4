package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"site-uptime/internal/audit"
	"site-uptime/internal/auth"
	"site-uptime/internal/config"
	"site-uptime/internal/observability/metrics"
	reportapp "site-uptime/internal/reporting/application"
	jobmemory "site-uptime/internal/reporting/infrastructure/memory"
	reporthttp "site-uptime/internal/reporting/interfaces/http"
	uptime "site-uptime/internal/uptime/domain"
	uptimepostgres "site-uptime/internal/uptime/infrastructure/postgres"
)

func newServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configFile)
		},
	}
}

func runServe(ctx context.Context, configFile string) error {
	cfg, logger, err := bootstrap(configFile)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("db open error")
		return err
	}
	defer db.Close()

	metrics.Init(db, logger)
	store := uptimepostgres.NewStore(db)

	manager, err := buildManager(cfg, store, logger)
	if err != nil {
		return err
	}
	if cfg.Report.DailyAt != "" {
		scheduler, err := reportapp.NewScheduler(manager, cfg.Report.DailyAt, logger)
		if err != nil {
			return err
		}
		go scheduler.Start(ctx)
	}

	auditRepo := audit.NewRepository(db)
	var auditLogger audit.Logger = auditRepo
	if err := auditRepo.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Warn("audit table unavailable; auditing to log")
		auditLogger = audit.LogrusLogger{Logger: logger}
	}
	handler, err := reporthttp.NewHandler(manager, logger, reporthttp.WithAuditLogger(auditLogger))
	if err != nil {
		return err
	}

	policy := auth.NewDefaultPolicy([]string{"/", "/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.Auth.JWTSecret), policy)
	authMiddleware.Logger = logger
	if !authMiddleware.Enabled() {
		logger.WithField("event", "auth_disabled").Warn("AUTH_JWT_SECRET empty; report API is open")
	}

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: reporthttp.NewRouter(handler, reporthttp.RouterOptions{
			Logger: logger,
			Auth:   authMiddleware.Wrap,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("http listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if err := manager.Wait(shutdownCtx); err != nil {
		logger.WithError(err).Warn("report jobs still running at exit")
	}
	return nil
}

func buildManager(cfg config.Config, source uptime.Source, logger logrus.FieldLogger) (*reportapp.Manager, error) {
	missing, err := cfg.MissingHoursPolicy()
	if err != nil {
		return nil, err
	}
	closedDay, err := cfg.ClosedDayPolicy()
	if err != nil {
		return nil, err
	}
	fallback, err := cfg.FallbackLocation()
	if err != nil {
		return nil, err
	}

	hours, err := uptime.NewBusinessHoursResolver(source, missing)
	if err != nil {
		return nil, err
	}
	zones, err := uptime.NewTimezoneResolver(source, fallback)
	if err != nil {
		return nil, err
	}
	calc, err := uptime.NewSpanCalculator(source, hours, zones, uptime.WithClosedDayPolicy(closedDay))
	if err != nil {
		return nil, err
	}
	return reportapp.NewManager(jobmemory.NewJobStore(), source, calc,
		reportapp.WithWorkers(cfg.Report.Workers),
		reportapp.WithUniformUnits(cfg.Report.UniformUnits),
		reportapp.WithLogger(logger),
	)
}
