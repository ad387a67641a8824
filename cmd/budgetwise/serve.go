package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"budgetwise/internal/auth"
	"budgetwise/internal/cache"
	"budgetwise/internal/cli"
	"budgetwise/internal/config"
	"budgetwise/internal/events"
	"budgetwise/internal/export/sheets"
	apphttp "budgetwise/internal/http"
	applog "budgetwise/internal/log"
	"budgetwise/internal/services"
	"budgetwise/internal/session"
)

const (
	shutdownTimeout = 30 * time.Second
	purgeInterval   = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	if cfg.SessionAgeIdentity == "" {
		logger.Warn("SESSION_AGE_IDENTITY is not set, sessions will not survive a restart")
	}
	sealer, err := session.NewSealer(cfg.SessionAgeIdentity)
	if err != nil {
		return err
	}
	sessions, err := session.Open(cfg.SessionDBPath, sealer, cfg.SessionTTL)
	if err != nil {
		return err
	}
	defer sessions.Close()

	publisher := openPublisher(cfg, logger)
	defer publisher.Close()

	svcCfg := services.Config{
		CacheTTL:    cfg.CacheTTL,
		CacheSize:   cfg.CacheSize,
		CallTimeout: cfg.APITimeout,
		Events:      publisher,
		Logger:      logger,
	}
	if cfg.SheetsEnabled() {
		exporter, err := sheets.New(ctx, sheetsConfig(cfg))
		if err != nil {
			return err
		}
		svcCfg.Sheets = exporter
	}
	svc := services.New(svcCfg)

	caches := cache.NewManager()
	for _, c := range svc.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Services:           svc,
		Auth:               auth.New(cfg, sessions, res.Provider),
		Sessions:           sessions,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	// Advice generation may take twice the backend timeout.
	srv.WriteTimeout = 2*cfg.APITimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeSessions(purgeCtx, sessions, logger.WithComponent(applog.ComponentSession))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("Starting budgetwise server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"auth_mode", cfg.AuthMode,
			"events", cfg.EventsEnabled(),
			"sheets", cfg.SheetsEnabled())
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		}
		listenErr <- err
		stop()
	}()

	if err := cli.GracefulShutdown(runCtx, logger, shutdownTimeout, srv.Shutdown); err != nil {
		logger.Error("Server shutdown error", applog.FieldError, err)
	}
	if err := <-listenErr; err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// openPublisher connects to the broker when AMQP_URL is set. A broker that
// is down at start-up disables events rather than the dashboard.
func openPublisher(cfg *config.Config, logger *applog.Logger) events.Publisher {
	if !cfg.EventsEnabled() {
		return events.NopPublisher{}
	}
	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.WithComponent(applog.ComponentEvents).Warn("Record events disabled", applog.FieldError, err)
		return events.NopPublisher{}
	}
	return client
}

func sheetsConfig(cfg *config.Config) sheets.Config {
	return sheets.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}
}

func purgeSessions(ctx context.Context, sessions *session.Store, logger *applog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("Session purge failed", applog.FieldError, err)
				continue
			}
			if n > 0 {
				logger.Info("Purged expired sessions", applog.FieldCount, n)
			}
		}
	}
}
