package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagos-app/payment-manager/internal/audit"
	"github.com/pagos-app/payment-manager/internal/logger"
	"github.com/pagos-app/payment-manager/internal/server"
	"github.com/pagos-app/payment-manager/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API on PORT after bringing the schema up to date.

When AUDIT_SCHEDULE holds a cron spec (for example "@every 1h" or
"0 3 * * *"), the ledger audit also runs on that schedule.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("server")
	ctx := cmd.Context()

	db, sm, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sm.Migrate(ctx); err != nil {
		return err
	}
	log.Info().
		Str("driver", cfg.Database.Driver).
		Str("reversal_policy", services.PolicyFor(cfg.Ledger.RestoreDocumentOnDelete).String()).
		Msg("schema ready")

	if spec := cfg.Ledger.AuditSchedule; spec != "" {
		sched := audit.NewScheduler(audit.New(db, sm))
		if err := sched.Start(spec); err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.New(db, sm, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-quit:
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}
