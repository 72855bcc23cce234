package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagos-app/payment-manager/i18n"
	"github.com/pagos-app/payment-manager/internal/config"
	"github.com/pagos-app/payment-manager/internal/logger"
	"github.com/pagos-app/payment-manager/internal/schema"
	"github.com/pagos-app/payment-manager/internal/store"
)

var version = "1.0.0"

// cfg is loaded once before any command runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "payment-manager",
	Short: "Payment Manager - client balances, documents and payments",
	Long: `Payment Manager keeps client balances and document outstanding amounts
consistent with the payments recorded against them.

Without a subcommand it starts the HTTP API (same as "serve").
The storage backend is chosen with DB_DRIVER (sqlite or postgres).`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg = config.Load()
	if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
		cfg.Database.Driver = driver
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Setup(cfg.Log); err != nil {
		return fmt.Errorf("logger setup: %w", err)
	}
	i18n.SetDefault(cfg.DefaultLang)
	return nil
}

func init() {
	rootCmd.PersistentFlags().String("driver", "", "Storage backend (sqlite|postgres); overrides DB_DRIVER")
}

// openDatabase opens the configured backend and prepares its schema manager.
func openDatabase(ctx context.Context, c config.Config) (store.Adapter, *schema.Manager, error) {
	db, err := store.Open(ctx, c.Database, logger.NewGormLogger(c.Database.Debug))
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", c.Database.Driver, err)
	}
	sm := schema.NewManager(db, schemaOptions(c))
	return db, sm, nil
}

func schemaOptions(c config.Config) schema.Options {
	opts := schema.Options{Versioned: c.Database.Migrations}
	if opts.Versioned {
		opts.DatabaseURL = schema.DatabaseURL(store.Kind(c.Database.Driver), c.Database.SQLitePath, c.Database.DSN)
	}
	return opts
}
