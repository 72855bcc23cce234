package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagos-app/payment-manager/internal/logger"
	"github.com/pagos-app/payment-manager/internal/schema"
	"github.com/pagos-app/payment-manager/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema and exit",
	Long: `Create the four ledger tables, add columns missing from older databases,
remove duplicate clients and create the unique client index.

With MIGRATIONS=1 (or --versioned) tables are created by the embedded
versioned SQL migrations instead.`,
	Example: `  # Upgrade the configured database
  payment-manager migrate

  # Drop everything and start over (destroys data)
  payment-manager migrate --reset`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Bool("reset", false, "Drop all ledger tables and the migration version table before migrating (destroys data)")
	migrateCmd.Flags().Bool("versioned", false, "Use the versioned SQL migrations; overrides MIGRATIONS")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("migrate")
	ctx := cmd.Context()
	reset, _ := cmd.Flags().GetBool("reset")
	if v, _ := cmd.Flags().GetBool("versioned"); v {
		cfg.Database.Migrations = true
	}

	db, sm, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if reset {
		log.Warn().Str("driver", cfg.Database.Driver).Msg("dropping ledger tables")
		if err := schema.Reset(ctx, db.ORM(ctx)); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	if err := sm.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	h := sm.Health(ctx)
	ev := log.Info().Bool("unique_index", h.UniqueIndex)
	if h.Detail != "" {
		ev = ev.Str("detail", h.Detail)
	}
	if cfg.Database.Migrations {
		opts := schemaOptions(cfg)
		v, dirty, err := schema.Version(store.Kind(cfg.Database.Driver), opts.DatabaseURL)
		if err != nil {
			return fmt.Errorf("read migration version: %w", err)
		}
		ev = ev.Uint("version", v).Bool("dirty", dirty)
	}
	ev.Msg("migrations completed successfully")
	return nil
}
