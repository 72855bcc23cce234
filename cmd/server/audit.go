package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagos-app/payment-manager/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check ledger consistency and print a JSON report",
	Long: `Report payments whose detail lines do not add up to the payment amount,
documents whose outstanding amount is negative or above the original amount,
and whether the unique client index is in place.`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().Bool("strict", false, "Exit with an error when the report is not clean")
}

func runAudit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	strict, _ := cmd.Flags().GetBool("strict")

	db, sm, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := sm.Migrate(ctx); err != nil {
		return err
	}

	report, err := audit.New(db, sm).Run(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if strict && !report.Clean() {
		return fmt.Errorf("ledger audit: %d findings", len(report.Findings))
	}
	return nil
}
