package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/technotronz/symposium/internal/config"
	"github.com/technotronz/symposium/internal/database"
	"github.com/technotronz/symposium/internal/services"
)

func connect() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	cfg.ConfigureLogging()

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return cfg, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Re-derive payment aggregates from successful transactions",
		Long: `Walk every SUCCESS transaction and restore what it implies:
the event fee flag and amount, the paid-workshop set and the PAID
workshop flag on the user. Nothing is ever revoked.

Examples:
  technotronz-admin reconcile --dry-run
  technotronz-admin reconcile`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			cache, err := services.NewStatusCacheFromURL(cmd.Context(), cfg.RedisURL, cfg.StatusCacheTTL)
			if err != nil {
				return fmt.Errorf("connect status cache: %w", err)
			}
			if closer, ok := cache.(io.Closer); ok {
				defer closer.Close()
			}

			reconciler := services.NewReconciler(
				services.NewPaymentStore(db),
				services.NewUserStore(db),
				services.NewPricing(cfg),
				cache,
			)
			report, err := reconciler.Run(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "Dry run - no changes made")
			}
			fmt.Fprintf(out, "transactions checked: %d\n", report.Transactions)
			fmt.Fprintf(out, "event fees restored:  %d\n", report.EventFixes)
			fmt.Fprintf(out, "workshops restored:   %d\n", report.WorkshopFixes)
			fmt.Fprintf(out, "flags restored:       %d\n", report.FlagFixes)
			fmt.Fprintf(out, "users skipped:        %d\n", report.SkippedUsers)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	return cmd
}

func txnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txn",
		Short: "Inspect payment transactions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [txn_id]",
		Short: "Print a transaction as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			txn, err := services.NewPaymentStore(db).FindTransactionByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(txn)
		},
	})

	return cmd
}
