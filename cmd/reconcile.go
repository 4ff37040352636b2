package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bottletrack/internal/config"
	"bottletrack/internal/inventory"
	"bottletrack/internal/logger"
	"bottletrack/internal/reconcile"
	"bottletrack/internal/sheets"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Sync inventory counts into the stock sheet",
	Long: `Sync per-product bottle counts from the inventory database into the
Google Sheets stock list.

Each sheet row (column A: product name, column B: strength) is matched
against the database by name, strength and size. Naming differences are
tolerated: units, punctuation and size suffixes like "a-30mL" are normalized
away, and near-identical names are matched fuzzily. Strength and size must
always agree exactly. Matched rows get their count written to column C;
unmatched rows are set to 0.

Required environment variables:
  DATABASE_URL - Postgres connection string
  GOOGLE_SHEET_URL - Google Sheets URL of the stock list
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Reconcile all owners
  bottletrack reconcile

  # Reconcile one owner's inventory
  bottletrack reconcile --owner user-42

  # Override the sheet
  bottletrack reconcile --sheet-url https://docs.google.com/spreadsheets/d/... --sheet-name Stock`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("owner", "", "Only reconcile this owner's inventory (default: all owners)")
	reconcileCmd.Flags().String("sheet-url", "", "Google Sheets URL (default: GOOGLE_SHEET_URL)")
	reconcileCmd.Flags().String("sheet-name", "", "Sheet tab name (default: GOOGLE_SHEET_NAME or Sheet1)")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reconcile")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	owner, _ := cmd.Flags().GetString("owner")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	sheetName, _ := cmd.Flags().GetString("sheet-name")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if sheetURL == "" {
		sheetURL = cfg.GoogleSheetURL
	}
	if sheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable or --sheet-url flag is required")
	}
	if sheetName == "" {
		sheetName = cfg.GoogleSheetName
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	log.Info().
		Str("owner", owner).
		Str("sheet_name", sheetName).
		Msg("Starting reconciliation")

	store, err := inventory.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	sheetsService, err := sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		return fmt.Errorf("failed to create sheets service: %w", err)
	}

	reconciler := reconcile.New(store, reconcile.NewSheetRowSource(sheetsService, sheetName), reconcile.Config{
		SimilarityThreshold: cfg.SimilarityThreshold,
		FallbackSize:        cfg.FallbackSize,
		SkipMarkers:         cfg.SkipMarkers,
	})

	summary, err := reconciler.Run(ctx, owner)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	fmt.Printf("Reconciled %d rows: %d matched (%d exact, %d fuzzy), %d not found, %d rows written\n",
		summary.Rows, summary.Matched, summary.Exact, summary.Fuzzy, summary.NotFound, summary.RowsWritten)

	return nil
}
