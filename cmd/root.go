package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bottletrack/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "bottletrack",
	Short: "Bottletrack CLI - bottle label capture and inventory reconciliation",
	Long: `Bottletrack CLI captures e-liquid bottle labels into structured inventory
records and keeps a Google Sheets stock list in sync with the database.

Label photos are read with OCR (Tesseract or Google Cloud Vision) and the
fields are extracted with pattern rules, optionally sharpened by a vision
model. The reconcile command pushes per-product stock counts back into the
sheet, tolerating the naming differences between the sheet and the database.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Bottletrack CLI executed")

		fmt.Println("Welcome to Bottletrack CLI!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
