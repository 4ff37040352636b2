package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bottletrack/internal/capture"
	"bottletrack/internal/config"
	"bottletrack/internal/extract"
	"bottletrack/internal/inventory"
	"bottletrack/internal/logger"
	"bottletrack/internal/ocr"
	"bottletrack/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [image]",
	Short: "Extract bottle label fields from a photo",
	Long: `Extract bottle label fields (name, strength, size, batch, expiration)
from a label photo.

Single-image mode reads one photo of the whole label. Multi-field mode takes
one cropped photo per field via repeated --field flags; each field is
recognized with its own OCR character whitelist.

AI-enhanced extraction runs when OPENAI_API_KEY (or a Document AI label
processor) is configured; it falls back to plain OCR extraction on any
failure, so a capture never errors out.

Optional environment variables:
  OPENAI_API_KEY - enables AI-enhanced extraction
  OCR_PROVIDER   - "tesseract" (default) or "vision"
  DATABASE_URL   - required for --save`,
	Example: `  # Whole-label capture
  bottletrack extract label.jpg

  # One photo per field
  bottletrack extract --field name=name.jpg --field mg=strength.jpg --field bottleSize=size.jpg

  # Capture and store the record
  bottletrack extract label.jpg --save --owner user-42

  # Skip the AI pass even when configured
  bottletrack extract label.jpg --no-ai`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringArray("field", nil, "Per-field image as field=path (repeatable; fields: name, mg, bottleSize, batchNumber, expirationDate)")
	extractCmd.Flags().Bool("no-ai", false, "Disable AI-enhanced extraction for this run")
	extractCmd.Flags().Bool("save", false, "Insert the extracted record into the inventory database")
	extractCmd.Flags().String("owner", "", "Owner ID for --save")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fieldFlags, _ := cmd.Flags().GetStringArray("field")
	noAI, _ := cmd.Flags().GetBool("no-ai")
	save, _ := cmd.Flags().GetBool("save")
	owner, _ := cmd.Flags().GetString("owner")

	if len(args) == 0 && len(fieldFlags) == 0 {
		return fmt.Errorf("either an image argument or at least one --field flag is required")
	}
	if len(args) > 0 && len(fieldFlags) > 0 {
		return fmt.Errorf("the image argument and --field flags are mutually exclusive")
	}
	if save && owner == "" {
		return fmt.Errorf("--save requires --owner")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	orchestrator, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	useAI := !noAI

	var rec models.ExtractedRecord
	if len(args) > 0 {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image %s: %w", args[0], err)
		}
		log.Info().Str("image", args[0]).Bool("ai", useAI).Msg("Starting single-image capture")
		rec = orchestrator.ExtractSingle(ctx, image, useAI)
	} else {
		images, err := parseFieldFlags(fieldFlags)
		if err != nil {
			return err
		}
		log.Info().Int("fields", len(images)).Bool("ai", useAI).Msg("Starting multi-field capture")
		rec = orchestrator.ExtractMultiField(ctx, images, useAI)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	fmt.Println(string(out))

	if save {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for --save")
		}
		store, err := inventory.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare schema: %w", err)
		}

		bottle, err := store.InsertBottle(ctx, models.Bottle{
			OwnerID:        owner,
			Name:           rec.Name,
			Brand:          rec.Brand,
			Strength:       rec.Strength,
			BottleSize:     rec.BottleSize,
			BatchNumber:    rec.BatchNumber,
			ExpirationDate: rec.ExpirationDate,
		})
		if err != nil {
			return fmt.Errorf("failed to save bottle: %w", err)
		}
		fmt.Printf("Saved bottle %s\n", bottle.ID)
	}

	return nil
}

// buildOrchestrator wires OCR, extraction rules and strategies from config.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*capture.Orchestrator, error) {
	ocrService, err := ocr.New(ctx, cfg.OCRProvider, cfg.TessdataPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR service: %w", err)
	}

	ex := extract.New(extract.Config{
		StrengthMin: cfg.StrengthMin,
		StrengthMax: cfg.StrengthMax,
		SizeMin:     cfg.SizeMin,
		SizeMax:     cfg.SizeMax,
		BrandTokens: cfg.BrandTokens,
	})

	var enhanced capture.Strategy
	switch {
	case cfg.OpenAIAPIKey != "":
		enhanced = capture.NewOpenAIStrategy(cfg.OpenAIAPIKey, cfg.OpenAIModel, ex)
	case cfg.LabelProcessorID != "":
		enhanced, err = capture.NewDocumentAIStrategy(ctx, capture.DocumentAIConfig{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.GoogleCloudLocation,
			ProcessorID:      cfg.LabelProcessorID,
			ProcessorVersion: cfg.LabelProcessorVersion,
		}, ex)
		if err != nil {
			return nil, fmt.Errorf("failed to create Document AI strategy: %w", err)
		}
	}

	return capture.NewOrchestrator(ocrService, enhanced, capture.NewPlainStrategy(ex), ex), nil
}

// parseFieldFlags loads the per-field images named by repeated --field flags.
func parseFieldFlags(flags []string) (map[extract.Field][]byte, error) {
	known := make(map[extract.Field]bool)
	for _, f := range extract.Fields() {
		known[f] = true
	}

	images := make(map[extract.Field][]byte, len(flags))
	for _, flag := range flags {
		parts := strings.SplitN(flag, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --field value %q, expected field=path", flag)
		}
		field := extract.Field(parts[0])
		if !known[field] {
			return nil, fmt.Errorf("unknown field %q (fields: name, mg, bottleSize, batchNumber, expirationDate)", parts[0])
		}
		image, err := os.ReadFile(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to read image for field %s: %w", field, err)
		}
		images[field] = image
	}
	return images, nil
}
