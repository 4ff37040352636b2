package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"bottletrack/internal/logger"
)

type Config struct {
	// OpenAI Configuration (vision-enhanced extraction)
	OpenAIAPIKey string
	OpenAIModel  string

	// Google Cloud Configuration
	GoogleCloudProject    string
	GoogleCloudLocation   string
	LabelProcessorID      string
	LabelProcessorVersion string

	// Google Sheets Configuration
	GoogleSheetURL  string
	GoogleSheetName string

	// Record store
	DatabaseURL string

	// OCR Configuration
	OCRProvider    string // "tesseract" or "vision"
	TessdataPrefix string

	// Extraction tuning. These encode business assumptions (nicotine
	// strength ceilings, plausible bottle sizes) and are deliberately
	// configurable rather than literals.
	StrengthMin int
	StrengthMax int
	SizeMin     int
	SizeMax     int
	BrandTokens []string

	// Reconciliation tuning
	SimilarityThreshold int
	FallbackSize        string
	SkipMarkers         []string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		LabelProcessorID:      getEnv("LABEL_PROCESSOR_ID", ""),
		LabelProcessorVersion: getEnv("LABEL_PROCESSOR_VERSION", ""),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Sheet1"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		OCRProvider:           getEnv("OCR_PROVIDER", "tesseract"),
		TessdataPrefix:        getEnv("TESSDATA_PREFIX", ""),
		StrengthMin:           getEnvInt("STRENGTH_MIN_MG", 0),
		StrengthMax:           getEnvInt("STRENGTH_MAX_MG", 50),
		SizeMin:               getEnvInt("SIZE_MIN_ML", 10),
		SizeMax:               getEnvInt("SIZE_MAX_ML", 1000),
		BrandTokens:           getEnvList("BRAND_TOKENS", nil),
		SimilarityThreshold:   getEnvInt("SIMILARITY_THRESHOLD", 90),
		FallbackSize:          getEnv("FALLBACK_SIZE_ML", "30"),
		SkipMarkers:           getEnvList("SHEET_SKIP_MARKERS", []string{"osuna", "rsv house"}),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.OCRProvider != "tesseract" && c.OCRProvider != "vision" {
		return fmt.Errorf("OCR_PROVIDER must be \"tesseract\" or \"vision\", got %q", c.OCRProvider)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be within [0,100], got %d", c.SimilarityThreshold)
	}
	if c.StrengthMin > c.StrengthMax {
		return fmt.Errorf("STRENGTH_MIN_MG (%d) exceeds STRENGTH_MAX_MG (%d)", c.StrengthMin, c.StrengthMax)
	}
	if c.SizeMin > c.SizeMax {
		return fmt.Errorf("SIZE_MIN_ML (%d) exceeds SIZE_MAX_ML (%d)", c.SizeMin, c.SizeMax)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	var list []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
