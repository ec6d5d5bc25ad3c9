// Package config loads pipeline configuration from environment
// variables, following the teacher's env-var-plus-.env-file convention
// (github.com/joho/godotenv) rather than introducing a new config
// format for this module.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SourceConfig holds the per-pricing-source tunables named in spec.md §6.
type SourceConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	BreakerThreshold  uint32
	BreakerTimeout    time.Duration
}

// Config is the full set of recognized options from spec.md §6.
type Config struct {
	// External provider credentials
	GeminiAPIKey  string
	GeminiModel   string
	MistralAPIKey string
	MistralModel  string

	// Pricing
	PricingWindowDays int
	Sources           map[string]SourceConfig

	// Authenticity
	AuthenticityReferenceDefault float64
	AuthenticityModelTemperature float64
	AuthenticityModelMaxTokens   int
	AuthenticityModelMaxRetries  int

	// OCR reasoning
	OCRModelTemperature float64
	OCRModelMaxTokens   int
	OCRModelMaxRetries  int

	// Orchestration
	AutoTriggerRevalue   bool
	OverallDeadline      time.Duration
	ExtractorTimeout     time.Duration
	OCRReasonerTimeout   time.Duration
	PricingTimeout       time.Duration
	AuthenticityTimeout  time.Duration
	AggregatorTimeout    time.Duration

	// Storage
	MongoURI    string
	MongoDBName string

	// Local dev conveniences (mirrors the teacher's UPLOAD_DIR/PORT)
	Port      string
	UploadDir string
}

// Load reads configuration from the environment, applying the defaults
// named in spec.md §6. A missing .env file is not an error — it is
// expected in production, where real env vars are set directly.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		MistralAPIKey: getEnv("MISTRAL_API_KEY", ""),
		MistralModel:  getEnv("MISTRAL_MODEL", "pixtral-12b"),

		PricingWindowDays: getEnvInt("PRICING_WINDOW_DAYS", 14),
		Sources:           defaultSourceConfigs(),

		AuthenticityReferenceDefault: getEnvFloat("AUTHENTICITY_REFERENCE_DEFAULT", 0.50),
		AuthenticityModelTemperature: getEnvFloat("AUTHENTICITY_MODEL_TEMPERATURE", 0.20),
		AuthenticityModelMaxTokens:   getEnvInt("AUTHENTICITY_MODEL_MAX_TOKENS", 1024),
		AuthenticityModelMaxRetries:  getEnvInt("AUTHENTICITY_MODEL_MAX_RETRIES", 5),

		OCRModelTemperature: getEnvFloat("OCR_MODEL_TEMPERATURE", 0.15),
		OCRModelMaxTokens:   getEnvInt("OCR_MODEL_MAX_TOKENS", 1024),
		OCRModelMaxRetries:  getEnvInt("OCR_MODEL_MAX_RETRIES", 3),

		AutoTriggerRevalue:  getEnvBool("AUTO_TRIGGER_REVALUE", true),
		OverallDeadline:     time.Duration(getEnvInt("PIPELINE_OVERALL_DEADLINE_MS", 120000)) * time.Millisecond,
		ExtractorTimeout:    30 * time.Second,
		OCRReasonerTimeout:  30 * time.Second,
		PricingTimeout:      30 * time.Second,
		AuthenticityTimeout: 30 * time.Second,
		AggregatorTimeout:   10 * time.Second,

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "collectiq"),

		Port:      getEnv("PORT", "8080"),
		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
	}

	if cfg.AuthenticityReferenceDefault != 0.50 {
		log.Printf("WARNING: authenticity reference default overridden to %.2f; this must revert to 0.50 once the reference corpus has sufficient coverage (spec §9)", cfg.AuthenticityReferenceDefault)
	}

	return cfg
}

func defaultSourceConfigs() map[string]SourceConfig {
	return map[string]SourceConfig{
		"tcgplayer": {RateLimitRequests: 20, RateLimitWindow: 60 * time.Second, BreakerThreshold: 5, BreakerTimeout: 60 * time.Second},
		"ebay":      {RateLimitRequests: 10, RateLimitWindow: 60 * time.Second, BreakerThreshold: 5, BreakerTimeout: 60 * time.Second},
		"population": {RateLimitRequests: 5, RateLimitWindow: 60 * time.Second, BreakerThreshold: 5, BreakerTimeout: 60 * time.Second},
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
