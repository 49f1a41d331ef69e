package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64
	AllowedOrigins     []string

	// Row fan-out inside a batch.
	RowConcurrency int

	// External symbol lookup. An empty API key selects the offline lookup.
	AnthropicAPIKey     string
	LookupModel         string
	LookupBackupModel   string
	LookupTimeout       time.Duration
	LookupRatePerSecond float64
	LookupBurst         int

	BatchResultTTL time.Duration
}

var Cfg *AppConfig

// LoadConfig reads .env (when present) and the process environment into Cfg.
func LoadConfig() *AppConfig {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	rowConcurrency := getEnvAsInt("ROW_CONCURRENCY", 8)
	if rowConcurrency < 1 {
		log.Printf("WARNING: ROW_CONCURRENCY must be positive, got %d. Using 1.", rowConcurrency)
		rowConcurrency = 1
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./tradenorm.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		RowConcurrency: rowConcurrency,

		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		LookupModel:         getEnv("LOOKUP_MODEL", "claude-haiku-4-5-20251001"),
		LookupBackupModel:   getEnv("LOOKUP_BACKUP_MODEL", "claude-sonnet-4-5-20250929"),
		LookupTimeout:       getEnvAsDuration("LOOKUP_TIMEOUT", 10*time.Second),
		LookupRatePerSecond: getEnvAsFloat("LOOKUP_RATE_PER_SECOND", 2),
		LookupBurst:         getEnvAsInt("LOOKUP_BURST", 4),

		BatchResultTTL: getEnvAsDuration("BATCH_RESULT_TTL", 30*time.Minute),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, RowConcurrency=%d, LookupEnabled=%t",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.RowConcurrency, Cfg.AnthropicAPIKey != "")
	return Cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !strings.Contains(key, "KEY") {
		log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
