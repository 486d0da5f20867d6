package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all dynamic configuration for the Helix API.
// 🛡️ SLA: Nothing here is a secret. AES keys travel per request and are never stored.
type Config struct {
	Environment    string // "development" or "production"
	Port           string
	DatabaseURL    string // Empty selects the in-memory history log
	AllowedOrigins []string

	// 🛡️ Upload Boundary
	MaxUploadBytes int64

	// Extraction policy
	StrictMarker  bool
	BitwiseMarker bool // Match the end marker at any bit offset, for images from older encoders

	// History retention
	HistoryRetention time.Duration
	PruneInterval    time.Duration

	// 🛡️ Abuse Control
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads an optional .env file, then parses the environment and applies
// sensible default fallbacks.
func Load() *Config {
	// A missing .env is normal in containers; real env vars always win.
	_ = godotenv.Load()

	env := getEnv("HELIX_ENV", "production")

	// 1. 🛡️ Strict CORS: Must be explicitly defined in Production
	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "")
	if corsOrigins == "" {
		if env == "production" {
			log.Fatal("🚨 [FATAL] CORS_ALLOWED_ORIGINS environment variable is required in production.")
		}
		corsOrigins = "http://localhost:5173"
	}

	return &Config{
		Environment:    env,
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AllowedOrigins: splitOrigins(corsOrigins),

		// 2. 🛡️ Memory Safety: Decoded rasters are ~3 bytes per pixel, so cap the upload
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),

		StrictMarker:  getEnvBool("STRICT_MARKER", false),
		BitwiseMarker: getEnvBool("BITWISE_MARKER", false),

		HistoryRetention: getEnvDuration("HISTORY_RETENTION", 168*time.Hour),
		PruneInterval:    getEnvDuration("PRUNE_INTERVAL", 10*time.Minute),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 30),
	}
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a fallback value.
// An empty value counts as unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("⚠️ [WARN] %s=%q is not a positive integer, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		log.Printf("⚠️ [WARN] %s=%q is not a positive number, using %g", key, raw, fallback)
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("⚠️ [WARN] %s=%q is not a boolean, using %t", key, raw, fallback)
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("⚠️ [WARN] %s=%q is not a positive duration, using %s", key, raw, fallback)
		return fallback
	}
	return v
}
