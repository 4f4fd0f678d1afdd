package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	// DataDir holds completed and partial downloads; StatePath is the
	// key-value state file (empty = in-memory state, nothing survives a
	// restart).
	DataDir   string
	StatePath string

	BackendURL     string
	BackendRPS     float64
	BackendBurst   int
	BackendTimeout time.Duration

	SearchCacheTTL        time.Duration
	SearchCacheMaxEntries int

	CORSAllowedOrigins []string
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8090"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		DataDir:   getEnv("DATA_DIR", "data"),
		StatePath: getEnv("STATE_PATH", "companion.db"),

		BackendURL:     getEnv("BACKEND_URL", "http://localhost:3000"),
		BackendRPS:     getEnvFloat("BACKEND_RPS", 10),
		BackendBurst:   int(getEnvInt64("BACKEND_BURST", 20)),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),

		SearchCacheTTL:        getEnvDuration("SEARCH_CACHE_TTL", 2*time.Minute),
		SearchCacheMaxEntries: int(getEnvInt64("SEARCH_CACHE_MAX_ENTRIES", 128)),

		CORSAllowedOrigins: parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func parseCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
