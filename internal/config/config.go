package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string

	// Remote advisory service. Empty URL means local-engine-only mode.
	AdvisoryServiceURL string
	AdvisoryAPIKey     string

	// Persistence. Empty project means in-memory-only mode.
	FirestoreProject string

	RequestTimeout time.Duration
	StreamTimeout  time.Duration
}

func Load() *Config {
	// .env is optional; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "production"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		AdvisoryServiceURL: getEnv("ADVISORY_SERVICE_URL", ""),
		AdvisoryAPIKey:     getEnv("ADVISORY_API_KEY", ""),
		FirestoreProject:   getEnv("FIRESTORE_PROJECT_ID", ""),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT_SECONDS", 30*time.Second),
		StreamTimeout:      getEnvDuration("STREAM_TIMEOUT_SECONDS", 60*time.Second),
	}

	if cfg.AdvisoryServiceURL == "" {
		log.Println("ADVISORY_SERVICE_URL not set, answering with the local engine only")
	}

	if cfg.FirestoreProject == "" {
		log.Println("FIRESTORE_PROJECT_ID not set, conversations are kept in memory only")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
