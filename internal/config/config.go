// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/engine and cmd/remindctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Status API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Push provider
	ExpoBaseURL           string
	ExpoAccessToken       string
	PushRequestsPerMinute int
	PushBatchSize         int

	// Job cadences
	AppointmentInterval time.Duration // hourly appointment reminder poll
	MedicationInterval  time.Duration // dose reminder poll
	DailyHour           int           // UTC hour for the daily jobs
	CleanupHour         int           // UTC hour for marker cleanup
	BootDelay           time.Duration // daily-job catch-up delay after start
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("MAMACARE_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or MAMACARE_DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:19006",
		}),

		ExpoBaseURL:           envOr("EXPO_PUSH_URL", ""),
		ExpoAccessToken:       envOr("EXPO_ACCESS_TOKEN", ""),
		PushRequestsPerMinute: envInt("PUSH_REQUESTS_PER_MINUTE", 600),
		PushBatchSize:         envInt("PUSH_BATCH_SIZE", 100),

		AppointmentInterval: time.Duration(envInt("APPOINTMENT_INTERVAL_MINUTES", 60)) * time.Minute,
		MedicationInterval:  time.Duration(envInt("MEDICATION_INTERVAL_MINUTES", 15)) * time.Minute,
		DailyHour:           envInt("DAILY_JOB_HOUR_UTC", 6),
		CleanupHour:         envInt("CLEANUP_HOUR_UTC", 0),
		BootDelay:           time.Duration(envInt("BOOT_DELAY_SECONDS", 30)) * time.Second,
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
