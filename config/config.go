// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable the scheduler and API read at startup.
// Values that may change at runtime (webhook URLs, API keys) live in the
// settings tables instead and are resolved per job.
type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// API
	ListenAddr string

	// Job processing
	CheckIntervalSeconds int
	MaxConcurrentJobs    int

	// Billing
	EnrichmentCreditCost float64

	// GitHub data collection controls
	UseBulkContributorStats bool
	ContributorLimit        int
	StargazerLimit          int
}

// Load reads .env (if present) and the environment into a Config.
func Load() Config {
	// Missing .env is fine; the environment may be set by the runtime.
	_ = godotenv.Load()

	return Config{
		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     GetEnv("DB_USER", "postgres"),
		DBPassword: GetEnv("DB_PASSWORD", "postgres"),
		DBName:     GetEnv("DB_NAME", "leadsourcer"),
		DBSSLMode:  GetEnv("DB_SSLMODE", "disable"),

		ListenAddr: GetEnv("LISTEN_ADDR", ":8080"),

		CheckIntervalSeconds: getEnvInt("CHECK_INTERVAL_SECONDS", 30),
		MaxConcurrentJobs:    getEnvInt("MAX_CONCURRENT_JOBS", 3),

		EnrichmentCreditCost: getEnvFloat("ENRICHMENT_CREDIT_COST", 0.01),

		UseBulkContributorStats: getEnvBool("USE_BULK_CONTRIBUTOR_STATS", true),
		ContributorLimit:        getEnvInt("CONTRIBUTOR_LIMIT", 100),
		StargazerLimit:          getEnvInt("STARGAZER_LIMIT", 200),
	}
}

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(GetEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
