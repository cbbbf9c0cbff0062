// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Postgres
	PostgresDSN string

	// MongoDB (diagnostics)
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Redis (market data cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Market data
	MarketBaseURL       string
	MarketToken         string
	AmadeusBaseURL      string
	AmadeusClientID     string
	AmadeusClientSecret string

	// FX
	FxAPIKey       string
	FxAPIURL       string
	FxBaseCurrency string
	FxCronSpec     string

	// Links
	FlightLinkBase string
	HotelLinkBase  string
	LinkMarker     string

	// Pipeline
	WorkerLimit   int
	JobTimeout    time.Duration
	MaxCandidates int
	MaxPackages   int
	SortMode      string
	RefreshTopN   int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=planpilot password=planpilot dbname=planpilot port=5432 sslmode=disable"),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "planpilot"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		MarketBaseURL:       getEnv("MARKET_BASE_URL", "https://api.travelpayouts.com"),
		MarketToken:         getEnv("MARKET_ACCESS_TOKEN", ""),
		AmadeusBaseURL:      getEnv("AMADEUS_BASE_URL", "https://test.api.amadeus.com"),
		AmadeusClientID:     getEnv("AMADEUS_CLIENT_ID", ""),
		AmadeusClientSecret: getEnv("AMADEUS_CLIENT_SECRET", ""),

		FxAPIKey:       getEnv("FX_API_KEY", ""),
		FxAPIURL:       getEnv("FX_API_URL", ""),
		FxBaseCurrency: getEnv("FX_BASE_CURRENCY", "USD"),
		FxCronSpec:     getEnv("FX_CRON_SPEC", "0 */6 * * *"),

		FlightLinkBase: getEnv("FLIGHT_LINK_BASE", ""),
		HotelLinkBase:  getEnv("HOTEL_LINK_BASE", ""),
		LinkMarker:     getEnv("LINK_MARKER", ""),

		WorkerLimit:   getEnvAsInt("PIPELINE_WORKER_LIMIT", 4),
		JobTimeout:    time.Duration(getEnvAsInt("PIPELINE_JOB_TIMEOUT", 90)) * time.Second,
		MaxCandidates: getEnvAsInt("PIPELINE_MAX_CANDIDATES", 8),
		MaxPackages:   getEnvAsInt("PIPELINE_MAX_PACKAGES", 10),
		SortMode:      getEnv("PIPELINE_SORT_MODE", "best_value"),
		RefreshTopN:   getEnvAsInt("PIPELINE_REFRESH_TOP_N", 3),
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
