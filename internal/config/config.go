package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	HTTPAddr string

	RedisAddr     string
	RedisPassword string

	Partner   PartnerConfig
	Scorer    ScorerConfig
	Submitter SubmitterConfig
}

// PartnerConfig configures the outbound partner submission API.
type PartnerConfig struct {
	Provider string
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// ScorerConfig configures the external claim-certainty scoring service. When
// BaseURL is empty a local heuristic model is used instead.
type ScorerConfig struct {
	BaseURL   string
	APIToken  string
	Timeout   time.Duration
	Threshold float64
}

// SubmitterConfig configures the background submission worker.
type SubmitterConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

// Module provides Config to the fx graph.
var Module = fx.Provide(Load)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "reclaim"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "reclaim"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		Partner: PartnerConfig{
			Provider: strings.ToLower(getenv("PARTNER_PROVIDER", "amazon")),
			BaseURL:  strings.TrimRight(getenv("PARTNER_BASE_URL", "https://reimbursements.partner.example"), "/"),
			APIToken: strings.TrimSpace(getenv("PARTNER_API_TOKEN", "")),
			Timeout:  getenvDuration("PARTNER_TIMEOUT", 12*time.Second),
		},
		Scorer: ScorerConfig{
			BaseURL:   strings.TrimRight(getenv("SCORER_BASE_URL", ""), "/"),
			APIToken:  strings.TrimSpace(getenv("SCORER_API_TOKEN", "")),
			Timeout:   getenvDuration("SCORER_TIMEOUT", 8*time.Second),
			Threshold: getenvFloat("SCORER_THRESHOLD", 0.75),
		},
		Submitter: SubmitterConfig{
			PollInterval: getenvDuration("SUBMITTER_POLL_INTERVAL", 30*time.Second),
			BatchSize:    getenvInt("SUBMITTER_BATCH_SIZE", 10),
			MaxAttempts:  getenvInt("SUBMITTER_MAX_ATTEMPTS", 5),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
