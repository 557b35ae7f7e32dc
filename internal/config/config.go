// Package config loads runtime settings from the environment, after merging a
// local .env file when one exists.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server and tools read at startup
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string

	DBDriver    string // postgres or sqlite
	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	CacheTTL      time.Duration

	JWTSecret  string
	SessionTTL time.Duration

	AWSRegion  string
	S3Bucket   string
	S3Endpoint string // set for S3 compatible stores such as R2 or MinIO
	CDNBaseURL string

	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	CORSOrigins    []string
	MaxUploadBytes int64

	CleanupInterval time.Duration

	OTelEnabled      bool
	OTelEndpoint     string
	OTelSamplingRate float64
}

// LoadDotEnv merges .env files into the process environment. Missing files are fine.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load reads the environment. It fails when a production setting is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", "inkvault.log"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CacheTTL:      getDuration("CACHE_TTL", 600*time.Second),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		SessionTTL: getDuration("SESSION_TTL", 7*24*time.Hour),

		AWSRegion:  getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:   os.Getenv("S3_BUCKET"),
		S3Endpoint: os.Getenv("S3_ENDPOINT"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),

		SESFromEmail: os.Getenv("SES_FROM_EMAIL"),
		SESFromName:  getEnv("SES_FROM_NAME", "Inkvault"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:3000"),

		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 25<<20),

		CleanupInterval: getDuration("CLEANUP_INTERVAL", time.Hour),

		OTelEnabled:      getBool("OTEL_ENABLED", false),
		OTelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTelSamplingRate: getFloat("OTEL_SAMPLING_RATE", 1.0),
	}

	if cfg.DatabaseURL == "" && cfg.DBDriver == "postgres" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			getEnv("DB_NAME", "inkvault"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}
	if cfg.DatabaseURL == "" && cfg.DBDriver == "sqlite" {
		cfg.DatabaseURL = "inkvault.db"
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET environment variable not set")
		}
		cfg.JWTSecret = "inkvault-development-secret"
	}
	return cfg, nil
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RedisEnabled reports whether a Redis host was configured
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getDuration accepts Go durations ("10m") or plain seconds ("600")
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func getBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return n
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
