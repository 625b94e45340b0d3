package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Local mode storage (collection files + persisted settings blob)
	DataPath string

	// Database (cloud mode; optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Settings overrides supplied at deploy time. When both CloudURL and
	// CloudKey are present, cloud mode is forced on (one-way rule, see
	// settings.Resolve).
	AdminUsername    string
	GeminiAPIKey     string
	OpenRouterAPIKey string
	CloudURL         string
	CloudKey         string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName: envString("APP_NAME", "Mistake Notebook"),
		AppEnv:  envString("APP_ENV", "development"),
		Port:    envString("PORT", "8090"),

		DataPath: envString("DATA_PATH", "./data"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/mistakebook.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		JWTSecret: envString("JWT_SECRET", ""),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		AdminUsername:    envString("ADMIN_USERNAME", ""),
		GeminiAPIKey:     envString("GEMINI_API_KEY", os.Getenv("API_KEY")),
		OpenRouterAPIKey: envString("OPENROUTER_API_KEY", ""),
		CloudURL:         envString("CLOUD_URL", ""),
		CloudKey:         envString("CLOUD_ANON_KEY", ""),

		SentryDSN: envString("SENTRY_DSN", ""),

		S3Region:    envString("S3_REGION", ""),
		S3Bucket:    envString("S3_BUCKET", "mistake-images"),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures required services are configured for production
// deployments. Development allows fallback modes for easier local testing.
func validateProduction(cfg *Config) {
	if cfg.CloudConfigured() && cfg.JWTSecret == "" {
		slog.Error("production cloud deployment requires JWT_SECRET",
			"hint", "set APP_ENV=development for local-only testing")
		os.Exit(1)
	}
}

// CloudConfigured reports whether both cloud coordinates were supplied at
// deploy time. Per the one-way override rule this forces cloud mode on.
func (c *Config) CloudConfigured() bool {
	return c.CloudURL != "" && c.CloudKey != ""
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
