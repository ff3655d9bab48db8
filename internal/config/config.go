package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName     string
	AppEnv      string
	AppVersion  string
	Port        string
	FrontendURL string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret          string
	JWTIssuer          string
	CORSAllowedOrigins []string

	// HTTP
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration

	// Observability (optional)
	SentryDSN      string
	MetricsEnabled bool

	// Export storage (S3-compatible). Uploads are disabled when S3Bucket is empty.
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration
}

const defaultDBConnection = "./data/goals.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

func Load() *Config {
	loadDotEnv()

	cfg := &Config{
		// Application
		AppName:     envString("APP_NAME", "Goal Setter API"),
		AppEnv:      envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppVersion:  envString("APP_VERSION", "1.0.0"),
		Port:        envString("PORT", "2000"),
		FrontendURL: envString("FRONTEND_URL", ""),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", defaultDBConnection),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTIssuer: envString("JWT_ISSUER", ""),

		// HTTP
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		RequestTimeout:    envDuration("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout:   envDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Observability
		SentryDSN:      envString("SENTRY_DSN", ""),
		MetricsEnabled: envBool("METRICS_ENABLED", true),

		// Storage
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),                  // Optional: for non-AWS providers
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour), // Lifetime of export download links
	}

	cfg.CORSAllowedOrigins = envList("CORS_ALLOWED_ORIGINS", defaultOrigins(cfg))

	// Production: validate required settings
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// LoadDatabase reads only the database settings. Used by tooling that never
// serves requests and so has no need for secrets.
func LoadDatabase() *Config {
	loadDotEnv()

	return &Config{
		AppEnv:       envString("APP_ENV", "development"),
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", defaultDBConnection),
	}
}

func loadDotEnv() {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}
}

// defaultOrigins allows local frontends in development and the configured
// frontend in every environment.
func defaultOrigins(cfg *Config) []string {
	var origins []string
	if cfg.IsDevelopment() {
		origins = append(origins, "http://localhost:3000", "http://localhost:5173")
	}
	if cfg.FrontendURL != "" {
		origins = append(origins, cfg.FrontendURL)
	}
	return origins
}

// validateProduction refuses settings that are only acceptable locally.
func validateProduction(cfg *Config) {
	if len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires a JWT_SECRET of at least 32 bytes")
		os.Exit(1)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		slog.Warn("no CORS origins configured, browsers will not reach the API",
			"hint", "set FRONTEND_URL or CORS_ALLOWED_ORIGINS")
	}
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

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("config invalid positive int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
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

// envList reads a comma separated list, dropping empty entries.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var list []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StorageEnabled reports whether export uploads have somewhere to go.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}
