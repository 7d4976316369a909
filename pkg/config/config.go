package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration. It is assembled once at
// startup and never mutated afterwards.
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string
	PublicDir   string

	DatabaseURL        string
	DBMaxOpenConns     int
	DBMaxIdleConns     int
	DBConnLifetime     time.Duration
	RedisURL           string
	CORSAllowedOrigins []string

	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTCookieExpiresIn time.Duration
	BcryptCost         int
	ResetTokenTTL      time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration
	BodyLimitBytes  int64

	EmailFrom    string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	PhotoDir       string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	ResetSweepInterval time.Duration
	OTLPEndpoint       string
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadDotEnv loads the first env file found among paths. Variables already
// present in the environment win. Missing files are not an error.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "3000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	jwtExpires, err := parseDays("JWT_EXPIRES_IN", "90d")
	if err != nil {
		return nil, err
	}

	cookieDays, err := strconv.Atoi(getEnv("JWT_COOKIE_EXPIRES_IN", "90"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_COOKIE_EXPIRES_IN: %w", err)
	}

	bcryptCost, err := strconv.Atoi(getEnv("BCRYPT_COST", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	rateMax, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MAX: %w", err)
	}

	rateWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	bodyLimit, err := strconv.ParseInt(getEnv("BODY_LIMIT_BYTES", "10240"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid BODY_LIMIT_BYTES: %w", err)
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	maxOpen, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdle, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	sweep, err := time.ParseDuration(getEnv("RESET_SWEEP_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESET_SWEEP_INTERVAL: %w", err)
	}

	cfg := &Config{
		Environment:         getEnv("NODE_ENV", getEnv("ENVIRONMENT", "development")),
		ServerPort:          port,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		PublicDir:           getEnv("PUBLIC_DIR", "public"),
		DatabaseURL:         databaseURL(),
		DBMaxOpenConns:      maxOpen,
		DBMaxIdleConns:      maxIdle,
		DBConnLifetime:      5 * time.Minute,
		RedisURL:            os.Getenv("REDIS_URL"),
		CORSAllowedOrigins:  parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTExpiresIn:        jwtExpires,
		JWTCookieExpiresIn:  time.Duration(cookieDays) * 24 * time.Hour,
		BcryptCost:          bcryptCost,
		ResetTokenTTL:       10 * time.Minute,
		RateLimitMax:        rateMax,
		RateLimitWindow:     rateWindow,
		BodyLimitBytes:      bodyLimit,
		EmailFrom:           getEnv("EMAIL_FROM", "hello@natours.io"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            smtpPort,
		SMTPUsername:        os.Getenv("SMTP_USERNAME"),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            getEnv("CHECKOUT_CURRENCY", "aud"),
		PhotoDir:            getEnv("PHOTO_DIR", "public/img/users"),
		MinIOEndpoint:       os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:      os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:      os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:         getEnv("MINIO_BUCKET", "natours-users"),
		MinIOUseSSL:         getEnv("MINIO_USE_SSL", "false") == "true",
		ResetSweepInterval:  sweep,
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 && c.IsProduction() {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("invalid BCRYPT_COST: %d", c.BcryptCost)
	}
	return nil
}

// databaseURL accepts either DATABASE_URL or a DATABASE template with a
// <PASSWORD> placeholder filled from DATABASE_PASSWORD.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	return strings.Replace(os.Getenv("DATABASE"), "<PASSWORD>", os.Getenv("DATABASE_PASSWORD"), 1)
}

// parseDays understands plain Go durations plus a "<n>d" day suffix.
func parseDays(key, defaultValue string) (time.Duration, error) {
	raw := getEnv(key, defaultValue)
	if strings.HasSuffix(raw, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(raw, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
