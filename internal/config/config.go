package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string

	// Canvas
	GridSize             int
	DefaultColor         string
	QueryTimeout         time.Duration
	PlacementConcurrency int

	// Accounts
	JWTSecret            string
	SessionTTL           time.Duration
	VerifyTokenTTL       time.Duration
	ResetTokenTTL        time.Duration
	TokenSweepInterval   time.Duration
	RequireVerifiedEmail bool

	// Payments
	StripeSecretKey     string
	StripeWebhookSecret string
	ClientURL           string
	PixelPriceCents     int64
	Currency            string
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration

	// Mail service
	MailRPCEndpoint     string
	MailRPCRetryMax     int
	MailRPCRetryBackoff time.Duration
	MailRPCTimeout      time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
// Load panics if DATABASE_URL is missing. Secrets only the HTTP server uses
// are checked by ValidateSecrets.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnvRequired("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		GridSize:             getEnvInt("GRID_SIZE", 100),
		DefaultColor:         getEnv("DEFAULT_COLOR", pixel.DefaultColor),
		QueryTimeout:         getEnvDuration("QUERY_TIMEOUT", 5*time.Second),
		PlacementConcurrency: getEnvInt("PLACEMENT_CONCURRENCY", 16),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		SessionTTL:           getEnvDuration("SESSION_TTL", time.Hour),
		VerifyTokenTTL:       getEnvDuration("VERIFY_TOKEN_TTL", 24*time.Hour),
		ResetTokenTTL:        getEnvDuration("RESET_TOKEN_TTL", time.Hour),
		TokenSweepInterval:   getEnvDuration("TOKEN_SWEEP_INTERVAL", 10*time.Minute),
		RequireVerifiedEmail: getEnvBool("REQUIRE_VERIFIED_EMAIL", true),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		ClientURL:           getEnv("CLIENT_URL", "http://localhost:3000"),
		PixelPriceCents:     int64(getEnvInt("PIXEL_PRICE_CENTS", 100)),
		Currency:            getEnv("CURRENCY", "usd"),
		BreakerMaxFailures:  getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerResetTimeout: getEnvDuration("BREAKER_RESET_TIMEOUT", 30*time.Second),

		MailRPCEndpoint:     getEnv("MAIL_RPC_ENDPOINT", ""),
		MailRPCRetryMax:     getEnvInt("MAIL_RPC_RETRY_MAX", 3),
		MailRPCRetryBackoff: getEnvDuration("MAIL_RPC_RETRY_BACKOFF", 100*time.Millisecond),
		MailRPCTimeout:      getEnvDuration("MAIL_RPC_TIMEOUT", 5*time.Second),
	}
}

// Validate checks values that would otherwise fail at request time, and
// normalizes DefaultColor.
func (c *Config) Validate() error {
	if c.GridSize < 1 || c.GridSize > pixel.MaxGridSize {
		return fmt.Errorf("GRID_SIZE must be between 1 and %d, got %d", pixel.MaxGridSize, c.GridSize)
	}
	color, err := pixel.NormalizeColor(c.DefaultColor)
	if err != nil {
		return fmt.Errorf("DEFAULT_COLOR: %w", err)
	}
	c.DefaultColor = color
	if c.PlacementConcurrency < 1 {
		return fmt.Errorf("PLACEMENT_CONCURRENCY must be positive, got %d", c.PlacementConcurrency)
	}
	if c.PixelPriceCents < 1 {
		return fmt.Errorf("PIXEL_PRICE_CENTS must be positive, got %d", c.PixelPriceCents)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// ValidateSecrets checks the signing and payment secrets needed to serve the API.
func (c *Config) ValidateSecrets() error {
	var missing []string
	for key, v := range map[string]string{
		"JWT_SECRET":            c.JWTSecret,
		"STRIPE_SECRET_KEY":     c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": c.StripeWebhookSecret,
	} {
		if v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic("required environment variable " + key + " is not set")
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return n
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return d
	}
	return fallback
}
