package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort  string
	RedisAddr string
	JWTSecret string
	TokenTTL  time.Duration

	SessionFile string
	SessionKey  string

	CatalogSeedPath string

	ShippingFee float64
	TaxRate     float64

	PaymentMinLatency  time.Duration
	PaymentMaxLatency  time.Duration
	PaymentFailureRate float64
	PaymentSeed        uint64

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// NewConfig reads the environment. An empty REDIS_ADDR keeps the session
// record in SESSION_FILE instead of Redis.
func NewConfig() *Config {
	return &Config{
		HTTPPort:  getEnv("HTTP_PORT", "8080"),
		RedisAddr: getEnv("REDIS_ADDR", ""),
		JWTSecret: getEnv("JWT_SECRET", "storefront-dev-secret"),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		SessionFile: getEnv("SESSION_FILE", ""),
		SessionKey:  getEnv("SESSION_KEY", "storefront:currentUser"),

		CatalogSeedPath: getEnv("CATALOG_SEED_PATH", ""),

		ShippingFee: getEnvFloat("SHIPPING_FEE", 10),
		TaxRate:     getEnvFloat("TAX_RATE", 0.07),

		PaymentMinLatency:  getEnvDuration("PAYMENT_MIN_LATENCY", 1500*time.Millisecond),
		PaymentMaxLatency:  getEnvDuration("PAYMENT_MAX_LATENCY", 2500*time.Millisecond),
		PaymentFailureRate: getEnvFloat("PAYMENT_FAILURE_RATE", 0),
		PaymentSeed:        getEnvUint("PAYMENT_SEED", uint64(time.Now().UnixNano())),

		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("Invalid config value, using default", "key", key, "value", value)
		return fallback
	}
	return f
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid config value, using default", "key", key, "value", value)
		return fallback
	}
	return n
}

func getEnvUint(key string, fallback uint64) uint64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		slog.Warn("Invalid config value, using default", "key", key, "value", value)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid config value, using default", "key", key, "value", value)
		return fallback
	}
	return d
}
