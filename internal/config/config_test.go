package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		for _, key := range []string{"HTTP_PORT", "REDIS_ADDR", "SHIPPING_FEE", "TAX_RATE", "PAYMENT_MIN_LATENCY", "LOGIN_RATE_LIMIT"} {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
		cfg := NewConfig()
		require.Equal(t, "8080", cfg.HTTPPort)
		require.Empty(t, cfg.RedisAddr)
		require.Equal(t, 10.0, cfg.ShippingFee)
		require.Equal(t, 0.07, cfg.TaxRate)
		require.Equal(t, 1500*time.Millisecond, cfg.PaymentMinLatency)
		require.Equal(t, 10, cfg.LoginRateLimit)
		require.Equal(t, "storefront:currentUser", cfg.SessionKey)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "9090")
		t.Setenv("REDIS_ADDR", "redis:6379")
		t.Setenv("SHIPPING_FEE", "4.5")
		t.Setenv("TAX_RATE", "0.2")
		t.Setenv("PAYMENT_MAX_LATENCY", "3s")
		t.Setenv("PAYMENT_FAILURE_RATE", "0.25")
		t.Setenv("PAYMENT_SEED", "42")
		t.Setenv("LOGIN_RATE_LIMIT", "3")

		cfg := NewConfig()
		require.Equal(t, "9090", cfg.HTTPPort)
		require.Equal(t, "redis:6379", cfg.RedisAddr)
		require.Equal(t, 4.5, cfg.ShippingFee)
		require.Equal(t, 0.2, cfg.TaxRate)
		require.Equal(t, 3*time.Second, cfg.PaymentMaxLatency)
		require.Equal(t, 0.25, cfg.PaymentFailureRate)
		require.Equal(t, uint64(42), cfg.PaymentSeed)
		require.Equal(t, 3, cfg.LoginRateLimit)
	})

	t.Run("MalformedFallsBack", func(t *testing.T) {
		t.Setenv("TAX_RATE", "seven percent")
		t.Setenv("LOGIN_RATE_LIMIT", "many")
		t.Setenv("PAYMENT_MIN_LATENCY", "soon")
		t.Setenv("PAYMENT_SEED", "-1")

		cfg := NewConfig()
		require.Equal(t, 0.07, cfg.TaxRate)
		require.Equal(t, 10, cfg.LoginRateLimit)
		require.Equal(t, 1500*time.Millisecond, cfg.PaymentMinLatency)
	})
}
