package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "https://api.paystack.co", cfg.Paystack.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Paystack.Timeout)
	assert.Equal(t, "exousia", cfg.Paystack.ReferencePrefix)
	assert.Equal(t, "http://localhost:3000", cfg.AppURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_123")
	t.Setenv("PAYSTACK_BASE_URL", "http://paystack.local/")
	t.Setenv("PAYSTACK_TIMEOUT", "3s")
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("APP_URL", "https://shop.exousia.test/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://paystack.local", cfg.Paystack.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Paystack.Timeout)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "https://shop.exousia.test", cfg.AppURL)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("secret key required", func(t *testing.T) {
		t.Setenv("PAYSTACK_SECRET_KEY", "")
		_, err := Load()
		assert.ErrorContains(t, err, "PAYSTACK_SECRET_KEY")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_123")
		t.Setenv("DB_DRIVER", "mongo")
		_, err := Load()
		assert.ErrorContains(t, err, "DB_DRIVER")
	})

	t.Run("bad timeout", func(t *testing.T) {
		t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_123")
		t.Setenv("PAYSTACK_TIMEOUT", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "PAYSTACK_TIMEOUT")
	})

	t.Run("production needs auth secret", func(t *testing.T) {
		t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_123")
		t.Setenv("ENVIRONMENT", "production")
		_, err := Load()
		assert.ErrorContains(t, err, "AUTH_JWT_SECRET")
	})
}

func TestLoadShop(t *testing.T) {
	t.Setenv("SHOP_API_URL", "http://api.local/")
	t.Setenv("SHOP_CART_PATH", "/tmp/cart.db")

	cfg, err := LoadShop()
	require.NoError(t, err)
	assert.Equal(t, "http://api.local", cfg.APIURL)
	assert.Equal(t, "/tmp/cart.db", cfg.CartPath)
	assert.Equal(t, "exousia-cart", cfg.Namespace)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}
