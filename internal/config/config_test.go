package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 実行環境の値に左右されないよう空にする
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GO_ENV", "STORAGE_DRIVER", "DATABASE_URL", "POSTGRES_DB", "POSTGRES_PORT",
		"FIRESTORE_PROJECT_ID", "COMMERCE_TIMEOUT", "CART_MAX_LINE_QUANTITY", "CART_MAX_UNIT_PRICE",
		"SHOPPER_IDLE_TTL", "SHOPPER_SWEEP_INTERVAL", "COOKIE_SECURE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMMERCE_API_URL", "https://api.example.com/graphql/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, int64(99), cfg.CartMaxLineQuantity)
	assert.Equal(t, int64(100_000_000), cfg.CartMaxUnitPrice)
	assert.Equal(t, 30*time.Minute, cfg.ShopperIdleTTL)
	assert.Equal(t, time.Minute, cfg.ShopperSweepInterval)
	assert.Equal(t, 10*time.Second, cfg.CommerceTimeout)
	assert.False(t, cfg.CookieSecure)
	assert.Contains(t, cfg.PostgresDSN(), "dbname=storefront")
}

func TestLoad_RequiresCommerceURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMMERCE_API_URL", "")

	_, err := Load()
	assert.EqualError(t, err, "COMMERCE_API_URL is required")
}

func TestLoad_Firestore_RequiresProject(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMMERCE_API_URL", "https://api.example.com/graphql/")
	t.Setenv("STORAGE_DRIVER", "firestore")
	t.Setenv("FIRESTORE_PROJECT_ID", "")

	_, err := Load()
	assert.EqualError(t, err, "FIRESTORE_PROJECT_ID is required")
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMMERCE_API_URL", "https://api.example.com/graphql/")
	t.Setenv("PORT", ":9000")
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("CART_MAX_LINE_QUANTITY", "5")
	t.Setenv("CART_MAX_UNIT_PRICE", "50000")
	t.Setenv("SHOPPER_IDLE_TTL", "5m")
	t.Setenv("COMMERCE_TIMEOUT", "3s")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, int64(5), cfg.CartMaxLineQuantity)
	assert.Equal(t, int64(50000), cfg.CartMaxUnitPrice)
	assert.Equal(t, 5*time.Minute, cfg.ShopperIdleTTL)
	assert.Equal(t, 3*time.Second, cfg.CommerceTimeout)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "postgres://u:p@db/app", cfg.PostgresDSN())
}

func TestLoad_InvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMMERCE_API_URL", "https://api.example.com/graphql/")
	t.Setenv("CART_MAX_LINE_QUANTITY", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NonPositiveLimits(t *testing.T) {
	for _, kv := range [][2]string{
		{"CART_MAX_UNIT_PRICE", "0"},
		{"SHOPPER_IDLE_TTL", "-1m"},
	} {
		clearEnv(t)
		t.Setenv("COMMERCE_API_URL", "https://api.example.com/graphql/")
		t.Setenv(kv[0], kv[1])

		_, err := Load()
		assert.Error(t, err, kv[0])
	}
}
