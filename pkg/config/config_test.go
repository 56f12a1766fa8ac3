package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAMLWithEnvironmentOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", `
http:
  addr: ":9000"
  readTimeout: 5s
database:
  dsn: postgres://printshop@localhost/printshop?sslmode=disable
portal:
  jwtSecret: from-file
invoice:
  defaultCurrency: KES
  defaultTaxRate: 16
`)

	t.Run("file values", func(t *testing.T) {
		cfg, err := Load(path, "")
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.HTTP.Addr)
		assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.HTTP.WriteTimeout, "unset keys keep defaults")
		assert.Equal(t, "KES", cfg.Invoice.DefaultCurrency)
		assert.Equal(t, 16.0, cfg.Invoice.DefaultTaxRate)
		assert.Equal(t, "from-file", cfg.Portal.JWTSecret)
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("PRINTSHOP_PORTAL_JWT_SECRET", "from-env")
		t.Setenv("PRINTSHOP_PORTAL_TOKEN_TTL", "30m")
		t.Setenv("PRINTSHOP_CACHE_REDIS_ADDR", "localhost:6379")

		cfg, err := Load(path, "")
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Portal.JWTSecret)
		assert.Equal(t, 30*time.Minute, cfg.Portal.TokenTTL)
		assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	})
}

func TestLoadEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "PRINTSHOP_DATABASE_DSN=memory\nPRINTSHOP_PORTAL_JWT_SECRET=dotenv-secret\n")
	t.Cleanup(func() {
		_ = os.Unsetenv("PRINTSHOP_DATABASE_DSN")
		_ = os.Unsetenv("PRINTSHOP_PORTAL_JWT_SECRET")
	})

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), envFile)
	require.NoError(t, err)
	assert.True(t, cfg.Database.InMemory())
	assert.Equal(t, "dotenv-secret", cfg.Portal.JWTSecret)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Database.DSN = "memory"
	valid.Portal.JWTSecret = "secret"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing dsn", func(c *Config) { c.Database.DSN = " " }, "database.dsn"},
		{"missing secret", func(c *Config) { c.Portal.JWTSecret = "" }, "portal.jwtSecret"},
		{"zero ttl", func(c *Config) { c.Portal.TokenTTL = 0 }, "portal.tokenTTL"},
		{"tax rate", func(c *Config) { c.Invoice.DefaultTaxRate = 120 }, "defaultTaxRate"},
		{"tax rate scale", func(c *Config) { c.Invoice.DefaultTaxRate = 7.125 }, "defaultTaxRate must have at most 2 decimal places"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStorageAndCacheToggles(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.Storage.Enabled())
	cfg.Storage.Bucket = "printshop-archive"
	assert.True(t, cfg.Storage.Enabled())
	assert.False(t, cfg.Database.InMemory())
}
