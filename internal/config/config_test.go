package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Catalog.ResultsPerPage)
	assert.Equal(t, "token", cfg.Cookie.Name)
	assert.Equal(t, "inr", cfg.Payment.Currency)
	assert.Equal(t, "./uploads", cfg.Uploads.Dir)
	assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxImageBytes)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RESULTS_PER_PAGE", "12")
	t.Setenv("COOKIE_SECURE", "TRUE")
	t.Setenv("STRIPE_CURRENCY", "USD")
	t.Setenv("TAX_PERCENT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Catalog.ResultsPerPage)
	assert.True(t, cfg.Cookie.Secure)
	assert.Equal(t, "usd", cfg.Payment.Currency)
	assert.Equal(t, 18.0, cfg.Payment.TaxPercent)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment: "production",
			JWT:         JWTConfig{SecretKey: "s3cr3t"},
			Database:    DatabaseConfig{Password: "pw"},
			Catalog:     CatalogConfig{ResultsPerPage: 8, MaxPerPage: 100},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("default jwt secret in production", func(t *testing.T) {
		cfg := base()
		cfg.JWT.SecretKey = "your-secret-key-change-in-production"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing db password in production", func(t *testing.T) {
		cfg := base()
		cfg.Database.Password = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non positive page size", func(t *testing.T) {
		cfg := base()
		cfg.Catalog.ResultsPerPage = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("max below default", func(t *testing.T) {
		cfg := base()
		cfg.Catalog.MaxPerPage = 4
		assert.Error(t, cfg.Validate())
	})
}

func TestDSNAndTimeout(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "shop", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", d.DSN())

	assert.Equal(t, 10*time.Second, (&MongoConfig{}).Timeout())
	assert.Equal(t, 3*time.Second, (&MongoConfig{ConnectTimeout: 3}).Timeout())
}
