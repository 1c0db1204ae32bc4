package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Run("missing port", func(t *testing.T) {
		cfg := &Config{JWTSecret: "secret"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := &Config{Port: "8480"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("development defaults pass", func(t *testing.T) {
		cfg := &Config{Port: "8480", JWTSecret: "short-dev-secret", Env: "development"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("production rejects default secret", func(t *testing.T) {
		cfg := &Config{
			Port:      "8480",
			JWTSecret: "your-secret-key-change-in-production",
			Env:       "production",
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("production rejects short secret", func(t *testing.T) {
		cfg := &Config{Port: "8480", JWTSecret: "tooshort", Env: "production"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("production rejects default db password", func(t *testing.T) {
		cfg := &Config{
			Port:       "8480",
			JWTSecret:  "a-very-long-production-grade-secret-key",
			DBPassword: "password",
			Env:        "production",
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("production passes with strong values", func(t *testing.T) {
		cfg := &Config{
			Port:       "8480",
			JWTSecret:  "a-very-long-production-grade-secret-key",
			DBPassword: "sUper$trongPassw0rd",
			DBSSLMode:  "require",
			Env:        "production",
		}
		assert.NoError(t, cfg.Validate())
	})
}

func TestCategories(t *testing.T) {
	cats, err := Categories()
	require.NoError(t, err)
	require.NotEmpty(t, cats)

	assert.True(t, ValidCategory(cats[0]))
	assert.False(t, ValidCategory("definitely-not-a-category"))
}
