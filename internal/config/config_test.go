package config_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/ascend-engine/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Port:              "8080",
		DBHost:            "localhost",
		DBName:            "ascend_db",
		JWTSecret:         "secret",
		TokenTTL:          time.Hour,
		SnapshotQueueSize: 10,
		RateLimit:         100,
		RateWindow:        time.Minute,
	}
}

func TestValidate(t *testing.T) {
	t.Run("Success: Valid config", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("Fail: Empty port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Port = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PORT cannot be empty")
	})

	t.Run("Fail: Missing JWT secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTSecret = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("Fail: Every problem is reported", func(t *testing.T) {
		cfg := validConfig()
		cfg.SnapshotQueueSize = 0
		cfg.RateWindow = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SNAPSHOT_QUEUE_SIZE")
		assert.Contains(t, err.Error(), "RATE_WINDOW")
	})
}

func TestLoad(t *testing.T) {
	t.Run("Environment overrides defaults", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("JWT_SECRET", "from-env")
		t.Setenv("TOKEN_TTL", "2h")
		t.Setenv("SNAPSHOT_QUEUE_SIZE", "7")
		t.Setenv("REDIS_HOST", "cache")

		cfg := config.Load()
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, "from-env", cfg.JWTSecret)
		assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
		assert.Equal(t, 7, cfg.SnapshotQueueSize)
		assert.True(t, cfg.RedisEnabled())
	})

	t.Run("Malformed values fall back to defaults", func(t *testing.T) {
		t.Setenv("RATE_LIMIT", "lots")
		t.Setenv("RATE_WINDOW", "soon")

		cfg := config.Load()
		assert.Equal(t, 100, cfg.RateLimit)
		assert.Equal(t, time.Minute, cfg.RateWindow)
	})

	t.Run("Database URL", func(t *testing.T) {
		cfg := config.Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d"}
		assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.DatabaseURL())
	})

	t.Run("Edge Case: Reserved characters in credentials survive", func(t *testing.T) {
		cfg := config.Config{DBUser: "ops@team", DBPassword: "p@ss/w:rd?#%", DBHost: "db.local", DBPort: "5433", DBName: "ascend"}

		u, err := url.Parse(cfg.DatabaseURL())
		require.NoError(t, err)
		assert.Equal(t, "ops@team", u.User.Username())
		password, ok := u.User.Password()
		require.True(t, ok)
		assert.Equal(t, "p@ss/w:rd?#%", password)
		assert.Equal(t, "db.local:5433", u.Host)
		assert.Equal(t, "/ascend", u.Path)
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
	})
}
