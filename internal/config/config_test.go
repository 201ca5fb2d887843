package config

import (
	"os"
	"testing"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "APP_PORT", "APP_HOST", "LOG_LEVEL", "JWT_SECRET", "TOKEN_TTL_HOURS",
	"DB_DRIVER", "DATABASE_URL", "DB_PATH", "DB_SEED", "DB_PASSWORD", "PASSWORD_PEPPER",
	"NATS_URL", "EMPTY_PIZZA_DIETARY_TYPE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// clearEnv unsets every key LoadConfig reads; t.Setenv restores them
func clearEnv(t *testing.T) {
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestGetEnvWithDefault(t *testing.T) {
	testCases := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{
			name:         "should return env value when set",
			key:          "TEST_KEY",
			defaultValue: "default",
			envValue:     "from_env",
			expected:     "from_env",
		},
		{
			name:         "should return default when env not set",
			key:          "MISSING_KEY",
			defaultValue: "default_value",
			envValue:     "",
			expected:     "default_value",
		},
		{
			name:         "should return empty string default",
			key:          "EMPTY_KEY",
			defaultValue: "",
			envValue:     "",
			expected:     "",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)

			result := GetEnvWithDefault(tt.key, tt.defaultValue)

			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetEnvAsType(t *testing.T) {
	t.Setenv("INT_KEY", "42")
	t.Setenv("FLOAT_KEY", "2.5")
	t.Setenv("BOOL_KEY", "false")
	t.Setenv("BAD_INT_KEY", "forty-two")

	assert.Equal(t, 42, GetEnvAsType("INT_KEY", 1))
	assert.Equal(t, 2.5, GetEnvAsType("FLOAT_KEY", 1.0))
	assert.False(t, GetEnvAsType("BOOL_KEY", true))
	assert.Equal(t, 7, GetEnvAsType("BAD_INT_KEY", 7))
	assert.Equal(t, "fallback", GetEnvAsType("UNSET_KEY_FOR_TEST", "fallback"))
}

func TestLoadConfig(t *testing.T) {
	t.Run("successful config load with all env vars", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_PORT", "9000")
		t.Setenv("APP_HOST", "0.0.0.0")
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("JWT_SECRET", "super_secret_jwt_key")
		t.Setenv("TOKEN_TTL_HOURS", "2")
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "postgres://pizza:hunter2@db:5432/pizza")
		t.Setenv("NATS_URL", "nats://localhost:4222")
		t.Setenv("EMPTY_PIZZA_DIETARY_TYPE", "normal")

		config, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 9000, config.Port)
		assert.Equal(t, "0.0.0.0", config.Host)
		assert.Equal(t, "debug", config.LogLevel)
		assert.Equal(t, logrus.DebugLevel, config.ParseLogLevel())
		assert.Equal(t, 2*time.Hour, config.TokenTTL())
		assert.Equal(t, models.DietaryNormal, config.DietaryPolicy().EmptyAs)

		db := config.Database()
		assert.Equal(t, "postgres", db.Driver)
		assert.Equal(t, "postgres://pizza:hunter2@db:5432/pizza", db.DSN())

		assert.NotContains(t, config.String(), "hunter2")
		assert.NotContains(t, config.String(), "super_secret_jwt_key")
	})

	t.Run("should fail with invalid port", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_PORT", "not_a_number")

		config, err := LoadConfig()

		assert.Error(t, err)
		assert.Nil(t, config)
	})

	t.Run("should use defaults when optional env vars not set", func(t *testing.T) {
		clearEnv(t)

		config, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 8080, config.Port)
		assert.Equal(t, "localhost", config.Host)
		assert.Equal(t, "info", config.LogLevel)
		assert.Equal(t, "sqlite", config.DBDriver)
		assert.True(t, config.DBSeed)
		assert.Equal(t, 7*24*time.Hour, config.TokenTTL())
		assert.Equal(t, models.DietaryVegan, config.DietaryPolicy().EmptyAs)
		assert.Empty(t, config.NATSURL)
	})

	invalid := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DB_DRIVER", "oracle"},
		{"port out of range", "APP_PORT", "70000"},
		{"unknown log level", "LOG_LEVEL", "chatty"},
		{"short jwt secret", "JWT_SECRET", "short"},
		{"unknown dietary type", "EMPTY_PIZZA_DIETARY_TYPE", "Carnivore"},
		{"zero rate limit", "RATE_LIMIT_RPS", "0"},
	}
	for _, tt := range invalid {
		t.Run("should reject "+tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			config, err := LoadConfig()

			assert.Error(t, err)
			assert.Nil(t, config)
		})
	}

	t.Run("should require a real jwt secret in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})
}

func BenchmarkGetEnvWithDefault(b *testing.B) {
	b.Setenv("BENCH_KEY", "test_value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GetEnvWithDefault("BENCH_KEY", "default")
	}
}
