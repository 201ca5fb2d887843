package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/database"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/pricing"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

const defaultJWTSecret = "change-me-in-production"

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Environment string `json:"environment" validate:"required"`
	Port        int    `json:"port" validate:"min=1,max=65535"`
	Host        string `json:"host"`

	// Database configuration
	DBDriver    string `json:"db_driver" validate:"oneof=sqlite postgres postgresql"`
	DatabaseURL string `json:"database_url" validate:"omitempty,url"`
	DBPath      string `json:"db_path" validate:"required_if=DBDriver sqlite"`
	DBHost      string `json:"db_host"`
	DBPort      string `json:"db_port"`
	DBName      string `json:"db_name"`
	DBUser      string `json:"db_user"`
	DBPassword  string `json:"db_password"`
	DBSSLMode   string `json:"db_sslmode"`
	DBSeed      bool   `json:"db_seed"`

	// Logging configuration
	LogLevel string `json:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`

	// Security Configuration
	JWTSecret      string  `json:"jwt_secret" validate:"required,min=8"`
	TokenTTLHours  int     `json:"token_ttl_hours" validate:"min=1"`
	PasswordPepper string  `json:"password_pepper" validate:"required"`
	RateLimitRPS   float64 `json:"rate_limit_rps" validate:"gt=0"`
	RateLimitBurst int     `json:"rate_limit_burst" validate:"min=1"`

	// Events configuration
	NATSURL           string `json:"nats_url" validate:"omitempty,url"`
	NATSSubjectPrefix string `json:"nats_subject_prefix" validate:"required"`

	// Menu configuration
	EmptyPizzaDietaryType string `json:"empty_pizza_dietary_type" validate:"oneof=Vegan Vegetarian Normal"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Environment: %s, Port: %d, Host: %s, DBDriver: %s, DatabaseURL: %s, DBPath: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], LogLevel: %s, JWTSecret: [REDACTED], TokenTTLHours: %d, PasswordPepper: [REDACTED], NATSURL: %s, EmptyPizzaDietaryType: %s}",
		c.Environment, c.Port, c.Host, c.DBDriver, maskDatabaseURL(c.DatabaseURL), c.DBPath, c.DBHost, c.DBName, c.DBUser,
		c.LogLevel, c.TokenTTLHours, maskDatabaseURL(c.NATSURL), c.EmptyPizzaDietaryType)
}

// maskDatabaseURL masks password in database URL
func maskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}

	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		// Replace password with [REDACTED]
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// It validates every field and refuses the default JWT secret in production
// Returns an error if any environment variable is missing or invalid
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config := &Config{
		Environment:           GetEnvWithDefault("APP_ENV", "development"),
		Port:                  port,
		Host:                  GetEnvWithDefault("APP_HOST", "localhost"),
		DBDriver:              strings.ToLower(GetEnvWithDefault("DB_DRIVER", "sqlite")),
		DatabaseURL:           GetEnvWithDefault("DATABASE_URL", ""),
		DBPath:                GetEnvWithDefault("DB_PATH", "pizza.sqlite"),
		DBHost:                GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:                GetEnvWithDefault("DB_PORT", "5432"),
		DBName:                GetEnvWithDefault("DB_NAME", "pizza"),
		DBUser:                GetEnvWithDefault("DB_USER", "pizza"),
		DBPassword:            GetEnvWithDefault("DB_PASSWORD", ""),
		DBSSLMode:             GetEnvWithDefault("DB_SSLMODE", "disable"),
		DBSeed:                GetEnvAsType("DB_SEED", true),
		LogLevel:              strings.ToLower(GetEnvWithDefault("LOG_LEVEL", "info")),
		JWTSecret:             GetEnvWithDefault("JWT_SECRET", defaultJWTSecret),
		TokenTTLHours:         GetEnvAsType("TOKEN_TTL_HOURS", 168),
		PasswordPepper:        GetEnvWithDefault("PASSWORD_PEPPER", "default-pepper"),
		RateLimitRPS:          GetEnvAsType("RATE_LIMIT_RPS", 5.0),
		RateLimitBurst:        GetEnvAsType("RATE_LIMIT_BURST", 10),
		NATSURL:               GetEnvWithDefault("NATS_URL", ""),
		NATSSubjectPrefix:     GetEnvWithDefault("NATS_SUBJECT_PREFIX", "pizza"),
		EmptyPizzaDietaryType: GetEnvWithDefault("EMPTY_PIZZA_DIETARY_TYPE", string(models.DietaryVegan)),
	}

	if dietary, ok := models.ParseDietaryType(config.EmptyPizzaDietaryType); ok {
		config.EmptyPizzaDietaryType = string(dietary)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// Validate checks the struct tags plus the rules that span several fields
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Environment == "production" && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

// Database returns the connection settings for internal/database
func (c *Config) Database() database.DatabaseConfig {
	return database.DatabaseConfig{
		Driver:   c.DBDriver,
		URL:      c.DatabaseURL,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
		Path:     c.DBPath,
		Seed:     c.DBSeed,
	}
}

// TokenTTL is the lifetime of login tokens
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// DietaryPolicy is the classification policy for pizzas without ingredients
func (c *Config) DietaryPolicy() pricing.DietaryPolicy {
	return pricing.DietaryPolicy{EmptyAs: models.DietaryType(c.EmptyPizzaDietaryType)}
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case float64:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return any(floatValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}

// ParseLogLevel maps LOG_LEVEL onto logrus, falling back to info
func (c *Config) ParseLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
