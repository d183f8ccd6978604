package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and an optional
// yaml config file.
func Load() (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	v.SetEnvPrefix("COOKBOOKD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	configPaths := []string{
		".",
		"/etc/cookbookd",
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}
	v.SetConfigName("config")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Generate secret key if not set
	if v.GetString("security.secret_key") == "" {
		key, err := generateSecretKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate secret key: %w", err)
		}
		v.Set("security.secret_key", key)
	}

	if err := Validate(v); err != nil {
		return nil, err
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "cookbookd")
	v.SetDefault("app.env", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "cookbookd.db")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_time", 300)

	// Security defaults
	v.SetDefault("security.secret_key", "")
	v.SetDefault("security.jwt.issuer", "cookbookd")
	v.SetDefault("security.jwt.access_token_ttl", "24h")

	// Rate limiting defaults
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_second", 20)
	v.SetDefault("ratelimit.burst", 40)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	v.SetDefault("cors.allowed_headers", "Authorization, Content-Type")
	v.SetDefault("cors.max_age", 86400)
	v.SetDefault("cors.allow_credentials", false)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.key_prefix", "cookbookd:")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}

func generateSecretKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Validate validates the configuration
func Validate(v *viper.Viper) error {
	dbType := v.GetString("database.type")
	switch dbType {
	case "sqlite", "postgres", "postgresql", "mysql":
		if v.GetString("database.dsn") == "" {
			return fmt.Errorf("database.dsn is required for %s", dbType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", dbType)
	}

	port := v.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if v.GetString("security.secret_key") == "" {
		return fmt.Errorf("security.secret_key is required")
	}

	return nil
}
