package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends understood by the server.
const (
	BackendSnapshot = "snapshot"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Host string
		Port int
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
		BcryptCost      int
	}
	Store struct {
		Backend string
		Path    string
		Bucket  string
		Key     string
	}
	Database struct {
		Path string
		URL  string
	}
	Storage struct {
		Region   string
		Endpoint string
	}
	AWS struct {
		Profile string
	}
	Sentry struct {
		DSN         string
		Environment string
	}
	Log struct {
		Level  string
		Format string
	}
}

// Addr returns the listen address built from host and port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// .env is optional and never overrides variables already set.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CREDSVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 3000)
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 15)
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("store.backend", BackendSnapshot)
	v.SetDefault("store.path", "data/users.json")
	v.SetDefault("store.bucket", "")
	v.SetDefault("store.key", "users.json")
	v.SetDefault("database.path", "data/credentials.db")
	v.SetDefault("database.url", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// plain names kept for deployments that only set these two
	_ = v.BindEnv("auth.jwtsecret", "CREDSVC_AUTH_JWTSECRET", "JWT_SECRET")
	_ = v.BindEnv("server.port", "CREDSVC_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.url", "CREDSVC_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("sentry.dsn", "CREDSVC_SENTRY_DSN", "SENTRY_DSN")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Auth.JWTSecret = strings.TrimSpace(cfg.Auth.JWTSecret)
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))

	return cfg, nil
}

// Validate reports configuration the server must not start with.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth jwt secret is required")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return fmt.Errorf("auth token ttl must be positive, got %d", c.Auth.TokenTTLMinutes)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	switch c.Store.Backend {
	case BackendSnapshot:
		if c.Store.Bucket == "" && c.Store.Path == "" {
			return errors.New("snapshot store needs a path or a bucket")
		}
	case BackendSQLite:
		if c.Database.Path == "" {
			return errors.New("sqlite store needs database.path")
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return errors.New("postgres store needs database.url")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	return nil
}
