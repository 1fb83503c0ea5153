package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for project-explorer
type Config struct {
	Server ServerConfig `koanf:"server"`
	Store  StoreConfig  `koanf:"store"`
	Redis  RedisConfig  `koanf:"redis"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	MaxPageSize  int           `koanf:"max_page_size"`
	CORSOrigins  []string      `koanf:"cors_origins"`
	RequestLimit time.Duration `koanf:"request_timeout"`
}

// StoreConfig selects and configures the catalog store
type StoreConfig struct {
	Driver       string `koanf:"driver"`
	Path         string `koanf:"path"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	FixtureDir   string `koanf:"fixture_dir"`
}

// RedisConfig holds the optional result cache configuration
type RedisConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Address  string        `koanf:"address"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `koanf:"level"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			MaxPageSize:  200,
			CORSOrigins:  []string{"*"},
			RequestLimit: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:       DriverSQLite,
			Path:         "./projects.db",
			MaxOpenConns: 8,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			TTL:     5 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// at path, then environment variables. Later sources win.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		slog.Debug("config file loaded", "path", path)
	}

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.MaxPageSize = getEnvAsInt("SERVER_MAX_PAGE_SIZE", cfg.Server.MaxPageSize)
	cfg.Server.CORSOrigins = getEnvAsList("SERVER_CORS_ORIGINS", cfg.Server.CORSOrigins)
	cfg.Server.RequestLimit = getEnvAsDuration("SERVER_REQUEST_TIMEOUT", cfg.Server.RequestLimit)

	cfg.Store.Driver = getEnv("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.Path = getEnv("STORE_PATH", cfg.Store.Path)
	cfg.Store.DSN = getEnv("DATABASE_DSN", cfg.Store.DSN)
	cfg.Store.MaxOpenConns = getEnvAsInt("STORE_MAX_OPEN_CONNS", cfg.Store.MaxOpenConns)
	cfg.Store.FixtureDir = getEnv("STORE_FIXTURE_DIR", cfg.Store.FixtureDir)

	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Address = getEnv("REDIS_ADDRESS", cfg.Redis.Address)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.TTL = getEnvAsDuration("REDIS_TTL", cfg.Redis.TTL)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	if c.Server.MaxPageSize < 1 {
		errs = append(errs, fmt.Errorf("max page size must be positive: %d", c.Server.MaxPageSize))
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store path is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("database DSN is required for the postgres driver"))
		}
	case DriverMemory:
		if c.Store.FixtureDir == "" {
			errs = append(errs, errors.New("fixture dir is required for the memory driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver: %q", c.Store.Driver))
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			errs = append(errs, errors.New("redis address is required when the cache is enabled"))
		}
		if c.Redis.TTL <= 0 {
			errs = append(errs, fmt.Errorf("redis TTL must be positive: %s", c.Redis.TTL))
		}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog.Level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level: %q", s)
	}
	return level, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
