package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig carries PostgreSQL connection and pool parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// PoolSize is the steady pool capacity; MaxOverflow is temporary
	// burst capacity on top of it.
	PoolSize    int `yaml:"pool_size"`
	MaxOverflow int `yaml:"max_overflow"`

	// Timeouts and recycle interval in seconds.
	PoolTimeout    int `yaml:"pool_timeout"`
	PoolRecycle    int `yaml:"pool_recycle"`
	ConnectTimeout int `yaml:"connect_timeout"`

	SSLMode string `yaml:"ssl_mode"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Error reports an invalid configuration parameter detected before any
// connection is attempted.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Load reads configuration from an optional YAML file and environment
// variables. Environment variables override file values.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("SIGNSTORE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if portStr := os.Getenv("DB_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_PORT: %w", err)
		}
		cfg.Database.Port = port
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Database = name
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.Username = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if v := os.Getenv("DB_POOL_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_POOL_SIZE: %w", err)
		}
		cfg.Database.PoolSize = n
	}
	if v := os.Getenv("DB_MAX_OVERFLOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_MAX_OVERFLOW: %w", err)
		}
		cfg.Database.MaxOverflow = n
	}
	if v := os.Getenv("DB_POOL_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_POOL_TIMEOUT: %w", err)
		}
		cfg.Database.PoolTimeout = n
	}
	if v := os.Getenv("DB_POOL_RECYCLE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_POOL_RECYCLE: %w", err)
		}
		cfg.Database.PoolRecycle = n
	}
	if v := os.Getenv("DB_CONNECT_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_CONNECT_TIMEOUT: %w", err)
		}
		cfg.Database.ConnectTimeout = n
	}
	if mode := os.Getenv("DB_SSL_MODE"); mode != "" {
		cfg.Database.SSLMode = mode
	}
	if level := os.Getenv("SIGNSTORE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "project_db",
			Username:       "postgres",
			Password:       "",
			PoolSize:       10,
			MaxOverflow:    20,
			PoolTimeout:    30,
			PoolRecycle:    3600,
			ConnectTimeout: 10,
			SSLMode:        "prefer",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate checks connection and pool parameters. It returns a *Error
// naming the first offending field.
func (c DatabaseConfig) Validate() error {
	if c.Host == "" {
		return &Error{Field: "host", Reason: "is required"}
	}
	if c.Database == "" {
		return &Error{Field: "database", Reason: "is required"}
	}
	if c.Username == "" {
		return &Error{Field: "username", Reason: "is required"}
	}
	if c.Password == "" {
		return &Error{Field: "password", Reason: "is required"}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &Error{Field: "port", Reason: "must be between 1 and 65535"}
	}
	if c.PoolSize <= 0 {
		return &Error{Field: "pool_size", Reason: "must be greater than 0"}
	}
	if c.MaxOverflow < 0 {
		return &Error{Field: "max_overflow", Reason: "must be non-negative"}
	}
	return nil
}

// ConnString builds the PostgreSQL connection URL.
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		url.QueryEscape(c.Username),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
		c.ConnectTimeout,
	)
}

// MaxConns is the hard pool bound: steady capacity plus burst overflow.
func (c DatabaseConfig) MaxConns() int32 {
	return int32(c.PoolSize + c.MaxOverflow)
}
