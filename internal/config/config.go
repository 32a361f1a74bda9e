// Package config loads service configuration.
//
// Configuration is read from a YAML file when one is present (with ${VAR}
// references expanded from the environment) and otherwise from environment
// variables, which a .env file may populate beforehand:
//
//	_ = godotenv.Load()
//	cfg := config.LoadOrEnv("config.yaml")
//	db, err := config.InitDB(cfg.Database, log)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Matching MatchingConfig `yaml:"matching"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects the gorm driver. DSN, when set, wins over the
// individual connection fields.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres, mysql or sqlite
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// MatchingConfig holds the service-wide search defaults. Tenants may
// override tolerance and component cap in their match settings.
type MatchingConfig struct {
	ToleranceCents int64         `yaml:"tolerance_cents"`
	MaxComponents  int           `yaml:"max_components"`
	MaxResults     int           `yaml:"max_results"`
	NodeBudget     int64         `yaml:"node_budget"`
	SearchTimeout  time.Duration `yaml:"search_timeout"`
	Workers        int           `yaml:"workers"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "reconciliation",
			SSLMode: "disable",
		},
		Matching: MatchingConfig{
			ToleranceCents: 100,
			MaxComponents:  5,
			MaxResults:     5,
			NodeBudget:     100000,
			SearchTimeout:  2 * time.Second,
			Workers:        1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv builds the configuration from environment variables only.
func LoadFromEnv() *Config {
	def := Default()
	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("PORT", def.Server.Port),
			AllowedOrigins: getEnvList("ALLOWED_ORIGINS", def.Server.AllowedOrigins),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", def.Database.Driver),
			DSN:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", def.Database.Host),
			Port:     getEnv("DB_PORT", def.Database.Port),
			User:     getEnv("DB_USER", def.Database.User),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", def.Database.Name),
			SSLMode:  getEnv("DB_SSLMODE", def.Database.SSLMode),
		},
		Matching: MatchingConfig{
			ToleranceCents: int64(getEnvInt("MATCH_TOLERANCE_CENTS", int(def.Matching.ToleranceCents))),
			MaxComponents:  getEnvInt("MATCH_MAX_COMPONENTS", def.Matching.MaxComponents),
			MaxResults:     getEnvInt("MATCH_MAX_RESULTS", def.Matching.MaxResults),
			NodeBudget:     int64(getEnvInt("MATCH_NODE_BUDGET", int(def.Matching.NodeBudget))),
			SearchTimeout:  getEnvDuration("MATCH_SEARCH_TIMEOUT", def.Matching.SearchTimeout),
			Workers:        getEnvInt("MATCH_WORKERS", def.Matching.Workers),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", def.Logging.Level),
			Format: getEnv("LOG_FORMAT", def.Logging.Format),
		},
	}
}

// LoadOrEnv tries the YAML file first and falls back to the environment.
func LoadOrEnv(path string) *Config {
	if path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return LoadFromEnv()
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Matching.ToleranceCents < 0 {
		return fmt.Errorf("matching.tolerance_cents must not be negative")
	}
	if c.Matching.MaxComponents < 1 {
		return fmt.Errorf("matching.max_components must be at least 1")
	}
	if c.Matching.NodeBudget < 1 {
		return fmt.Errorf("matching.node_budget must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
