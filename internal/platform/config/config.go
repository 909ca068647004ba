package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"assetmanagement/internal/platform/db"
)

const (
	ModeDev     = "dev"
	ModeRelease = "release"
)

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type ReportConfig struct {
	// Empty disables the overdue loan report.
	Cron string `yaml:"cron"`
}

type Config struct {
	Version string            `yaml:"version"`
	Mode    string            `yaml:"mode"`
	Server  ServerConfig      `yaml:"server"`
	DB      db.DatabaseConfig `yaml:"database"`
	Auth    AuthConfig        `yaml:"auth"`
	Report  ReportConfig      `yaml:"report"`
}

func Default() Config {
	return Config{
		Mode: ModeDev,
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		DB: db.DatabaseConfig{
			Driver: db.DriverSQLite,
			Path:   "assetmanagement.db",
			Port:   3306,
		},
		Auth: AuthConfig{
			SessionTTL: 8 * time.Hour,
		},
		Report: ReportConfig{
			Cron: "0 8 * * *",
		},
	}
}

// Load: defaults < yaml < .env / AMS_* env.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(buf, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		// a missing .env is fine
		_ = godotenv.Load()
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Mode, "AMS_MODE")
	setString(&c.Server.Addr, "AMS_ADDR")
	setString(&c.DB.Driver, "AMS_DB_DRIVER")
	setString(&c.DB.Path, "AMS_DB_PATH")
	setString(&c.DB.Host, "AMS_DB_HOST")
	setString(&c.DB.Username, "AMS_DB_USER")
	setString(&c.DB.Password, "AMS_DB_PASSWORD")
	setString(&c.DB.DBName, "AMS_DB_NAME")
	setString(&c.Auth.JWTSecret, "AMS_JWT_SECRET")
	if v, ok := os.LookupEnv("AMS_REPORT_CRON"); ok {
		c.Report.Cron = v
	}

	if v := os.Getenv("AMS_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AMS_DB_PORT: %w", err)
		}
		c.DB.Port = port
	}
	if v := os.Getenv("AMS_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AMS_SESSION_TTL: %w", err)
		}
		c.Auth.SessionTTL = ttl
	}
	return nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch c.Mode {
	case ModeDev, ModeRelease:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDev, ModeRelease, c.Mode)
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr must be provided")
	}

	switch c.DB.Driver {
	case db.DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("database.path must be provided for sqlite")
		}
	case db.DriverMySQL:
		if c.DB.Host == "" || c.DB.DBName == "" {
			return errors.New("database.host and database.dbname must be provided for mysql")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.DB.Driver)
	}

	if c.Auth.JWTSecret == "" {
		if c.Mode == ModeRelease {
			return errors.New("auth.jwt_secret (AMS_JWT_SECRET) must be provided in release mode")
		}
		c.Auth.JWTSecret = "dev-only-secret"
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.session_ttl must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
