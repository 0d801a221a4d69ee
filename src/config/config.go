package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=pos_recipes port=5432 sslmode=disable"

type Config struct {
	Env      string
	HTTPPort string

	DatabaseDSN     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LockTimeout     time.Duration
	DBLogLevel      string

	LogLevel    string
	JWTSecret   string
	CORSOrigins []string

	RedisAddress      string
	ProductionLockTTL time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("GO_ENV", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_MAX_IDLE_CONNS", 25)
	v.SetDefault("DB_CONN_MAX_LIFETIME_SECONDS", 300)
	v.SetDefault("DB_LOCK_TIMEOUT_MS", 0)
	v.SetDefault("DB_LOG_LEVEL", "error")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("REDIS_ADDRESS", "")
	v.SetDefault("PRODUCTION_LOCK_TTL_SECONDS", 30)
	return v
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:               strings.TrimSpace(v.GetString("GO_ENV")),
		HTTPPort:          strings.TrimSpace(v.GetString("HTTP_PORT")),
		DatabaseDSN:       strings.TrimSpace(v.GetString("DATABASE_DSN")),
		MaxOpenConns:      v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:      v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime:   time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_SECONDS")) * time.Second,
		LockTimeout:       time.Duration(v.GetInt("DB_LOCK_TIMEOUT_MS")) * time.Millisecond,
		DBLogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("DB_LOG_LEVEL"))),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		JWTSecret:         v.GetString("JWT_SECRET"),
		CORSOrigins:       splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS")),
		RedisAddress:      strings.TrimSpace(v.GetString("REDIS_ADDRESS")),
		ProductionLockTTL: time.Duration(v.GetInt("PRODUCTION_LOCK_TTL_SECONDS")) * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS and DB_MAX_IDLE_CONNS cannot be negative"))
	}
	if c.ConnMaxLifetime < 0 || c.LockTimeout < 0 || c.ProductionLockTTL < 0 {
		errs = append(errs, errors.New("durations cannot be negative"))
	}
	return errors.Join(errs...)
}

// ValidateServe adds the checks only the HTTP server needs.
func (c *Config) ValidateServe() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWTSecret))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func splitAndTrim(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
