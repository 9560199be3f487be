// Package config loads service settings from the environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort string `mapstructure:"APP_PORT"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseDSN    string `mapstructure:"DATABASE_DSN"`

	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	JWTTTL     time.Duration `mapstructure:"JWT_TTL"`
	BcryptCost int           `mapstructure:"BCRYPT_COST"`

	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	LoginRateLimit  int           `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindow time.Duration `mapstructure:"LOGIN_RATE_WINDOW"`

	LogLevel       string `mapstructure:"LOG_LEVEL"`
	ExportTimezone string `mapstructure:"EXPORT_TIMEZONE"`
}

var keys = []string{
	"APP_PORT", "DATABASE_DRIVER", "DATABASE_DSN",
	"JWT_SECRET", "JWT_TTL", "BCRYPT_COST",
	"ADMIN_USERNAME", "ADMIN_PASSWORD",
	"RABBITMQ_URL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "LOGIN_RATE_LIMIT", "LOGIN_RATE_WINDOW",
	"LOG_LEVEL", "EXPORT_TIMEZONE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":3000")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "padel.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "PadelCentarUmag1")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOGIN_RATE_LIMIT", 10)
	v.SetDefault("LOGIN_RATE_WINDOW", "15m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("EXPORT_TIMEZONE", "Europe/Zagreb")
}

// Load reads configuration from environment variables and, when present,
// a config file named "config" in the working directory.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about; bind each explicitly so
	// env-only values are picked up.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	if c.AdminUsername == "" {
		return errors.New("ADMIN_USERNAME is required")
	}
	if c.RedisAddr != "" && (c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0) {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive when REDIS_ADDR is set")
	}
	return nil
}

// Location returns the time zone used for export timestamps.
func (c Config) Location() (*time.Location, error) {
	if c.ExportTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.ExportTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_TIMEZONE %q: %w", c.ExportTimezone, err)
	}
	return loc, nil
}
