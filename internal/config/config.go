// Package config loads process configuration from the environment.
// main loads a .env file first in development, so every knob is a
// plain environment variable with a sensible local default.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Development fallbacks for the signing secrets. They are refused in
// production so a deployment cannot silently run on known keys.
const (
	devAccessSecret  = "defaultsecret"
	devRefreshSecret = "refreshsecret"
)

// Config is the full runtime configuration.
type Config struct {
	// Env is "development" or "production".
	Env  string
	Addr string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Argon2id parameters.
	ArgonMemory      uint32
	ArgonTime        uint32
	ArgonParallelism uint8

	// RedisAddr enables the login throttle when set.
	RedisAddr        string
	LoginMaxAttempts int
	LoginCooldown    time.Duration

	// DatabaseURL selects postgres storage when set; otherwise the
	// process runs on in-memory stores.
	DatabaseURL string

	// Bootstrap DEV account, created at startup when both are set.
	DevEmail    string
	DevPassword string
}

// Production reports whether the process runs with production
// hardening (secure cookies, no default secrets).
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Env:  getenv("ENV", "development"),
		Addr: getenv("ADDR", ":8080"),

		AccessSecret:  getenv("JWT_ACCESS_SECRET", ""),
		RefreshSecret: getenv("JWT_REFRESH_SECRET", ""),

		RedisAddr:   getenv("REDIS_ADDR", ""),
		DatabaseURL: getenv("DATABASE_URL", ""),

		DevEmail:    getenv("DEV_EMAIL", ""),
		DevPassword: getenv("DEV_PASSWORD", ""),
	}

	var err error
	if cfg.AccessTTL, err = getDuration("ACCESS_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = getDuration("REFRESH_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.LoginCooldown, err = getDuration("LOGIN_COOLDOWN", 15*time.Minute); err != nil {
		return Config{}, err
	}

	attempts, err := getInt("LOGIN_MAX_ATTEMPTS", 10)
	if err != nil {
		return Config{}, err
	}
	cfg.LoginMaxAttempts = attempts

	memory, err := getInt("ARGON_MEMORY_KB", 64*1024)
	if err != nil {
		return Config{}, err
	}
	argonTime, err := getInt("ARGON_TIME", 3)
	if err != nil {
		return Config{}, err
	}
	parallelism, err := getInt("ARGON_PARALLELISM", 2)
	if err != nil {
		return Config{}, err
	}
	cfg.ArgonMemory = uint32(memory)
	cfg.ArgonTime = uint32(argonTime)
	cfg.ArgonParallelism = uint8(parallelism)

	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		if cfg.Production() {
			return Config{}, errors.New("config: JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required in production")
		}
		if cfg.AccessSecret == "" {
			cfg.AccessSecret = devAccessSecret
		}
		if cfg.RefreshSecret == "" {
			cfg.RefreshSecret = devRefreshSecret
		}
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return Config{}, errors.New("config: access and refresh secrets must differ")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return n, nil
}
